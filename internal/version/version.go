// Package version 保存构建时注入的版本信息。
package version

import (
	"fmt"
	"runtime"
)

// Version/Commit 可在构建时通过 -ldflags 注入，默认使用开发占位符：
//
//	go build -ldflags "-X github.com/any-hub/orthanc-gateway/internal/version.Version=1.2.0"
var (
	Version = "0.1.0"
	Commit  = "dev"
)

// Full 返回 CLI 与 /-/settings 使用的完整版本串，附带编译所用的 Go 版本。
func Full() string {
	return fmt.Sprintf("orthanc-gateway %s (%s, %s)", Version, Commit, runtime.Version())
}
