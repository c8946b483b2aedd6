package cache

import (
	"errors"
	"time"
)

// Store 负责管理实例文件缓存的读写。磁盘布局遵循：
//
//	<CacheDir>/<id 前两位>/<id>.dcm    # 原始 DICOM 字节
//
// 条目一旦写入即视为永久有效，Store 不提供删除或过期能力。
type Store interface {
	// Has 报告 id 对应的缓存文件是否存在。
	Has(id string) bool

	// Stat 返回缓存文件的元数据（大小、修改时间），HEAD 请求据此计算 Content-Length。
	// 不存在时返回 ErrNotFound。
	Stat(id string) (Entry, error)

	// Read 读取完整的缓存字节。不存在时返回 ErrNotFound。
	Read(id string) ([]byte, error)

	// Write 写入缓存并返回条目描述。条目已存在时直接返回现有描述，不会覆盖。
	Write(id string, payload []byte) (Entry, error)

	// Root 返回缓存根目录的绝对路径。
	Root() string
}

// Entry 描述一个缓存文件。
type Entry struct {
	ID        string    `json:"id"`
	FilePath  string    `json:"file_path"`
	SizeBytes int64     `json:"size_bytes"`
	ModTime   time.Time `json:"mod_time"`
}

var (
	// ErrNotFound 表示缓存不存在。
	ErrNotFound = errors.New("cache entry not found")
	// ErrInvalidID 表示 id 无法安全映射为磁盘路径。
	ErrInvalidID = errors.New("invalid cache id")
)
