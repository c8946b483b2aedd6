package orthanc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
)

// Tags 是 MainDicomTags 映射。Orthanc 通常返回字符串值，非字符串值会被格式化为字符串。
type Tags map[string]string

// UnmarshalJSON 接受任意标量值，避免个别数值型标签导致整条描述解析失败。
func (t *Tags) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Tags, len(raw))
	for key, value := range raw {
		var s string
		if err := json.Unmarshal(value, &s); err == nil {
			out[key] = s
			continue
		}
		trimmed := bytes.TrimSpace(value)
		if bytes.Equal(trimmed, []byte("null")) {
			continue
		}
		var decoded interface{}
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()
		if err := dec.Decode(&decoded); err != nil {
			return fmt.Errorf("tag %s: %w", key, err)
		}
		out[key] = fmt.Sprint(decoded)
	}
	*t = out
	return nil
}

// Get 返回标签值；缺失或为空字符串时返回 fallback。
func (t Tags) Get(key, fallback string) string {
	if value, ok := t[key]; ok && value != "" {
		return value
	}
	return fallback
}

// Descriptor 是 Orthanc 对 study/series/instance 的 JSON 描述。
type Descriptor struct {
	ID            string   `json:"ID"`
	Type          string   `json:"Type"`
	MainDicomTags Tags     `json:"MainDicomTags"`
	Series        []string `json:"Series,omitempty"`
	Instances     []string `json:"Instances,omitempty"`
	ParentStudy   string   `json:"ParentStudy,omitempty"`
	ParentSeries  string   `json:"ParentSeries,omitempty"`
}

// ForwardRequest 描述一次透传到 Orthanc 的通用请求。
type ForwardRequest struct {
	Method      string
	Path        string
	RawQuery    string
	Body        []byte
	ContentType string
}

// ForwardResponse 是 Orthanc 的原始响应；Header 中的 hop-by-hop 字段由调用方过滤。
type ForwardResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}
