package orthanc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/any-hub/orthanc-gateway/internal/config"
	"github.com/any-hub/orthanc-gateway/internal/metrics"
)

// Call classes, used as metric labels.
const (
	CallSystem       = "system"
	CallStudy        = "study"
	CallSeries       = "series"
	CallInstance     = "instance"
	CallInstanceFile = "instance_file"
	CallForward      = "forward"
)

const defaultForwardContentType = "application/json"

// Timeouts 按调用类别区分超时：健康探测最短，描述查询居中，二进制与透传最长。
type Timeouts struct {
	Health     time.Duration
	Descriptor time.Duration
	Instance   time.Duration
	Payload    time.Duration
}

// Client 使用固定的 basic-auth 凭证访问 Orthanc。
type Client struct {
	base     *url.URL
	username string
	password string
	http     *http.Client
	timeouts Timeouts
	metrics  *metrics.Collector
}

// NewClient 根据 Origin 配置构建客户端。httpClient 为空时使用 http.DefaultClient。
func NewClient(cfg config.OriginConfig, httpClient *http.Client, collector *metrics.Collector) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.URL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid origin url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid origin url: %s", cfg.URL)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		base:     base,
		username: cfg.Username,
		password: cfg.Password,
		http:     httpClient,
		timeouts: Timeouts{
			Health:     orDefault(cfg.HealthTimeout, 5*time.Second),
			Descriptor: orDefault(cfg.DescriptorTimeout, 30*time.Second),
			Instance:   orDefault(cfg.InstanceTimeout, 10*time.Second),
			Payload:    orDefault(cfg.PayloadTimeout, 60*time.Second),
		},
		metrics: collector,
	}, nil
}

// BaseURL 返回 Orthanc 根地址。
func (c *Client) BaseURL() string {
	return c.base.String()
}

// System 探测 /system，返回 "healthy" 或 "unhealthy"；传输失败时返回错误。
func (c *Client) System(ctx context.Context) (string, error) {
	target := c.resolve("system", "")
	ctx, cancel := context.WithTimeout(ctx, c.timeouts.Health)
	defer cancel()

	started := time.Now()
	resp, err := c.do(ctx, http.MethodGet, target, nil, "")
	c.observe(CallSystem, started, err)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))

	if resp.StatusCode == http.StatusOK {
		return "healthy", nil
	}
	return "unhealthy", nil
}

// Study 获取 study 描述。
func (c *Client) Study(ctx context.Context, id string) (*Descriptor, error) {
	return c.descriptor(ctx, CallStudy, c.timeouts.Descriptor, "studies", id)
}

// Series 获取 series 描述。
func (c *Client) Series(ctx context.Context, id string) (*Descriptor, error) {
	return c.descriptor(ctx, CallSeries, c.timeouts.Descriptor, "series", id)
}

// Instance 获取 instance 描述。
func (c *Client) Instance(ctx context.Context, id string) (*Descriptor, error) {
	return c.descriptor(ctx, CallInstance, c.timeouts.Instance, "instances", id)
}

// InstanceFile 下载实例的原始 DICOM 字节。
func (c *Client) InstanceFile(ctx context.Context, id string) ([]byte, error) {
	target := c.resolve("instances/"+url.PathEscape(id)+"/file", "")
	ctx, cancel := context.WithTimeout(ctx, c.timeouts.Payload)
	defer cancel()

	started := time.Now()
	data, err := c.fetch(ctx, http.MethodGet, target)
	c.observe(CallInstanceFile, started, err)
	return data, err
}

// Forward 透传任意请求，不解释状态码；只有传输失败才返回错误。
func (c *Client) Forward(ctx context.Context, req ForwardRequest) (*ForwardResponse, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	contentType := req.ContentType
	if contentType == "" {
		contentType = defaultForwardContentType
	}

	target := c.resolve(strings.TrimLeft(req.Path, "/"), req.RawQuery)

	ctx, cancel := context.WithTimeout(ctx, c.timeouts.Payload)
	defer cancel()

	started := time.Now()
	resp, err := c.do(ctx, method, target, req.Body, contentType)
	if err != nil {
		c.observe(CallForward, started, err)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		err = &RequestError{Method: method, URL: target, Err: err}
	}
	c.observe(CallForward, started, err)
	if err != nil {
		return nil, err
	}

	return &ForwardResponse{
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       body,
	}, nil
}

func (c *Client) descriptor(ctx context.Context, call string, timeout time.Duration, collection, id string) (*Descriptor, error) {
	target := c.resolve(collection+"/"+url.PathEscape(id), "")
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	started := time.Now()
	data, err := c.fetch(ctx, http.MethodGet, target)
	if err == nil {
		var desc Descriptor
		if decodeErr := json.Unmarshal(data, &desc); decodeErr != nil {
			err = &RequestError{Method: http.MethodGet, URL: target, Err: fmt.Errorf("decode descriptor: %w", decodeErr)}
		} else {
			c.observe(call, started, nil)
			return &desc, nil
		}
	}
	c.observe(call, started, err)
	return nil, err
}

// fetch 执行 GET 并在 2xx 时返回完整正文。
func (c *Client) fetch(ctx context.Context, method, target string) ([]byte, error) {
	resp, err := c.do(ctx, method, target, nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if statusErr := classifyStatus(method, target, resp.StatusCode); statusErr != nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
		return nil, statusErr
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RequestError{Method: method, URL: target, Err: err}
	}
	return data, nil
}

func (c *Client) do(ctx context.Context, method, target string, body []byte, contentType string) (*http.Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	var reader io.Reader = http.NoBody
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, &RequestError{Method: method, URL: target, Err: err}
	}
	if c.username != "" || c.password != "" {
		req.SetBasicAuth(c.username, c.password)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &RequestError{Method: method, URL: target, Err: err}
	}
	return resp, nil
}

// resolve 拼接 Orthanc 根地址与已转义的相对路径。
func (c *Client) resolve(relative, rawQuery string) string {
	target := c.base.String() + "/" + relative
	if rawQuery != "" {
		target += "?" + rawQuery
	}
	return target
}

func orDefault(value config.Duration, fallback time.Duration) time.Duration {
	if d := value.DurationValue(); d > 0 {
		return d
	}
	return fallback
}

func (c *Client) observe(call string, started time.Time, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		outcome = "not_found"
	default:
		outcome = "error"
	}
	c.metrics.ObserveOrigin(call, outcome, time.Since(started))
}
