package remote

import (
	"AgroStats/src/processor"
	"AgroStats/src/utils"
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// HTTPSource 通过HTTP拉取JSON数据集
type HTTPSource struct {
	URL     string
	Charset string
	client  *resty.Client
}

func NewHTTPSource(url, charset string, timeout time.Duration) *HTTPSource {
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	return &HTTPSource{
		URL:     url,
		Charset: charset,
		client:  client,
	}
}

func (s *HTTPSource) String() string { return s.URL }

// Fetch 非2xx状态码或非JSON响应都视为失败
func (s *HTTPSource) Fetch(ctx context.Context) ([]processor.RawRecord, error) {
	resp, err := s.client.R().SetContext(ctx).Get(s.URL)
	if err != nil {
		return nil, fmt.Errorf("请求数据集失败: %w", err)
	}

	if !resp.IsSuccess() {
		return nil, fmt.Errorf("failed to load JSON data: %s", resp.Status())
	}

	contentType := resp.Header().Get("Content-Type")
	if !strings.Contains(contentType, "application/json") {
		return nil, fmt.Errorf("expected JSON, but received %q", contentType)
	}

	r, err := utils.NewCharsetReader(bytes.NewReader(resp.Body()), s.Charset)
	if err != nil {
		return nil, err
	}
	return processor.DecodeRawRecords(r)
}
