package datapush

import (
	"AgroStats/src/processor"
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// 常量定义
const (
	RETRY_TIMES    = 3
	RETRY_INTERVAL = 2 * time.Second
	PUSH_TIMEOUT   = 30 * time.Second
)

// Pusher 将统计结果以JSON推送到webhook
type Pusher struct {
	webhook string
	client  *resty.Client
}

// NewPusher retry<=0 时使用 RETRY_TIMES
func NewPusher(webhook string, retry int) *Pusher {
	if retry <= 0 {
		retry = RETRY_TIMES
	}
	client := resty.New().
		SetTimeout(PUSH_TIMEOUT).
		SetHeader("Content-Type", "application/json").
		SetRetryCount(retry).
		SetRetryWaitTime(RETRY_INTERVAL).
		SetRetryMaxWaitTime(4 * RETRY_INTERVAL).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= 500
		})

	return &Pusher{webhook: webhook, client: client}
}

// Push 发送一次结果，服务端返回非2xx时报错
func (p *Pusher) Push(ctx context.Context, report *processor.Report) error {
	if report == nil {
		return fmt.Errorf("没有可推送的结果")
	}

	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(report).
		Post(p.webhook)
	if err != nil {
		return fmt.Errorf("推送结果失败: %w", err)
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("推送结果失败: %s", resp.Status())
	}
	return nil
}
