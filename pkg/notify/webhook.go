package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	hzclient "github.com/cloudwego/hertz/pkg/app/client"
	"github.com/cloudwego/hertz/pkg/protocol"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"go.uber.org/zap"

	"shiftpulse/internal/model"
	"shiftpulse/pkg/logger"
)

// WebhookNotifier 把事件 POST 到客户配置的回调地址，
// 带共享密钥头，由接收方决定落到推送、工牌屏还是主管群。
type WebhookNotifier struct {
	cli    *hzclient.Client
	url    string
	secret string
}

func NewWebhookNotifier(url, secret string) *WebhookNotifier {
	cli, err := hzclient.NewClient(
		hzclient.WithDialTimeout(5 * time.Second),
	)
	if err != nil {
		// NewClient 只在选项非法时报错，这里的选项是固定的
		panic(fmt.Sprintf("failed to create webhook client: %v", err))
	}
	return &WebhookNotifier{cli: cli, url: url, secret: secret}
}

func (n *WebhookNotifier) Deliver(ctx context.Context, event model.EscalationEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal escalation event: %w", err)
	}

	req := &protocol.Request{}
	res := &protocol.Response{}
	req.SetMethod(consts.MethodPost)
	req.SetRequestURI(n.url)
	req.SetHeader("Content-Type", "application/json")
	if n.secret != "" {
		req.SetHeader("X-Webhook-Secret", n.secret)
	}
	req.SetBody(payload)

	callCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := n.cli.Do(callCtx, req, res); err != nil {
		return fmt.Errorf("failed to deliver webhook: %w", err)
	}
	if res.StatusCode() < 200 || res.StatusCode() >= 300 {
		return fmt.Errorf("webhook endpoint returned status %d", res.StatusCode())
	}

	logger.Logger.Info("Escalation delivered",
		zap.String("event_id", event.EventID),
		zap.String("user_id", event.UserID),
		zap.String("stage", string(event.Stage)),
	)
	return nil
}
