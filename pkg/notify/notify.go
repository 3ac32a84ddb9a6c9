package notify

import (
	"context"
	"sync"

	"shiftpulse/config"
	"shiftpulse/internal/model"
	"shiftpulse/pkg/logger"
)

// Notifier 把催办事件送达到员工可见的渠道
type Notifier interface {
	Deliver(ctx context.Context, event model.EscalationEvent) error
}

var (
	notifier Notifier
	once     sync.Once
)

// Init 按配置选择通知渠道
func Init() {
	once.Do(func() {
		switch config.Cfg.NotifyProvider {
		case "webhook":
			notifier = NewWebhookNotifier(config.Cfg.NotifyWebhookURL, config.Cfg.NotifyWebhookSecret)
		case "mock":
			notifier = NewMockNotifier()
		default:
			logger.Logger.Warn("Unknown notify provider, falling back to mock")
			notifier = NewMockNotifier()
		}
	})
}

func GetNotifier() Notifier {
	if notifier == nil {
		panic("notifier not initialized, call notify.Init first")
	}
	return notifier
}
