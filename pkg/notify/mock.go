package notify

import (
	"context"

	"go.uber.org/zap"

	"shiftpulse/internal/model"
	"shiftpulse/pkg/logger"
)

// MockNotifier 只打日志，开发和测试环境用
type MockNotifier struct{}

func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

func (n *MockNotifier) Deliver(_ context.Context, event model.EscalationEvent) error {
	logger.Logger.Info("[MOCK] Escalation notification",
		zap.String("event_id", event.EventID),
		zap.String("user_id", event.UserID),
		zap.String("stage", string(event.Stage)),
		zap.String("break_type", string(event.BreakType)),
		zap.String("reason", event.Reason),
	)
	return nil
}
