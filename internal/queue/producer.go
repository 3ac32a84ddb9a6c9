package queue

import (
	"go.uber.org/zap"

	"shiftpulse/internal/model"
	"shiftpulse/pkg/logger"
	"shiftpulse/storage/mq"
)

// PublishEscalationEvent 把催办事件投到考勤事件交换机。
// 路由键按阶段区分，展示层想只订阅 followup 也可以。
func PublishEscalationEvent(event model.EscalationEvent) error {
	routingKey := mq.PromptQueue
	if event.Stage == model.StageFollowup {
		routingKey = mq.FollowupQueue
	}

	if err := mq.PublishMessage(mq.EventsExchange, routingKey, event); err != nil {
		logger.Logger.Error("Failed to publish escalation event",
			zap.String("event_id", event.EventID),
			zap.String("user_id", event.UserID),
			zap.String("stage", string(event.Stage)),
			zap.Error(err),
		)
		return err
	}

	logger.Logger.Info("Published escalation event",
		zap.String("event_id", event.EventID),
		zap.String("user_id", event.UserID),
		zap.String("stage", string(event.Stage)),
	)

	return nil
}
