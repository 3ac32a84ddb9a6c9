package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"shiftpulse/internal/cache"
	"shiftpulse/internal/model"
	"shiftpulse/pkg/errors"
	"shiftpulse/pkg/logger"
	"shiftpulse/storage/mq"
)

// Notifier 由 worker 启动时注入，消费者只负责去重和转交
type Notifier interface {
	Deliver(ctx context.Context, event model.EscalationEvent) error
}

var notifier Notifier

func SetNotifier(n Notifier) {
	notifier = n
}

func handleEscalationEvent(ctx context.Context, body []byte) error {
	var event model.EscalationEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("failed to unmarshal escalation event: %w", err)
	}

	// 幂等检查：SETNX 标记，重复消息直接跳过
	first, err := cache.TryMarkEventProcessing(ctx, event.EventID, 24*time.Hour)
	if err != nil {
		logger.Logger.Warn("Failed to check event processed status",
			zap.String("event_id", event.EventID),
			zap.Error(err),
		)
		// 检查失败时继续处理，宁可重复投递也不丢催办
	} else if !first {
		return &errors.SkipMessageError{Reason: fmt.Sprintf("Event %s already processed", event.EventID)}
	}

	logger.Logger.Info("Processing escalation event",
		zap.String("event_id", event.EventID),
		zap.String("user_id", event.UserID),
		zap.String("stage", string(event.Stage)),
	)

	if notifier == nil {
		return fmt.Errorf("notifier not configured, call SetNotifier first")
	}

	if err := notifier.Deliver(ctx, event); err != nil {
		// 投递失败取消标记，允许重试
		if unmarkErr := cache.UnmarkEventProcessing(ctx, event.EventID); unmarkErr != nil {
			logger.Logger.Warn("Failed to unmark event after delivery failure",
				zap.String("event_id", event.EventID),
				zap.Error(unmarkErr),
			)
		}
		return fmt.Errorf("failed to deliver escalation event: %w", err)
	}

	if err := cache.MarkEventProcessed(ctx, event.EventID, 48*time.Hour); err != nil {
		logger.Logger.Warn("Failed to mark event as processed",
			zap.String("event_id", event.EventID),
			zap.Error(err),
		)
	}

	return nil
}

// StartPromptConsumer 消费首次提示事件
func StartPromptConsumer(ctx context.Context) error {
	return mq.Consume(mq.ConsumeOptions{
		Queue:         mq.PromptQueue,
		ConsumerTag:   "break_prompt_consumer",
		PrefetchCount: 10,
		Handler: func(body []byte) error {
			return handleEscalationEvent(ctx, body)
		},
	})
}

// StartFollowupConsumer 消费跟进事件
func StartFollowupConsumer(ctx context.Context) error {
	return mq.Consume(mq.ConsumeOptions{
		Queue:         mq.FollowupQueue,
		ConsumerTag:   "break_followup_consumer",
		PrefetchCount: 10,
		Handler: func(body []byte) error {
			return handleEscalationEvent(ctx, body)
		},
	})
}

// StartAllConsumers 启动全部消费者，各自独立 goroutine
func StartAllConsumers(ctx context.Context) {
	go func() {
		if err := StartPromptConsumer(ctx); err != nil {
			logger.Logger.Error("Prompt consumer exited", zap.Error(err))
		}
	}()

	go func() {
		if err := StartFollowupConsumer(ctx); err != nil {
			logger.Logger.Error("Followup consumer exited", zap.Error(err))
		}
	}()

	<-ctx.Done()
}
