package cache

import (
	"context"
	"fmt"
	"time"

	"shiftpulse/storage/redis"
)

const (
	// 每用户的催办武装标记，保证多实例部署下同一用户至多一个武装定时器
	escalationArmedPrefix = "escalation:armed"
	// 催办事件消费侧的去重标记
	eventProcessedPrefix = "escalation:event:processed"

	// 武装标记 TTL 要明显长于催办延迟，防止标记先于定时器过期
	armedTTL     = 2 * time.Hour
	processedTTL = 48 * time.Hour
)

// ArmGuard 基于 redis SETNX 的跨实例武装互斥，
// 实现 escalate.ArmGuard
type ArmGuard struct{}

// TryArm 原子性地尝试武装。返回 true 表示本实例拿到了武装权，
// false 表示别的实例已经为该用户武装。
func (ArmGuard) TryArm(ctx context.Context, userID string) (bool, error) {
	key := redis.Key(escalationArmedPrefix, userID)
	ok, err := redis.Client().SetNX(ctx, key, "1", armedTTL).Result()
	if err != nil {
		return false, fmt.Errorf("failed to set arm mark: %w", err)
	}
	return ok, nil
}

// Disarm 清除武装标记（合规、豁免、推迟、会话拆除时调用）
func (ArmGuard) Disarm(ctx context.Context, userID string) error {
	key := redis.Key(escalationArmedPrefix, userID)
	if err := redis.Client().Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to clear arm mark: %w", err)
	}
	return nil
}

// TryMarkEventProcessing 尝试原子性地标记催办事件正在处理（SETNX）。
// 返回 true 表示首次处理，false 表示重复消息。
func TryMarkEventProcessing(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	key := redis.Key(eventProcessedPrefix, eventID)
	if ttl <= 0 {
		ttl = processedTTL
	}

	result, err := redis.Client().SetNX(ctx, key, "processing", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark event as processing: %w", err)
	}
	return result, nil
}

// UnmarkEventProcessing 处理失败时取消标记，允许重投后再处理
func UnmarkEventProcessing(ctx context.Context, eventID string) error {
	key := redis.Key(eventProcessedPrefix, eventID)
	return redis.Client().Del(ctx, key).Err()
}

// MarkEventProcessed 处理成功后延长标记 TTL
func MarkEventProcessed(ctx context.Context, eventID string, ttl time.Duration) error {
	key := redis.Key(eventProcessedPrefix, eventID)
	if ttl <= 0 {
		ttl = processedTTL
	}
	return redis.Client().Set(ctx, key, "completed", ttl).Err()
}
