package escalate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"shiftpulse/internal/model"
	"shiftpulse/internal/reconcile"
	"shiftpulse/pkg/logger"
	"shiftpulse/pkg/metrics"
	"shiftpulse/pkg/snowflake"
)

// State 催办状态机的三个状态
type State string

const (
	StateIdle       State = "idle"
	StateArmed      State = "armed"
	StateFollowedUp State = "followed_up"
)

// Emitter 接收催办事件，状态机不关心展示层是谁
type Emitter func(event model.EscalationEvent)

// Recheck 在定时器触发那一刻重读最新事实。
// 传函数而不是传快照：武装时捕获的事实到触发时可能早就变了。
type Recheck func(userID string) model.Facts

// ArmGuard 跨实例的"每用户至多一个武装定时器"保证，
// 典型实现是 redis SETNX 武装标记
type ArmGuard interface {
	TryArm(ctx context.Context, userID string) (bool, error)
	Disarm(ctx context.Context, userID string) error
}

// Manager 按用户维护催办状态机。
// IDLE → ARMED：首次观察到需要休息且不在休时，立即发 prompt 事件
// 并安排一次延迟复查。
// ARMED → FOLLOWED_UP：延迟到点时最新事实仍然是该休未休才触发，
// 发更紧急的 followup 事件。
// 任意 → IDLE：休息开始 / 豁免 / 推迟 / 轮询显示要求已清除，
// 同时取消挂起的定时器；取消后才触发的回调是 no-op。
// 同一用户已处于 ARMED / FOLLOWED_UP 时绝不叠加第二个定时器。
type Manager struct {
	delay   time.Duration
	emit    Emitter
	recheck Recheck
	guard   ArmGuard // 可为 nil（单实例部署 / 测试）

	mu       sync.Mutex
	sessions map[string]*userState
}

type userState struct {
	state State
	timer *time.Timer
	// 武装周期序号，复用定时器句柄导致的陈旧触发靠它识破
	cycle uint64
}

func NewManager(delay time.Duration, emit Emitter, recheck Recheck, guard ArmGuard) *Manager {
	return &Manager{
		delay:    delay,
		emit:     emit,
		recheck:  recheck,
		guard:    guard,
		sessions: make(map[string]*userState),
	}
}

// Observe 在每次事实刷新后调用，驱动状态机
func (m *Manager) Observe(userID string, facts model.Facts) {
	if reconcile.NeedsEscalation(facts.BreakRequirement, facts.ActiveBreak) {
		m.arm(userID, facts)
		return
	}

	// 要求已清除或已在休，清掉挂起的催办
	m.reset(userID, "compliance")
}

func (m *Manager) arm(userID string, facts model.Facts) {
	m.mu.Lock()

	us, ok := m.sessions[userID]
	if !ok {
		us = &userState{state: StateIdle}
		m.sessions[userID] = us
	}

	if us.state != StateIdle {
		// 已有一个武装周期在跑，不叠加
		m.mu.Unlock()
		return
	}

	// 先占住状态再放锁：guard 是一次 redis 往返，扣着锁会把
	// 所有用户的 Observe 串在一个网络调用后面
	us.state = StateArmed
	us.cycle++
	cycle := us.cycle
	m.mu.Unlock()

	if m.guard != nil {
		armed, err := m.guard.TryArm(context.Background(), userID)
		if err != nil {
			// 标记不可用时降级为本实例武装，宁可重复提醒也不漏提醒
			logger.Logger.Warn("Arm guard unavailable, arming locally",
				zap.String("user_id", userID),
				zap.Error(err),
			)
		} else if !armed {
			// 另一实例已为该用户武装，让出本次周期。
			// 标记归对方所有，回滚不碰 guard
			m.mu.Lock()
			if us.cycle == cycle && us.state == StateArmed {
				us.state = StateIdle
				us.cycle++
			}
			m.mu.Unlock()
			return
		}
	}

	m.mu.Lock()
	if us.cycle != cycle || us.state != StateArmed {
		// guard 往返期间被重置了，定时器不再需要
		m.mu.Unlock()
		return
	}
	us.timer = time.AfterFunc(m.delay, func() {
		m.fire(userID, cycle)
	})
	m.mu.Unlock()

	metrics.EscalationArmed()
	logger.Logger.Info("Break escalation armed",
		zap.String("user_id", userID),
		zap.Duration("delay", m.delay),
	)

	m.emit(m.newEvent(userID, model.StagePrompt, facts))
}

// fire 延迟复查到点。只有周期序号仍然匹配且状态仍是 ARMED 才算数，
// 否则这是一次取消之后的陈旧触发，直接无视。
func (m *Manager) fire(userID string, cycle uint64) {
	m.mu.Lock()
	us, ok := m.sessions[userID]
	if !ok || us.cycle != cycle || us.state != StateArmed {
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	// 到点时重读最新事实，不用武装时的快照
	facts := m.recheck(userID)
	if !reconcile.NeedsEscalation(facts.BreakRequirement, facts.ActiveBreak) {
		m.reset(userID, "compliance")
		return
	}

	m.mu.Lock()
	// recheck 期间可能已被重置
	if us.cycle != cycle || us.state != StateArmed {
		m.mu.Unlock()
		return
	}
	us.state = StateFollowedUp
	m.mu.Unlock()

	metrics.FollowupFired()
	logger.Logger.Info("Break escalation follow-up fired",
		zap.String("user_id", userID),
	)

	m.emit(m.newEvent(userID, model.StageFollowup, facts))
}

// Reset 由动作层调用：休息开始 / 豁免 / 推迟都会把状态机清回 IDLE
func (m *Manager) Reset(userID string, cause string) {
	m.reset(userID, cause)
}

func (m *Manager) reset(userID string, cause string) {
	m.mu.Lock()
	us, ok := m.sessions[userID]
	if !ok || us.state == StateIdle {
		m.mu.Unlock()
		return
	}

	if us.timer != nil {
		us.timer.Stop()
		us.timer = nil
	}
	us.state = StateIdle
	us.cycle++ // 作废在途的陈旧触发
	m.mu.Unlock()

	if m.guard != nil {
		if err := m.guard.Disarm(context.Background(), userID); err != nil {
			logger.Logger.Warn("Failed to clear arm mark",
				zap.String("user_id", userID),
				zap.Error(err),
			)
		}
	}

	metrics.EscalationReset(cause)
	logger.Logger.Info("Break escalation reset",
		zap.String("user_id", userID),
		zap.String("cause", cause),
	)
}

// Forget 会话拆除时清理该用户的状态机
func (m *Manager) Forget(userID string) {
	m.reset(userID, "session_stopped")

	m.mu.Lock()
	delete(m.sessions, userID)
	m.mu.Unlock()
}

// StateOf 当前状态，IDLE 表示没有挂起的催办
func (m *Manager) StateOf(userID string) State {
	m.mu.Lock()
	defer m.mu.Unlock()

	if us, ok := m.sessions[userID]; ok {
		return us.state
	}
	return StateIdle
}

func (m *Manager) newEvent(userID string, stage model.EscalationStage, facts model.Facts) model.EscalationEvent {
	var eventID string
	if id, err := snowflake.NextID(); err == nil {
		eventID = fmt.Sprintf("esc_%d", id)
	} else {
		eventID = "esc_" + uuid.NewString()
	}

	return model.EscalationEvent{
		EventID:     eventID,
		UserID:      userID,
		Stage:       stage,
		BreakType:   facts.BreakRequirement.BreakType,
		Reason:      facts.BreakRequirement.Reason,
		HoursWorked: facts.BreakRequirement.HoursWorked,
		EmittedAt:   time.Now().Format(time.RFC3339),
	}
}
