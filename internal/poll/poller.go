package poll

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"shiftpulse/internal/model"
	"shiftpulse/pkg/logger"
	"shiftpulse/pkg/metrics"
)

// Fetcher 是 poller 对上游的全部依赖，三个只读事实各一个取数操作
type Fetcher interface {
	FetchClockStatus(ctx context.Context, userID string) (model.ClockStatus, error)
	FetchBreakRequirement(ctx context.Context, userID string) (model.BreakRequirement, error)
	FetchActiveBreak(ctx context.Context, userID string) (model.ActiveBreak, error)
}

// Intervals 三个事实各自独立的轮询间隔
type Intervals struct {
	ClockStatus      time.Duration
	BreakRequirement time.Duration
	ActiveBreak      time.Duration
}

// Manager 管理每个用户的轮询会话。
// 会话在第一次读取展示状态时建立，空闲超时或显式停止时拆除，
// 拆除后不会留下任何孤儿 ticker。
type Manager struct {
	store    *Store
	fetcher  Fetcher
	interval Intervals
	idle     time.Duration

	// 每次有槽位刷新成功后回调（催办状态机挂在这里观察事实）
	onFacts func(userID string, facts model.Facts)
	// 会话拆除回调（取消该用户挂起的催办定时器）
	onStop func(userID string)

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	cancel context.CancelFunc
	// 只覆盖三个取数 goroutine；watchIdle 会在超时路径上调用
	// Stop，放进来会等自己，造成死锁
	facts sync.WaitGroup

	mu       sync.Mutex
	lastSeen time.Time
}

func NewManager(store *Store, fetcher Fetcher, interval Intervals, idle time.Duration) *Manager {
	return &Manager{
		store:    store,
		fetcher:  fetcher,
		interval: interval,
		idle:     idle,
		sessions: make(map[string]*session),
	}
}

func (m *Manager) OnFacts(fn func(userID string, facts model.Facts)) {
	m.onFacts = fn
}

func (m *Manager) OnStop(fn func(userID string)) {
	m.onStop = fn
}

// Touch 标记会话仍被前端读取，重置空闲超时；
// 会话不存在时建立一个新的
func (m *Manager) Touch(ctx context.Context, userID string) {
	m.mu.Lock()
	sess, ok := m.sessions[userID]
	if ok {
		m.mu.Unlock()
		sess.mu.Lock()
		sess.lastSeen = time.Now()
		sess.mu.Unlock()
		return
	}

	sessCtx, cancel := context.WithCancel(ctx)
	sess = &session{cancel: cancel, lastSeen: time.Now()}
	m.sessions[userID] = sess
	m.mu.Unlock()

	logger.Logger.Info("Poll session started", zap.String("user_id", userID))
	metrics.PollSessionsActive(1)

	sess.facts.Add(3)
	go m.runFact(sessCtx, sess, userID, model.FactClockStatus, m.interval.ClockStatus)
	go m.runFact(sessCtx, sess, userID, model.FactBreakRequirement, m.interval.BreakRequirement)
	go m.runFact(sessCtx, sess, userID, model.FactActiveBreak, m.interval.ActiveBreak)
	go m.watchIdle(sessCtx, userID, sess)
}

// Stop 显式拆除一个用户的会话（登出 / 离开视图）
func (m *Manager) Stop(userID string) {
	m.mu.Lock()
	sess, ok := m.sessions[userID]
	if ok {
		delete(m.sessions, userID)
	}
	m.mu.Unlock()

	if !ok {
		return
	}

	sess.cancel()
	// 必须等取数 goroutine 全部退出再丢弃槽位：它们每轮 select 都会
	// 通过 RefreshSignal/Facts 触碰 store，先 Drop 会把条目复活
	sess.facts.Wait()
	m.store.Drop(userID)
	metrics.PollSessionsActive(-1)

	if m.onStop != nil {
		m.onStop(userID)
	}

	logger.Logger.Info("Poll session stopped", zap.String("user_id", userID))
}

// StopAll 服务关停时拆除全部会话
func (m *Manager) StopAll() {
	m.mu.Lock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		m.Stop(id)
	}
}

func (m *Manager) runFact(ctx context.Context, sess *session, userID string, kind model.FactKind, interval time.Duration) {
	defer sess.facts.Done()

	// 会话一建立就取一次，不等第一个 tick
	m.fetchOnce(ctx, userID, kind)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.fetchOnce(ctx, userID, kind)
		case <-m.store.RefreshSignal(userID, kind):
			// 变更后的失效要求立即重取，不等下一个 tick
			m.fetchOnce(ctx, userID, kind)
		}
	}
}

func (m *Manager) fetchOnce(ctx context.Context, userID string, kind model.FactKind) {
	// 未打卡时抑制休息相关槽位的轮询，省掉无谓的上游负载
	if kind != model.FactClockStatus && !m.store.IsClockedIn(userID) {
		return
	}

	gen := m.store.BeginFetch(userID, kind)

	var applied bool
	switch kind {
	case model.FactClockStatus:
		v, err := m.fetcher.FetchClockStatus(ctx, userID)
		applied = m.store.CompleteClockStatus(userID, gen, v, err)
		m.logFetch(userID, kind, err)
	case model.FactBreakRequirement:
		v, err := m.fetcher.FetchBreakRequirement(ctx, userID)
		applied = m.store.CompleteBreakRequirement(userID, gen, v, err)
		m.logFetch(userID, kind, err)
	case model.FactActiveBreak:
		v, err := m.fetcher.FetchActiveBreak(ctx, userID)
		applied = m.store.CompleteActiveBreak(userID, gen, v, err)
		m.logFetch(userID, kind, err)
	}

	if applied && m.onFacts != nil {
		m.onFacts(userID, m.store.Facts(userID))
	}
}

func (m *Manager) logFetch(userID string, kind model.FactKind, err error) {
	metrics.PollCompleted(string(kind), err)
	if err != nil {
		// 失败只影响这个槽位：旧值保留，错误标记单独上报
		logger.Logger.Warn("Fact refresh failed, keeping previous value",
			zap.String("user_id", userID),
			zap.String("fact", string(kind)),
			zap.Error(err),
		)
	}
}

func (m *Manager) watchIdle(ctx context.Context, userID string, sess *session) {
	if m.idle <= 0 {
		return
	}

	ticker := time.NewTicker(m.idle / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sess.mu.Lock()
			expired := time.Since(sess.lastSeen) > m.idle
			sess.mu.Unlock()

			if expired {
				logger.Logger.Info("Poll session idle, tearing down",
					zap.String("user_id", userID),
				)
				m.Stop(userID)
				return
			}
		}
	}
}
