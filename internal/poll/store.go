package poll

import (
	"sync"
	"time"

	"shiftpulse/internal/model"
)

// Store 持有每个用户三个事实槽位的最新值。
// 槽位严格按用户 ID 隔离，换一个登录身份绝不会读到别人的缓存。
//
// 每个槽位带一个取数代数（generation）：变更成功后的失效会把代数
// +1，比它更早发起、还在途中的轮询响应落地时会被丢弃，避免把
// 变更前的状态当成最新状态展示。
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

type entry struct {
	mu sync.RWMutex

	slots map[model.FactKind]*slot
}

type slot struct {
	clock  model.ClockStatus
	req    model.BreakRequirement
	active model.ActiveBreak

	gen       uint64
	errored   bool
	fetchedAt time.Time

	// 失效后提示 poller 立即重新取数，缓冲 1，发送永不阻塞
	refresh chan struct{}
}

func NewStore() *Store {
	return &Store{
		entries: make(map[string]*entry),
	}
}

func (s *Store) getOrCreate(userID string) *entry {
	s.mu.RLock()
	e, ok := s.entries[userID]
	s.mu.RUnlock()
	if ok {
		return e
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok = s.entries[userID]; ok {
		return e
	}

	e = &entry{slots: map[model.FactKind]*slot{
		model.FactClockStatus:      {refresh: make(chan struct{}, 1)},
		model.FactBreakRequirement: {refresh: make(chan struct{}, 1)},
		model.FactActiveBreak:      {refresh: make(chan struct{}, 1)},
	}}
	s.entries[userID] = e
	return e
}

// BeginFetch 记录一次取数的起始代数，Complete 时校验
func (s *Store) BeginFetch(userID string, kind model.FactKind) uint64 {
	e := s.getOrCreate(userID)
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.slots[kind].gen
}

// CompleteClockStatus 落地一次 clock status 取数结果。
// 取数失败时保留上一次的好值，只把该槽位标记为 errored；
// 代数已前进（取数期间发生过失效）时丢弃结果并返回 false。
func (s *Store) CompleteClockStatus(userID string, gen uint64, v model.ClockStatus, fetchErr error) bool {
	return s.complete(userID, model.FactClockStatus, gen, fetchErr, func(sl *slot) {
		sl.clock = v
	})
}

func (s *Store) CompleteBreakRequirement(userID string, gen uint64, v model.BreakRequirement, fetchErr error) bool {
	return s.complete(userID, model.FactBreakRequirement, gen, fetchErr, func(sl *slot) {
		sl.req = v
	})
}

func (s *Store) CompleteActiveBreak(userID string, gen uint64, v model.ActiveBreak, fetchErr error) bool {
	return s.complete(userID, model.FactActiveBreak, gen, fetchErr, func(sl *slot) {
		sl.active = v
	})
}

func (s *Store) complete(userID string, kind model.FactKind, gen uint64, fetchErr error, apply func(*slot)) bool {
	e := s.getOrCreate(userID)
	e.mu.Lock()
	defer e.mu.Unlock()

	sl := e.slots[kind]
	if sl.gen != gen {
		// 响应发起后发生过失效，丢弃
		return false
	}

	if fetchErr != nil {
		sl.errored = true
		return true
	}

	apply(sl)
	sl.errored = false
	sl.fetchedAt = time.Now()
	return true
}

// Invalidate 使指定槽位失效：代数 +1 并提示 poller 立即重取
func (s *Store) Invalidate(userID string, kinds ...model.FactKind) {
	e := s.getOrCreate(userID)
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, kind := range kinds {
		sl := e.slots[kind]
		sl.gen++
		select {
		case sl.refresh <- struct{}{}:
		default:
		}
	}
}

// RefreshSignal 返回指定槽位的立即重取提示通道
func (s *Store) RefreshSignal(userID string, kind model.FactKind) <-chan struct{} {
	e := s.getOrCreate(userID)
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.slots[kind].refresh
}

// Facts 返回某用户三个槽位的当前快照，任何槽位可错可旧，互不阻塞
func (s *Store) Facts(userID string) model.Facts {
	e := s.getOrCreate(userID)
	e.mu.RLock()
	defer e.mu.RUnlock()

	facts := model.Facts{
		ClockStatus:      e.slots[model.FactClockStatus].clock,
		BreakRequirement: e.slots[model.FactBreakRequirement].req,
		ActiveBreak:      e.slots[model.FactActiveBreak].active,
	}

	for kind, sl := range e.slots {
		if sl.errored {
			if facts.Errors == nil {
				facts.Errors = make(map[model.FactKind]bool, 3)
			}
			facts.Errors[kind] = true
		}
	}

	return facts
}

// IsClockedIn 快捷读取，poller 用它决定是否抑制另外两个槽位的轮询
func (s *Store) IsClockedIn(userID string) bool {
	e := s.getOrCreate(userID)
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.slots[model.FactClockStatus].clock.IsClockedIn
}

// Drop 会话拆除时清掉该用户的全部槽位
func (s *Store) Drop(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, userID)
}
