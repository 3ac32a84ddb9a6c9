package escalate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"shiftpulse/internal/model"
)

type eventSink struct {
	mu     sync.Mutex
	events []model.EscalationEvent
}

func (s *eventSink) emit(e model.EscalationEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *eventSink) stages() []model.EscalationStage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.EscalationStage, len(s.events))
	for i, e := range s.events {
		out[i] = e.Stage
	}
	return out
}

type factSource struct {
	mu    sync.Mutex
	facts model.Facts
}

func (f *factSource) set(facts model.Facts) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.facts = facts
}

func (f *factSource) get(userID string) model.Facts {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.facts
}

func requiredFacts() model.Facts {
	return model.Facts{
		ClockStatus:      model.ClockStatus{IsClockedIn: true},
		BreakRequirement: model.BreakRequirement{RequiresBreak: true, HoursWorked: 5, BreakType: model.BreakTypeLunch},
	}
}

func compliantFacts() model.Facts {
	return model.Facts{
		ClockStatus: model.ClockStatus{IsClockedIn: true},
		ActiveBreak: model.ActiveBreak{HasActiveBreak: true, Break: &model.BreakRecord{ID: "b1"}},
	}
}

func TestArmEmitsPromptOnceWithoutStacking(t *testing.T) {
	sink := &eventSink{}
	src := &factSource{}
	src.set(requiredFacts())

	m := NewManager(time.Hour, sink.emit, src.get, nil)

	m.Observe("u1", requiredFacts())
	m.Observe("u1", requiredFacts())
	m.Observe("u1", requiredFacts())

	if got := m.StateOf("u1"); got != StateArmed {
		t.Fatalf("state = %q, want %q", got, StateArmed)
	}

	stages := sink.stages()
	if len(stages) != 1 || stages[0] != model.StagePrompt {
		t.Fatalf("stages = %v, want exactly one prompt", stages)
	}
}

func TestFollowupFiresWhenStillRequired(t *testing.T) {
	sink := &eventSink{}
	src := &factSource{}
	src.set(requiredFacts())

	m := NewManager(30*time.Millisecond, sink.emit, src.get, nil)
	m.Observe("u1", requiredFacts())

	time.Sleep(150 * time.Millisecond)

	stages := sink.stages()
	if len(stages) != 2 || stages[1] != model.StageFollowup {
		t.Fatalf("stages = %v, want prompt then followup", stages)
	}
	if got := m.StateOf("u1"); got != StateFollowedUp {
		t.Fatalf("state = %q, want %q", got, StateFollowedUp)
	}
}

func TestComplianceBeforeDelayPreventsFollowup(t *testing.T) {
	sink := &eventSink{}
	src := &factSource{}
	src.set(requiredFacts())

	m := NewManager(50*time.Millisecond, sink.emit, src.get, nil)
	m.Observe("u1", requiredFacts())

	// 延迟到点之前观察到合规
	src.set(compliantFacts())
	m.Observe("u1", compliantFacts())

	if got := m.StateOf("u1"); got != StateIdle {
		t.Fatalf("state after compliance = %q, want %q", got, StateIdle)
	}

	time.Sleep(150 * time.Millisecond)

	stages := sink.stages()
	if len(stages) != 1 || stages[0] != model.StagePrompt {
		t.Fatalf("stages = %v, follow-up must never appear after compliance", stages)
	}
}

func TestRecheckReadsLatestFactsAtFireTime(t *testing.T) {
	sink := &eventSink{}
	src := &factSource{}
	src.set(requiredFacts())

	m := NewManager(30*time.Millisecond, sink.emit, src.get, nil)
	m.Observe("u1", requiredFacts())

	// 状态机内部没有收到 Observe，但到点复查必须看到最新事实
	src.set(compliantFacts())

	time.Sleep(150 * time.Millisecond)

	stages := sink.stages()
	if len(stages) != 1 {
		t.Fatalf("stages = %v, stale armed-time snapshot must not trigger followup", stages)
	}
	if got := m.StateOf("u1"); got != StateIdle {
		t.Fatalf("state = %q, want %q after fire-time compliance", got, StateIdle)
	}
}

func TestResetThenRearmUsesFreshWindow(t *testing.T) {
	sink := &eventSink{}
	src := &factSource{}
	src.set(requiredFacts())

	m := NewManager(60*time.Millisecond, sink.emit, src.get, nil)

	m.Observe("u1", requiredFacts())
	m.Reset("u1", "waived")

	if got := m.StateOf("u1"); got != StateIdle {
		t.Fatalf("state after reset = %q, want %q", got, StateIdle)
	}

	// 重新进入条件：新的独立延迟窗口，不复用旧句柄
	m.Observe("u1", requiredFacts())
	if got := m.StateOf("u1"); got != StateArmed {
		t.Fatalf("state after re-arm = %q, want %q", got, StateArmed)
	}

	time.Sleep(200 * time.Millisecond)

	stages := sink.stages()
	// prompt, prompt, followup —— 第一个周期被取消，只有第二个到点
	if len(stages) != 3 || stages[0] != model.StagePrompt || stages[1] != model.StagePrompt || stages[2] != model.StageFollowup {
		t.Fatalf("stages = %v, want two prompts and one followup", stages)
	}
}

func TestForgetCancelsPendingTimer(t *testing.T) {
	sink := &eventSink{}
	src := &factSource{}
	src.set(requiredFacts())

	m := NewManager(30*time.Millisecond, sink.emit, src.get, nil)
	m.Observe("u1", requiredFacts())
	m.Forget("u1")

	time.Sleep(120 * time.Millisecond)

	if stages := sink.stages(); len(stages) != 1 {
		t.Fatalf("stages = %v, fired callback after teardown must be a no-op", stages)
	}
}

// gateGuard 让指定用户的 TryArm 卡在一次"网络往返"里，其余用户即刻放行
type gateGuard struct {
	gate     chan struct{}
	slowUser string
}

func (g *gateGuard) TryArm(ctx context.Context, userID string) (bool, error) {
	if userID == g.slowUser {
		<-g.gate
	}
	return true, nil
}

func (g *gateGuard) Disarm(ctx context.Context, userID string) error { return nil }

type denyGuard struct{}

func (denyGuard) TryArm(ctx context.Context, userID string) (bool, error) { return false, nil }
func (denyGuard) Disarm(ctx context.Context, userID string) error         { return nil }

type errGuard struct{}

func (errGuard) TryArm(ctx context.Context, userID string) (bool, error) {
	return false, errors.New("redis down")
}
func (errGuard) Disarm(ctx context.Context, userID string) error { return nil }

func TestSlowGuardDoesNotBlockOtherUsers(t *testing.T) {
	sink := &eventSink{}
	src := &factSource{}
	src.set(requiredFacts())

	guard := &gateGuard{gate: make(chan struct{}), slowUser: "slow"}
	m := NewManager(time.Hour, sink.emit, src.get, guard)

	go m.Observe("slow", requiredFacts())
	time.Sleep(20 * time.Millisecond) // 让 slow 进入 guard 往返

	done := make(chan struct{})
	go func() {
		m.Observe("fast", requiredFacts())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(300 * time.Millisecond):
		t.Fatal("one user's guard roundtrip must not stall other users")
	}

	close(guard.gate)
	time.Sleep(50 * time.Millisecond)

	if m.StateOf("slow") != StateArmed {
		t.Fatalf("slow user state = %q, want %q", m.StateOf("slow"), StateArmed)
	}
	if m.StateOf("fast") != StateArmed {
		t.Fatalf("fast user state = %q, want %q", m.StateOf("fast"), StateArmed)
	}
}

func TestGuardDenialYieldsCycleWithoutEvents(t *testing.T) {
	sink := &eventSink{}
	src := &factSource{}
	src.set(requiredFacts())

	m := NewManager(time.Hour, sink.emit, src.get, denyGuard{})
	m.Observe("u1", requiredFacts())

	// 标记归另一实例所有：本实例让出周期，不发事件
	if got := m.StateOf("u1"); got != StateIdle {
		t.Fatalf("state = %q, want %q when another instance holds the mark", got, StateIdle)
	}
	if stages := sink.stages(); len(stages) != 0 {
		t.Fatalf("stages = %v, want none", stages)
	}
}

func TestGuardErrorDegradesToLocalArm(t *testing.T) {
	sink := &eventSink{}
	src := &factSource{}
	src.set(requiredFacts())

	m := NewManager(time.Hour, sink.emit, src.get, errGuard{})
	m.Observe("u1", requiredFacts())

	if got := m.StateOf("u1"); got != StateArmed {
		t.Fatalf("state = %q, want %q when the guard is unavailable", got, StateArmed)
	}
	stages := sink.stages()
	if len(stages) != 1 || stages[0] != model.StagePrompt {
		t.Fatalf("stages = %v, want exactly one prompt", stages)
	}
}

func TestUsersAreIndependent(t *testing.T) {
	sink := &eventSink{}
	src := &factSource{}
	src.set(requiredFacts())

	m := NewManager(time.Hour, sink.emit, src.get, nil)
	m.Observe("u1", requiredFacts())
	m.Observe("u2", requiredFacts())

	if m.StateOf("u1") != StateArmed || m.StateOf("u2") != StateArmed {
		t.Fatal("both users should be independently armed")
	}

	m.Reset("u1", "declined")
	if m.StateOf("u1") != StateIdle {
		t.Fatal("u1 should be idle after reset")
	}
	if m.StateOf("u2") != StateArmed {
		t.Fatal("resetting u1 must not touch u2")
	}
}
