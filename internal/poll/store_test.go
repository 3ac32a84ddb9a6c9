package poll

import (
	"fmt"
	"testing"

	"shiftpulse/internal/model"
)

func TestStoreKeepsPreviousValueOnFetchError(t *testing.T) {
	s := NewStore()

	gen := s.BeginFetch("u1", model.FactBreakRequirement)
	if !s.CompleteBreakRequirement("u1", gen, model.BreakRequirement{RequiresBreak: true, HoursWorked: 5}, nil) {
		t.Fatal("first completion should be applied")
	}

	gen = s.BeginFetch("u1", model.FactBreakRequirement)
	if !s.CompleteBreakRequirement("u1", gen, model.BreakRequirement{}, fmt.Errorf("upstream down")) {
		t.Fatal("errored completion should still be recorded")
	}

	facts := s.Facts("u1")
	if !facts.BreakRequirement.RequiresBreak || facts.BreakRequirement.HoursWorked != 5 {
		t.Fatalf("previous good value must survive a fetch error, got %+v", facts.BreakRequirement)
	}
	if !facts.Errors[model.FactBreakRequirement] {
		t.Fatal("errored slot must be flagged")
	}

	// 其他槽位不受影响
	if facts.Errors[model.FactClockStatus] || facts.Errors[model.FactActiveBreak] {
		t.Fatal("error flag must be scoped to the failing slot")
	}
}

func TestStoreErrorFlagClearsOnNextSuccess(t *testing.T) {
	s := NewStore()

	gen := s.BeginFetch("u1", model.FactClockStatus)
	s.CompleteClockStatus("u1", gen, model.ClockStatus{}, fmt.Errorf("timeout"))
	if !s.Facts("u1").Errors[model.FactClockStatus] {
		t.Fatal("expected error flag after failed fetch")
	}

	gen = s.BeginFetch("u1", model.FactClockStatus)
	s.CompleteClockStatus("u1", gen, model.ClockStatus{IsClockedIn: true}, nil)

	facts := s.Facts("u1")
	if facts.Errors[model.FactClockStatus] {
		t.Fatal("error flag must clear after a successful fetch")
	}
	if !facts.ClockStatus.IsClockedIn {
		t.Fatal("new value must be applied")
	}
}

func TestStoreDiscardsStaleInFlightCompletion(t *testing.T) {
	s := NewStore()

	// 取数发起
	gen := s.BeginFetch("u1", model.FactActiveBreak)

	// 取数在途期间动作成功，槽位失效
	s.Invalidate("u1", model.FactActiveBreak)

	// 在途响应落地：必须被丢弃
	stale := model.ActiveBreak{HasActiveBreak: true}
	if s.CompleteActiveBreak("u1", gen, stale, nil) {
		t.Fatal("completion from before the invalidation must be discarded")
	}
	if s.Facts("u1").ActiveBreak.HasActiveBreak {
		t.Fatal("stale value must not be visible")
	}

	// 失效后的新一轮取数正常落地
	gen = s.BeginFetch("u1", model.FactActiveBreak)
	if !s.CompleteActiveBreak("u1", gen, model.ActiveBreak{}, nil) {
		t.Fatal("post-invalidation fetch must be applied")
	}
}

func TestStoreInvalidateSignalsRefresh(t *testing.T) {
	s := NewStore()

	s.Invalidate("u1", model.FactClockStatus, model.FactBreakRequirement)

	select {
	case <-s.RefreshSignal("u1", model.FactClockStatus):
	default:
		t.Fatal("expected refresh signal for clock status")
	}
	select {
	case <-s.RefreshSignal("u1", model.FactBreakRequirement):
	default:
		t.Fatal("expected refresh signal for break requirement")
	}
	select {
	case <-s.RefreshSignal("u1", model.FactActiveBreak):
		t.Fatal("active break was not invalidated, no signal expected")
	default:
	}
}

func TestStoreRepeatedInvalidateNeverBlocks(t *testing.T) {
	s := NewStore()
	// 无人消费提示通道时连续失效也不能卡住
	for i := 0; i < 10; i++ {
		s.Invalidate("u1", model.FactClockStatus)
	}
}

func TestStoreIsolatesUsers(t *testing.T) {
	s := NewStore()

	gen := s.BeginFetch("alice", model.FactClockStatus)
	s.CompleteClockStatus("alice", gen, model.ClockStatus{IsClockedIn: true}, nil)

	if s.Facts("bob").ClockStatus.IsClockedIn {
		t.Fatal("bob must not see alice's clock status")
	}
	if !s.IsClockedIn("alice") {
		t.Fatal("alice's status lost")
	}
}

func TestStoreDropClearsState(t *testing.T) {
	s := NewStore()

	gen := s.BeginFetch("u1", model.FactClockStatus)
	s.CompleteClockStatus("u1", gen, model.ClockStatus{IsClockedIn: true}, nil)

	s.Drop("u1")

	if s.Facts("u1").ClockStatus.IsClockedIn {
		t.Fatal("dropped user must start from zero values")
	}
}
