package service

import (
	"context"
	"testing"
	"time"

	"shiftpulse/internal/escalate"
	"shiftpulse/internal/model"
	"shiftpulse/internal/poll"
	"shiftpulse/pkg/errors"
)

// fakeUpstream 记录每个变更调用的次数，按需返回预设错误
type fakeUpstream struct {
	startBreaks  int
	endBreaks    int
	waives       int
	declines     int
	clockIns     int
	clockOuts    int
	lastClockIn  model.ClockInRequest
	lastClockOut model.ClockOutRequest
	failWith     error
}

func (f *fakeUpstream) FetchClockStatus(ctx context.Context, userID string) (model.ClockStatus, error) {
	return model.ClockStatus{}, nil
}

func (f *fakeUpstream) FetchBreakRequirement(ctx context.Context, userID string) (model.BreakRequirement, error) {
	return model.BreakRequirement{}, nil
}

func (f *fakeUpstream) FetchActiveBreak(ctx context.Context, userID string) (model.ActiveBreak, error) {
	return model.ActiveBreak{}, nil
}

func (f *fakeUpstream) StartBreak(ctx context.Context, userID string, req model.StartBreakRequest) error {
	f.startBreaks++
	return f.failWith
}

func (f *fakeUpstream) EndBreak(ctx context.Context, userID, breakID string) error {
	f.endBreaks++
	return f.failWith
}

func (f *fakeUpstream) WaiveBreak(ctx context.Context, userID, reason string) error {
	f.waives++
	return f.failWith
}

func (f *fakeUpstream) DeclineReminder(ctx context.Context, userID, reason string) error {
	f.declines++
	return f.failWith
}

func (f *fakeUpstream) ClockIn(ctx context.Context, userID string, req model.ClockInRequest) (model.ClockResult, error) {
	f.clockIns++
	f.lastClockIn = req
	return model.ClockResult{}, f.failWith
}

func (f *fakeUpstream) ClockOut(ctx context.Context, userID string, req model.ClockOutRequest) (model.ClockResult, error) {
	f.clockOuts++
	f.lastClockOut = req
	return model.ClockResult{DurationHours: 8.5}, f.failWith
}

func newTestService(up *fakeUpstream) (*AttendanceService, *poll.Store) {
	store := poll.NewStore()
	return NewAttendanceService(up, store, nil, nil), store
}

// pendingRefresh 检查某槽位是否收到了立即重取提示
func pendingRefresh(store *poll.Store, userID string, kind model.FactKind) bool {
	select {
	case <-store.RefreshSignal(userID, kind):
		return true
	default:
		return false
	}
}

func TestWaiveBreakRejectsBlankReasonWithoutNetworkCall(t *testing.T) {
	up := &fakeUpstream{}
	svc, _ := newTestService(up)

	for _, reason := range []string{"", "   ", "\t\n"} {
		err := svc.WaiveBreak(context.Background(), "u1", reason)
		if err != errors.ReasonRequired {
			t.Fatalf("reason %q: expected ReasonRequired, got %v", reason, err)
		}
	}
	if up.waives != 0 {
		t.Fatalf("expected no upstream calls for blank reasons, got %d", up.waives)
	}
}

func TestDeclineReminderRejectsBlankReason(t *testing.T) {
	up := &fakeUpstream{}
	svc, _ := newTestService(up)

	if err := svc.DeclineReminder(context.Background(), "u1", "  "); err != errors.ReasonRequired {
		t.Fatalf("expected ReasonRequired, got %v", err)
	}
	if up.declines != 0 {
		t.Fatalf("expected no upstream call, got %d", up.declines)
	}
}

func TestEndBreakWithoutIDFailsLocally(t *testing.T) {
	up := &fakeUpstream{}
	svc, _ := newTestService(up)

	if err := svc.EndBreak(context.Background(), "u1", ""); err != errors.BreakIDRequired {
		t.Fatalf("expected BreakIDRequired, got %v", err)
	}
	if err := svc.EndBreak(context.Background(), "u1", "  "); err != errors.BreakIDRequired {
		t.Fatalf("expected BreakIDRequired for whitespace id, got %v", err)
	}
	if up.endBreaks != 0 {
		t.Fatalf("expected no upstream call, got %d", up.endBreaks)
	}
}

func TestStartBreakValidatesBreakType(t *testing.T) {
	up := &fakeUpstream{}
	svc, _ := newTestService(up)

	err := svc.StartBreak(context.Background(), "u1", model.StartBreakRequest{BreakType: "nap"})
	if err != errors.BreakTypeInvalid {
		t.Fatalf("expected BreakTypeInvalid, got %v", err)
	}
	if up.startBreaks != 0 {
		t.Fatalf("expected no upstream call, got %d", up.startBreaks)
	}
}

func TestStartBreakInvalidatesAllThreeFacts(t *testing.T) {
	up := &fakeUpstream{}
	svc, store := newTestService(up)

	if err := svc.StartBreak(context.Background(), "u1", model.StartBreakRequest{BreakType: model.BreakTypeLunch}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if up.startBreaks != 1 {
		t.Fatalf("expected exactly one upstream call, got %d", up.startBreaks)
	}

	for _, kind := range []model.FactKind{model.FactClockStatus, model.FactBreakRequirement, model.FactActiveBreak} {
		if !pendingRefresh(store, "u1", kind) {
			t.Fatalf("expected %s to be invalidated", kind)
		}
	}
}

func TestWaiveBreakInvalidatesRequirementAndActiveOnly(t *testing.T) {
	up := &fakeUpstream{}
	svc, store := newTestService(up)

	if err := svc.WaiveBreak(context.Background(), "u1", "doctor approved skip"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !pendingRefresh(store, "u1", model.FactBreakRequirement) {
		t.Fatal("expected break requirement to be invalidated")
	}
	if !pendingRefresh(store, "u1", model.FactActiveBreak) {
		t.Fatal("expected active break to be invalidated")
	}
	if pendingRefresh(store, "u1", model.FactClockStatus) {
		t.Fatal("clock status must not be invalidated by a waive")
	}
}

func TestDeclineReminderInvalidatesRequirementOnly(t *testing.T) {
	up := &fakeUpstream{}
	svc, store := newTestService(up)

	if err := svc.DeclineReminder(context.Background(), "u1", "busy with customer"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !pendingRefresh(store, "u1", model.FactBreakRequirement) {
		t.Fatal("expected break requirement to be invalidated")
	}
	if pendingRefresh(store, "u1", model.FactActiveBreak) {
		t.Fatal("active break must not be invalidated by a decline")
	}
	if pendingRefresh(store, "u1", model.FactClockStatus) {
		t.Fatal("clock status must not be invalidated by a decline")
	}
}

func TestActionFailureSkipsInvalidation(t *testing.T) {
	up := &fakeUpstream{failWith: errors.NoEligibleShift}
	svc, store := newTestService(up)

	_, err := svc.ClockIn(context.Background(), "u1", model.ClockInRequest{Method: model.ClockMethodPortal})
	if err != errors.NoEligibleShift {
		t.Fatalf("expected upstream error passthrough, got %v", err)
	}

	for _, kind := range []model.FactKind{model.FactClockStatus, model.FactBreakRequirement, model.FactActiveBreak} {
		if pendingRefresh(store, "u1", kind) {
			t.Fatalf("failed action must not invalidate %s", kind)
		}
	}
}

func TestClockInValidatesMethod(t *testing.T) {
	up := &fakeUpstream{}
	svc, _ := newTestService(up)

	if _, err := svc.ClockIn(context.Background(), "u1", model.ClockInRequest{Method: "badge"}); err != errors.ClockMethodInvalid {
		t.Fatalf("expected ClockMethodInvalid, got %v", err)
	}
	if up.clockIns != 0 {
		t.Fatalf("expected no upstream call, got %d", up.clockIns)
	}
}

func TestSuccessfulActionsResetEscalation(t *testing.T) {
	up := &fakeUpstream{}
	store := poll.NewStore()

	required := model.Facts{
		ClockStatus:      model.ClockStatus{IsClockedIn: true},
		BreakRequirement: model.BreakRequirement{RequiresBreak: true, HoursWorked: 5.0, BreakType: model.BreakTypeLunch},
	}

	esc := escalate.NewManager(time.Hour, func(model.EscalationEvent) {}, func(string) model.Facts {
		return required
	}, nil)
	svc := NewAttendanceService(up, store, nil, esc)

	esc.Observe("u1", required)
	if esc.StateOf("u1") != escalate.StateArmed {
		t.Fatal("expected escalation to be armed")
	}

	if err := svc.WaiveBreak(context.Background(), "u1", "store closing early"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := esc.StateOf("u1"); got != escalate.StateIdle {
		t.Fatalf("expected waive to reset escalation, state is %s", got)
	}
}
