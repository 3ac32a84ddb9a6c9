package reconcile

import (
	"testing"

	"shiftpulse/internal/model"
)

func TestReconcileScenarios(t *testing.T) {
	cases := []struct {
		name         string
		clock        model.ClockStatus
		req          model.BreakRequirement
		active       model.ActiveBreak
		wantLabel    string
		wantDisabled bool
		wantUrgency  model.Urgency
	}{
		{
			name:         "not clocked in wins over everything",
			clock:        model.ClockStatus{IsClockedIn: false},
			req:          model.BreakRequirement{RequiresBreak: true, IsOverdue: true, CanTakeManualBreak: true, HoursWorked: 9},
			active:       model.ActiveBreak{HasActiveBreak: true},
			wantLabel:    LabelClockInFirst,
			wantDisabled: true,
			wantUrgency:  model.UrgencyNone,
		},
		{
			name:         "active break wins over required break",
			clock:        model.ClockStatus{IsClockedIn: true},
			req:          model.BreakRequirement{RequiresBreak: true, IsOverdue: true},
			active:       model.ActiveBreak{HasActiveBreak: true, Break: &model.BreakRecord{ID: "b1"}},
			wantLabel:    LabelOnBreak,
			wantDisabled: true,
			wantUrgency:  model.UrgencyNone,
		},
		{
			name:         "overdue outranks due",
			clock:        model.ClockStatus{IsClockedIn: true},
			req:          model.BreakRequirement{RequiresBreak: true, IsOverdue: true, HoursWorked: 6},
			active:       model.ActiveBreak{},
			wantLabel:    LabelBreakOverdue,
			wantDisabled: false,
			wantUrgency:  model.UrgencyOverdue,
		},
		{
			name:         "required not overdue",
			clock:        model.ClockStatus{IsClockedIn: true},
			req:          model.BreakRequirement{RequiresBreak: true, IsOverdue: false},
			active:       model.ActiveBreak{},
			wantLabel:    LabelTakeBreakNow,
			wantDisabled: false,
			wantUrgency:  model.UrgencyDue,
		},
		{
			name:         "manual break available",
			clock:        model.ClockStatus{IsClockedIn: true},
			req:          model.BreakRequirement{CanTakeManualBreak: true, HoursWorked: 2},
			active:       model.ActiveBreak{},
			wantLabel:    LabelTakeBreak,
			wantDisabled: false,
			wantUrgency:  model.UrgencyAvailable,
		},
		{
			name:         "all breaks completed inference",
			clock:        model.ClockStatus{IsClockedIn: true},
			req:          model.BreakRequirement{RequiresBreak: false, CanTakeManualBreak: false, HoursWorked: 2.5},
			active:       model.ActiveBreak{},
			wantLabel:    LabelBreaksCompleted,
			wantDisabled: true,
			wantUrgency:  model.UrgencyCompleted,
		},
		{
			name:         "under one hour means not available yet",
			clock:        model.ClockStatus{IsClockedIn: true},
			req:          model.BreakRequirement{HoursWorked: 0.5},
			active:       model.ActiveBreak{},
			wantLabel:    LabelNotAvailable,
			wantDisabled: true,
			wantUrgency:  model.UrgencyNone,
		},
		{
			name:         "exactly one hour counts as completed",
			clock:        model.ClockStatus{IsClockedIn: true},
			req:          model.BreakRequirement{HoursWorked: 1.0},
			active:       model.ActiveBreak{},
			wantLabel:    LabelBreaksCompleted,
			wantDisabled: true,
			wantUrgency:  model.UrgencyCompleted,
		},
		{
			name:         "zero value inputs collapse to most conservative state",
			clock:        model.ClockStatus{},
			req:          model.BreakRequirement{},
			active:       model.ActiveBreak{},
			wantLabel:    LabelClockInFirst,
			wantDisabled: true,
			wantUrgency:  model.UrgencyNone,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Reconcile(tc.clock, tc.req, tc.active)
			if got.Label != tc.wantLabel {
				t.Fatalf("label = %q, want %q", got.Label, tc.wantLabel)
			}
			if got.Disabled != tc.wantDisabled {
				t.Fatalf("disabled = %v, want %v", got.Disabled, tc.wantDisabled)
			}
			if got.Urgency != tc.wantUrgency {
				t.Fatalf("urgency = %q, want %q", got.Urgency, tc.wantUrgency)
			}
		})
	}
}

// 穷举所有布尔组合加两档工时，保证优先级链恰好命中一条规则，
// 并且结果是五个已知标签之一
func TestReconcileExhaustive(t *testing.T) {
	bools := []bool{false, true}
	hours := []float64{0, 2.5}

	known := map[string]bool{
		LabelClockInFirst:    true,
		LabelOnBreak:         true,
		LabelBreakOverdue:    true,
		LabelTakeBreakNow:    true,
		LabelTakeBreak:       true,
		LabelBreaksCompleted: true,
		LabelNotAvailable:    true,
	}

	for _, clockedIn := range bools {
		for _, hasBreak := range bools {
			for _, requires := range bools {
				for _, overdue := range bools {
					for _, manual := range bools {
						for _, h := range hours {
							clock := model.ClockStatus{IsClockedIn: clockedIn}
							req := model.BreakRequirement{
								RequiresBreak:      requires,
								IsOverdue:          overdue,
								CanTakeManualBreak: manual,
								HoursWorked:        h,
							}
							active := model.ActiveBreak{HasActiveBreak: hasBreak}

							got := Reconcile(clock, req, active)
							if !known[got.Label] {
								t.Fatalf("unknown label %q for inputs clockedIn=%v hasBreak=%v requires=%v overdue=%v manual=%v hours=%v",
									got.Label, clockedIn, hasBreak, requires, overdue, manual, h)
							}

							// 纯函数：同样的输入两次得到同样的输出
							again := Reconcile(clock, req, active)
							if got != again {
								t.Fatalf("reconcile is not deterministic for clockedIn=%v hasBreak=%v requires=%v overdue=%v manual=%v hours=%v",
									clockedIn, hasBreak, requires, overdue, manual, h)
							}

							// 校验优先级：未打卡永远是 Clock In First
							if !clockedIn && got.Label != LabelClockInFirst {
								t.Fatalf("not clocked in should always yield %q, got %q", LabelClockInFirst, got.Label)
							}
							// 在休永远压过其余信号
							if clockedIn && hasBreak && got.Label != LabelOnBreak {
								t.Fatalf("active break should always yield %q, got %q", LabelOnBreak, got.Label)
							}
						}
					}
				}
			}
		}
	}
}

func TestNeedsEscalation(t *testing.T) {
	if !NeedsEscalation(model.BreakRequirement{RequiresBreak: true}, model.ActiveBreak{}) {
		t.Fatal("required and not on break should escalate")
	}
	if NeedsEscalation(model.BreakRequirement{RequiresBreak: true}, model.ActiveBreak{HasActiveBreak: true}) {
		t.Fatal("already on break must not escalate")
	}
	if NeedsEscalation(model.BreakRequirement{}, model.ActiveBreak{}) {
		t.Fatal("no requirement must not escalate")
	}
}
