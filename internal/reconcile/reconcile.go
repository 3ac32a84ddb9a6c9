package reconcile

import (
	"shiftpulse/internal/model"
)

// 展示文案，前端原样渲染
const (
	LabelClockInFirst    = "Clock In First"
	LabelOnBreak         = "On Break"
	LabelBreakOverdue    = "Break Overdue!"
	LabelTakeBreakNow    = "Take Break Now"
	LabelTakeBreak       = "Take Break"
	LabelBreaksCompleted = "All Breaks Completed"
	LabelNotAvailable    = "Break Not Available"

	infoMinimumHours = "Breaks become available after 1 hour of work"
)

// minHoursForBreak 是"本班次休息已刷完"推断的工时下限。
// 上游没有显式的 breaks-exhausted 字段，只能从两个标志同时缺席
// 加上已有工时来推断，阈值取自线上行为。
const minHoursForBreak = 1.0

// maxBreaksSatisfied 推断该班次的休息是否已经全部完成。
// 单独成名是为了上游将来暴露显式字段时可以整体替换，
// 不动下面的优先级链。
func maxBreaksSatisfied(req model.BreakRequirement) bool {
	return !req.RequiresBreak && !req.CanTakeManualBreak && req.HoursWorked >= minHoursForBreak
}

// Reconcile 把三个独立轮询的事实合成唯一的展示状态。
// 规则按严格优先级求值，第一条命中即返回；这个顺序承载语义，
// 不能重排：正在休息必须压过新到的"需要休息"信号，超期必须压过
// 未超期，硬性要求必须压过手动资格，"已完成"推断只在所有更强信号
// 都排除后才适用。
// 纯函数，不报错：缺失输入就是零值，得到的是最保守（禁用）的展示。
func Reconcile(clock model.ClockStatus, req model.BreakRequirement, active model.ActiveBreak) model.DisplayState {
	// 1. 未打卡
	if !clock.IsClockedIn {
		return model.DisplayState{
			Label:    LabelClockInFirst,
			Disabled: true,
			Urgency:  model.UrgencyNone,
		}
	}

	// 2. 正在休息，按已安定状态展示
	if active.HasActiveBreak {
		return model.DisplayState{
			Label:    LabelOnBreak,
			Disabled: true,
			Urgency:  model.UrgencyNone,
		}
	}

	// 3. 需要休息且已超期
	if req.RequiresBreak && req.IsOverdue {
		return model.DisplayState{
			Label:    LabelBreakOverdue,
			Disabled: false,
			Urgency:  model.UrgencyOverdue,
			InfoText: req.Reason,
		}
	}

	// 4. 需要休息，未超期
	if req.RequiresBreak {
		return model.DisplayState{
			Label:    LabelTakeBreakNow,
			Disabled: false,
			Urgency:  model.UrgencyDue,
			InfoText: req.Reason,
		}
	}

	// 5. 可以手动休息
	if req.CanTakeManualBreak {
		return model.DisplayState{
			Label:    LabelTakeBreak,
			Disabled: false,
			Urgency:  model.UrgencyAvailable,
		}
	}

	// 6. 休息已刷完（启发式推断）
	if maxBreaksSatisfied(req) {
		return model.DisplayState{
			Label:    LabelBreaksCompleted,
			Disabled: true,
			Urgency:  model.UrgencyCompleted,
		}
	}

	// 7. 还不满足休息条件
	return model.DisplayState{
		Label:    LabelNotAvailable,
		Disabled: true,
		Urgency:  model.UrgencyNone,
		InfoText: infoMinimumHours,
	}
}

// NeedsEscalation 催办状态机的进入条件：需要休息且当前没有在休
func NeedsEscalation(req model.BreakRequirement, active model.ActiveBreak) bool {
	return req.RequiresBreak && !active.HasActiveBreak
}
