package model

import "time"

// 三个事实都是上游计算好的只读快照，本服务只缓存和组合，不自己推导业务规则。

type BreakType string

const (
	BreakTypeLunch    BreakType = "lunch"
	BreakTypeShort    BreakType = "short"
	BreakTypePersonal BreakType = "personal"
)

func (t BreakType) Valid() bool {
	switch t {
	case BreakTypeLunch, BreakTypeShort, BreakTypePersonal:
		return true
	}
	return false
}

// ClockStatus 当前是否有打开的工作会话，由上游决定
type ClockStatus struct {
	IsClockedIn bool `json:"is_clocked_in"`
}

// BreakRequirement 上游计算的休息义务/资格
// 不变式 is_overdue ⇒ requires_break 由上游维护，这里不强制
type BreakRequirement struct {
	RequiresBreak      bool      `json:"requires_break"`
	IsOverdue          bool      `json:"is_overdue"`
	CanTakeManualBreak bool      `json:"can_take_manual_break"`
	HoursWorked        float64   `json:"hours_worked"`
	BreakType          BreakType `json:"break_type,omitempty"`
	Reason             string    `json:"reason,omitempty"`
}

// ActiveBreak 当前未结束的休息记录
type ActiveBreak struct {
	HasActiveBreak bool         `json:"has_active_break"`
	Break          *BreakRecord `json:"break,omitempty"`
}

type BreakRecord struct {
	ID        string    `json:"id"`
	BreakType BreakType `json:"break_type"`
	StartTime time.Time `json:"start_time"`
}

// FactKind 标识一个独立缓存/独立调度的事实槽位
type FactKind string

const (
	FactClockStatus      FactKind = "clock_status"
	FactBreakRequirement FactKind = "break_requirement"
	FactActiveBreak      FactKind = "active_break"
)

// Facts 某个用户三个事实槽位的最新值，任何一个都可能过期或出错，
// 互相之间不阻塞
type Facts struct {
	ClockStatus      ClockStatus      `json:"clock_status"`
	BreakRequirement BreakRequirement `json:"break_requirement"`
	ActiveBreak      ActiveBreak      `json:"active_break"`

	// 各槽位最近一次刷新是否失败（值仍是上一次的好值）
	Errors map[FactKind]bool `json:"errors,omitempty"`
}
