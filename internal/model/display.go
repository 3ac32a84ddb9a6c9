package model

// Urgency 休息按钮的紧急程度，前端据此选择样式
type Urgency string

const (
	UrgencyNone      Urgency = "none"
	UrgencyAvailable Urgency = "available"
	UrgencyDue       Urgency = "due"
	UrgencyOverdue   Urgency = "overdue"
	UrgencyCompleted Urgency = "completed"
)

// DisplayState 由三个事实纯函数推导出的展示状态，永远不会被直接拉取
type DisplayState struct {
	Label    string  `json:"label"`
	Disabled bool    `json:"disabled"`
	Urgency  Urgency `json:"urgency"`
	InfoText string  `json:"info_text,omitempty"`
}
