package model

// EscalationStage 催办阶段：首次提示 / 延迟后的跟进
type EscalationStage string

const (
	StagePrompt   EscalationStage = "prompt"
	StageFollowup EscalationStage = "followup"
)

// EscalationEvent 投递到消息队列的催办事件，
// 状态机本身不关心展示层怎么消费它
type EscalationEvent struct {
	EventID     string          `json:"event_id"`
	UserID      string          `json:"user_id"`
	Stage       EscalationStage `json:"stage"`
	BreakType   BreakType       `json:"break_type,omitempty"`
	Reason      string          `json:"reason,omitempty"`
	HoursWorked float64         `json:"hours_worked"`
	EmittedAt   string          `json:"emitted_at"` // RFC3339
}
