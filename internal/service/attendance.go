package service

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"shiftpulse/internal/escalate"
	"shiftpulse/internal/model"
	"shiftpulse/internal/poll"
	"shiftpulse/internal/reconcile"
	"shiftpulse/internal/upstream"
	"shiftpulse/pkg/errors"
	"shiftpulse/pkg/logger"
	"shiftpulse/pkg/metrics"
)

// AttendanceService 动作下发层。
// 每个操作就是一次对上游的变更调用：不做乐观更新，失败不自动重试
// （重发可能在上游重复建档），成功后按操作失效对应的事实缓存，
// 让下一次轮询立即反映新的真相。
type AttendanceService struct {
	upstream   upstream.Client
	store      *poll.Store
	poller     *poll.Manager
	escalation *escalate.Manager
}

var (
	attendanceService *AttendanceService
	attendanceOnce    sync.Once
)

// InitAttendance 在进程启动时装配依赖
func InitAttendance(up upstream.Client, store *poll.Store, poller *poll.Manager, esc *escalate.Manager) {
	attendanceOnce.Do(func() {
		attendanceService = NewAttendanceService(up, store, poller, esc)
	})
}

func Attendance() *AttendanceService {
	if attendanceService == nil {
		panic("attendance service not initialized, call InitAttendance first")
	}
	return attendanceService
}

// NewAttendanceService 直接装配（测试用）
func NewAttendanceService(up upstream.Client, store *poll.Store, poller *poll.Manager, esc *escalate.Manager) *AttendanceService {
	return &AttendanceService{
		upstream:   up,
		store:      store,
		poller:     poller,
		escalation: esc,
	}
}

// DisplayState 读取该用户当前的展示状态。
// 顺带续租轮询会话：有人在看，轮询就继续跑。
func (s *AttendanceService) DisplayState(ctx context.Context, userID string) (model.DisplayState, model.Facts) {
	if s.poller != nil {
		s.poller.Touch(ctx, userID)
	}

	facts := s.store.Facts(userID)
	state := reconcile.Reconcile(facts.ClockStatus, facts.BreakRequirement, facts.ActiveBreak)
	return state, facts
}

// Facts 原始事实快照（客户端自己渲染时用）
func (s *AttendanceService) Facts(ctx context.Context, userID string) model.Facts {
	if s.poller != nil {
		s.poller.Touch(ctx, userID)
	}
	return s.store.Facts(userID)
}

// StopSession 显式拆除轮询会话（登出/离开视图）
func (s *AttendanceService) StopSession(userID string) {
	if s.poller != nil {
		s.poller.Stop(userID)
	}
}

// StartBreak 开始休息。
// 成功后三个事实全部失效：部分部署会把休息状态算进班次状态。
func (s *AttendanceService) StartBreak(ctx context.Context, userID string, req model.StartBreakRequest) error {
	if !req.BreakType.Valid() {
		return errors.BreakTypeInvalid
	}

	err := s.upstream.StartBreak(ctx, userID, req)
	metrics.ActionDispatched("start_break", err)
	if err != nil {
		return err
	}

	s.store.Invalidate(userID, model.FactActiveBreak, model.FactBreakRequirement, model.FactClockStatus)
	if s.escalation != nil {
		s.escalation.Reset(userID, "break_started")
	}

	logger.Logger.Info("Break started",
		zap.String("user_id", userID),
		zap.String("break_type", string(req.BreakType)),
	)
	return nil
}

// EndBreak 结束休息。没有已知的休息 ID 时本地直接失败，
// 不发网络请求，也绝不静默吞掉。
func (s *AttendanceService) EndBreak(ctx context.Context, userID, breakID string) error {
	if strings.TrimSpace(breakID) == "" {
		return errors.BreakIDRequired
	}

	err := s.upstream.EndBreak(ctx, userID, breakID)
	metrics.ActionDispatched("end_break", err)
	if err != nil {
		return err
	}

	s.store.Invalidate(userID, model.FactActiveBreak, model.FactBreakRequirement, model.FactClockStatus)

	logger.Logger.Info("Break ended",
		zap.String("user_id", userID),
		zap.String("break_id", breakID),
	)
	return nil
}

// WaiveBreak 永久豁免本次必修休息，必须带非空理由。
// 空白理由在发起任何网络调用之前就被拒绝。
func (s *AttendanceService) WaiveBreak(ctx context.Context, userID, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return errors.ReasonRequired
	}

	err := s.upstream.WaiveBreak(ctx, userID, reason)
	metrics.ActionDispatched("waive_break", err)
	if err != nil {
		return err
	}

	s.store.Invalidate(userID, model.FactActiveBreak, model.FactBreakRequirement)
	if s.escalation != nil {
		s.escalation.Reset(userID, "waived")
	}

	logger.Logger.Info("Break waived", zap.String("user_id", userID))
	return nil
}

// DeclineReminder 暂时推迟提醒，区别于豁免：不代表休息已完成，
// 只失效 BreakRequirement。
func (s *AttendanceService) DeclineReminder(ctx context.Context, userID, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return errors.ReasonRequired
	}

	err := s.upstream.DeclineReminder(ctx, userID, reason)
	metrics.ActionDispatched("decline_reminder", err)
	if err != nil {
		return err
	}

	s.store.Invalidate(userID, model.FactBreakRequirement)
	if s.escalation != nil {
		s.escalation.Reset(userID, "declined")
	}

	logger.Logger.Info("Break reminder declined", zap.String("user_id", userID))
	return nil
}

// ClockIn 上班打卡
func (s *AttendanceService) ClockIn(ctx context.Context, userID string, req model.ClockInRequest) (model.ClockResult, error) {
	if !req.Method.Valid() {
		return model.ClockResult{}, errors.ClockMethodInvalid
	}

	result, err := s.upstream.ClockIn(ctx, userID, req)
	metrics.ActionDispatched("clock_in", err)
	if err != nil {
		return model.ClockResult{}, err
	}

	s.store.Invalidate(userID, model.FactClockStatus, model.FactBreakRequirement, model.FactActiveBreak)

	logger.Logger.Info("Clocked in",
		zap.String("user_id", userID),
		zap.String("method", string(req.Method)),
	)
	return result, nil
}

// ClockOut 下班打卡，返回本班时长
func (s *AttendanceService) ClockOut(ctx context.Context, userID string, req model.ClockOutRequest) (model.ClockResult, error) {
	if !req.Method.Valid() {
		return model.ClockResult{}, errors.ClockMethodInvalid
	}

	result, err := s.upstream.ClockOut(ctx, userID, req)
	metrics.ActionDispatched("clock_out", err)
	if err != nil {
		return model.ClockResult{}, err
	}

	s.store.Invalidate(userID, model.FactClockStatus, model.FactBreakRequirement, model.FactActiveBreak)
	if s.escalation != nil {
		// 班次结束，挂起的催办没有意义了
		s.escalation.Reset(userID, "clocked_out")
	}

	logger.Logger.Info("Clocked out",
		zap.String("user_id", userID),
		zap.Float64("duration_hours", result.DurationHours),
	)
	return result, nil
}
