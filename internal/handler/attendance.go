package handler

import (
	"context"
	"fmt"

	"github.com/cloudwego/hertz/pkg/app"

	"shiftpulse/internal/middleware"
	"shiftpulse/internal/model"
	"shiftpulse/internal/service"
	"shiftpulse/pkg/response"
)

// GetDisplayState 查询当前展示状态，浏览器端定期拉取
// GET /v1/attendance/display-state
func GetDisplayState(ctx context.Context, c *app.RequestContext) {
	userID, ok := middleware.GetUserID(ctx, c)
	if !ok {
		response.Error(ctx, c, fmt.Errorf("user ID not found in context"))
		return
	}

	attendance := service.Attendance()
	state, facts := attendance.DisplayState(ctx, userID)

	// degraded 标记哪些事实当前取数失败、展示的是旧值
	meta := map[string]interface{}{}
	if len(facts.Errors) > 0 {
		degraded := make([]string, 0, len(facts.Errors))
		for kind := range facts.Errors {
			degraded = append(degraded, string(kind))
		}
		meta["degraded_facts"] = degraded
	}

	if len(meta) > 0 {
		response.SuccessWithMeta(ctx, c, state, meta)
		return
	}
	response.Success(ctx, c, state)
}

// GetFacts 返回三个事实的原始快照，客户端自定义渲染时用
// GET /v1/attendance/facts
func GetFacts(ctx context.Context, c *app.RequestContext) {
	userID, ok := middleware.GetUserID(ctx, c)
	if !ok {
		response.Error(ctx, c, fmt.Errorf("user ID not found in context"))
		return
	}

	attendance := service.Attendance()
	facts := attendance.Facts(ctx, userID)

	response.Success(ctx, c, facts)
}

// ClockIn 上班打卡
// POST /v1/attendance/clock-in
func ClockIn(ctx context.Context, c *app.RequestContext) {
	userID, ok := middleware.GetUserID(ctx, c)
	if !ok {
		response.Error(ctx, c, fmt.Errorf("user ID not found in context"))
		return
	}

	var req model.ClockInRequest
	if err := c.BindJSON(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}
	if req.Method == "" {
		req.Method = model.ClockMethodPortal
	}

	attendance := service.Attendance()
	result, err := attendance.ClockIn(ctx, userID, req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, result)
}

// ClockOut 下班打卡，返回本班时长
// POST /v1/attendance/clock-out
func ClockOut(ctx context.Context, c *app.RequestContext) {
	userID, ok := middleware.GetUserID(ctx, c)
	if !ok {
		response.Error(ctx, c, fmt.Errorf("user ID not found in context"))
		return
	}

	var req model.ClockOutRequest
	if err := c.BindJSON(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}
	if req.Method == "" {
		req.Method = model.ClockMethodPortal
	}

	attendance := service.Attendance()
	result, err := attendance.ClockOut(ctx, userID, req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, result)
}

// QRClockIn 二维码打卡：上传一帧画面，服务端解码出工位码后打卡
// POST /v1/attendance/qr-clock-in
func QRClockIn(ctx context.Context, c *app.RequestContext) {
	userID, ok := middleware.GetUserID(ctx, c)
	if !ok {
		response.Error(ctx, c, fmt.Errorf("user ID not found in context"))
		return
	}

	var req model.QRClockInRequest
	if err := c.BindJSON(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	attendance := service.Attendance()
	result, err := attendance.QRClockIn(ctx, userID, req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, result)
}

// StopSession 显式拆除轮询会话（登出/关闭考勤视图）
// DELETE /v1/attendance/session
func StopSession(ctx context.Context, c *app.RequestContext) {
	userID, ok := middleware.GetUserID(ctx, c)
	if !ok {
		response.Error(ctx, c, fmt.Errorf("user ID not found in context"))
		return
	}

	service.Attendance().StopSession(userID)
	response.NoContent(ctx, c)
}
