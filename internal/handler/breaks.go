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

// StartBreak 开始休息
// POST /v1/breaks/start
func StartBreak(ctx context.Context, c *app.RequestContext) {
	userID, ok := middleware.GetUserID(ctx, c)
	if !ok {
		response.Error(ctx, c, fmt.Errorf("user ID not found in context"))
		return
	}

	var req model.StartBreakRequest
	if err := c.BindJSON(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	attendance := service.Attendance()
	if err := attendance.StartBreak(ctx, userID, req); err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, map[string]interface{}{"started": true})
}

// EndBreak 结束指定休息
// PATCH /v1/breaks/:break_id/end
func EndBreak(ctx context.Context, c *app.RequestContext) {
	userID, ok := middleware.GetUserID(ctx, c)
	if !ok {
		response.Error(ctx, c, fmt.Errorf("user ID not found in context"))
		return
	}

	breakID := c.Param("break_id")

	attendance := service.Attendance()
	if err := attendance.EndBreak(ctx, userID, breakID); err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, map[string]interface{}{"ended": true})
}

// WaiveBreak 豁免本次必修休息，理由必填
// POST /v1/breaks/waive
func WaiveBreak(ctx context.Context, c *app.RequestContext) {
	userID, ok := middleware.GetUserID(ctx, c)
	if !ok {
		response.Error(ctx, c, fmt.Errorf("user ID not found in context"))
		return
	}

	var req model.WaiveBreakRequest
	if err := c.BindJSON(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	attendance := service.Attendance()
	if err := attendance.WaiveBreak(ctx, userID, req.Reason); err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, map[string]interface{}{"waived": true})
}

// DeclineReminder 暂时推迟休息提醒，理由必填
// POST /v1/breaks/decline
func DeclineReminder(ctx context.Context, c *app.RequestContext) {
	userID, ok := middleware.GetUserID(ctx, c)
	if !ok {
		response.Error(ctx, c, fmt.Errorf("user ID not found in context"))
		return
	}

	var req model.DeclineReminderRequest
	if err := c.BindJSON(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	attendance := service.Attendance()
	if err := attendance.DeclineReminder(ctx, userID, req.Reason); err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, map[string]interface{}{"declined": true})
}
