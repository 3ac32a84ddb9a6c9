package upstream

import (
	"context"
	"encoding/json"

	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"shiftpulse/internal/model"
)

// 变更操作的线格式，字段名与上游契约保持 snake_case。
// 失败绝不自动重试：重发一次 break-start 或 clock-in 可能在
// 上游重复建档，失败原样交给用户手动重试。

type startBreakBody struct {
	BreakType model.BreakType `json:"break_type"`
	Notes     string          `json:"notes,omitempty"`
}

type reasonBody struct {
	Reason string `json:"reason"`
}

type clockInBody struct {
	Method     model.ClockMethod `json:"method"`
	LocationID string            `json:"location_id,omitempty"`
	Latitude   *float64          `json:"latitude,omitempty"`
	Longitude  *float64          `json:"longitude,omitempty"`
	Notes      string            `json:"notes,omitempty"`
}

type clockOutBody struct {
	Method    model.ClockMethod `json:"method"`
	Latitude  *float64          `json:"latitude,omitempty"`
	Longitude *float64          `json:"longitude,omitempty"`
	Notes     string            `json:"notes,omitempty"`
}

type clockResultBody struct {
	DurationHours float64 `json:"duration_hours"`
}

func (c *HTTPClient) mutate(ctx context.Context, method, url string, body interface{}) ([]byte, error) {
	status, respBody, err := c.do(ctx, method, url, body)
	if err != nil {
		return nil, wrapTransport(err)
	}
	if status < 200 || status >= 300 {
		return nil, classify(status, respBody)
	}
	return respBody, nil
}

func (c *HTTPClient) StartBreak(ctx context.Context, userID string, req model.StartBreakRequest) error {
	_, err := c.mutate(ctx, consts.MethodPost, c.userURL(userID, "/breaks/"), startBreakBody{
		BreakType: req.BreakType,
		Notes:     req.Notes,
	})
	return err
}

func (c *HTTPClient) EndBreak(ctx context.Context, userID, breakID string) error {
	_, err := c.mutate(ctx, consts.MethodPatch, c.userURL(userID, "/breaks/"+breakID+"/end_break/"), struct{}{})
	return err
}

func (c *HTTPClient) WaiveBreak(ctx context.Context, userID, reason string) error {
	_, err := c.mutate(ctx, consts.MethodPost, c.userURL(userID, "/breaks/waive/"), reasonBody{Reason: reason})
	return err
}

func (c *HTTPClient) DeclineReminder(ctx context.Context, userID, reason string) error {
	_, err := c.mutate(ctx, consts.MethodPost, c.userURL(userID, "/breaks/decline-reminder/"), reasonBody{Reason: reason})
	return err
}

func (c *HTTPClient) ClockIn(ctx context.Context, userID string, req model.ClockInRequest) (model.ClockResult, error) {
	body := clockInBody{
		Method:     req.Method,
		LocationID: req.LocationID,
		Notes:      req.Notes,
	}
	if req.GPS != nil {
		body.Latitude = &req.GPS.Latitude
		body.Longitude = &req.GPS.Longitude
	}

	_, err := c.mutate(ctx, consts.MethodPost, c.userURL(userID, "/time-clock/clock-in/"), body)
	return model.ClockResult{}, err
}

func (c *HTTPClient) ClockOut(ctx context.Context, userID string, req model.ClockOutRequest) (model.ClockResult, error) {
	body := clockOutBody{
		Method: req.Method,
		Notes:  req.Notes,
	}
	if req.GPS != nil {
		body.Latitude = &req.GPS.Latitude
		body.Longitude = &req.GPS.Longitude
	}

	respBody, err := c.mutate(ctx, consts.MethodPost, c.userURL(userID, "/time-clock/clock-out/"), body)
	if err != nil {
		return model.ClockResult{}, err
	}

	var result clockResultBody
	if len(respBody) > 0 {
		// duration 解析失败不算操作失败，打卡本身已经成功
		_ = json.Unmarshal(respBody, &result)
	}

	return model.ClockResult{DurationHours: result.DurationHours}, nil
}
