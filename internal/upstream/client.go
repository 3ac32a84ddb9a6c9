package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	hzclient "github.com/cloudwego/hertz/pkg/app/client"
	"github.com/cloudwego/hertz/pkg/protocol"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"shiftpulse/internal/model"
	"shiftpulse/pkg/logger"
)

// Client 是本服务对远端考勤 API 的全部依赖。
// 三个只读快照 + 六个变更操作；所有业务规则都在上游，
// 这里只做取数、下发和错误翻译。
type Client interface {
	FetchClockStatus(ctx context.Context, userID string) (model.ClockStatus, error)
	FetchBreakRequirement(ctx context.Context, userID string) (model.BreakRequirement, error)
	FetchActiveBreak(ctx context.Context, userID string) (model.ActiveBreak, error)

	StartBreak(ctx context.Context, userID string, req model.StartBreakRequest) error
	EndBreak(ctx context.Context, userID, breakID string) error
	WaiveBreak(ctx context.Context, userID, reason string) error
	DeclineReminder(ctx context.Context, userID, reason string) error
	ClockIn(ctx context.Context, userID string, req model.ClockInRequest) (model.ClockResult, error)
	ClockOut(ctx context.Context, userID string, req model.ClockOutRequest) (model.ClockResult, error)
}

type Options struct {
	BaseURL      string
	ServiceToken string
	Timeout      time.Duration
}

// HTTPClient 基于 hertz client 的实现
type HTTPClient struct {
	cli     *hzclient.Client
	baseURL string
	token   string
	timeout time.Duration
}

func NewHTTPClient(opts Options) (*HTTPClient, error) {
	cli, err := hzclient.NewClient(
		hzclient.WithDialTimeout(5 * time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create upstream client: %w", err)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &HTTPClient{
		cli:     cli,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		token:   opts.ServiceToken,
		timeout: timeout,
	}, nil
}

func (c *HTTPClient) userURL(userID, path string) string {
	return c.baseURL + "/users/" + userID + path
}

// do 发出一个带超时的请求。超时即失败，请求绝不会无限挂起。
func (c *HTTPClient) do(ctx context.Context, method, url string, body interface{}) (int, []byte, error) {
	req := &protocol.Request{}
	res := &protocol.Response{}

	req.SetMethod(method)
	req.SetRequestURI(url)
	req.SetHeader("X-Request-Id", uuid.NewString())
	if c.token != "" {
		req.SetHeader("Authorization", "Bearer "+c.token)
	}

	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		req.SetBody(payload)
		req.SetHeader("Content-Type", "application/json")
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.cli.Do(callCtx, req, res); err != nil {
		logger.Logger.Warn("Upstream call failed",
			zap.String("method", method),
			zap.String("url", url),
			zap.Error(err),
		)
		return 0, nil, err
	}

	// res.Body() 的底层缓冲会被连接复用，拷贝一份
	raw := res.Body()
	out := make([]byte, len(raw))
	copy(out, raw)

	return res.StatusCode(), out, nil
}

func (c *HTTPClient) getJSON(ctx context.Context, url string, out interface{}) error {
	status, body, err := c.do(ctx, consts.MethodGet, url, nil)
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return classify(status, body)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode upstream response: %w", err)
	}
	return nil
}

func (c *HTTPClient) FetchClockStatus(ctx context.Context, userID string) (model.ClockStatus, error) {
	var v model.ClockStatus
	err := c.getJSON(ctx, c.userURL(userID, "/time-clock/status/"), &v)
	return v, err
}

func (c *HTTPClient) FetchBreakRequirement(ctx context.Context, userID string) (model.BreakRequirement, error) {
	var v model.BreakRequirement
	err := c.getJSON(ctx, c.userURL(userID, "/breaks/requirement/"), &v)
	return v, err
}

func (c *HTTPClient) FetchActiveBreak(ctx context.Context, userID string) (model.ActiveBreak, error) {
	var v model.ActiveBreak
	err := c.getJSON(ctx, c.userURL(userID, "/breaks/active/"), &v)
	return v, err
}
