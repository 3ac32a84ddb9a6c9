package upstream

import (
	"encoding/json"
	"fmt"

	"shiftpulse/pkg/errors"
)

// 上游错误响应的线格式：{"error": {"code": "...", "message": "..."}}
type upstreamError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// 已知业务条件码 → 带具体指引的本地错误。
// 不在集合里的拒绝保留上游原话，原样透传给用户。
var knownConditions = map[string]errors.Definition{
	errors.QRRequired.Code:         errors.QRRequired,
	errors.QRRequiredClockOut.Code: errors.QRRequiredClockOut,
	errors.NoEligibleShift.Code:    errors.NoEligibleShift,
	errors.NoActiveShift.Code:      errors.NoActiveShift,
}

// classify 把上游的非 2xx 响应翻译成业务错误
func classify(status int, body []byte) error {
	var parsed upstreamError
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Code != "" {
		if def, ok := knownConditions[parsed.Error.Code]; ok {
			return def
		}

		message := parsed.Error.Message
		if message == "" {
			message = fmt.Sprintf("Upstream rejected the request (%d)", status)
		}
		return errors.Definition{Code: "UPSTREAM_REJECTED", Message: message}
	}

	return errors.Definition{
		Code:    "UPSTREAM_REJECTED",
		Message: fmt.Sprintf("Upstream rejected the request (%d)", status),
	}
}

// wrapTransport 网络层故障：超时、连接拒绝等
func wrapTransport(err error) error {
	if err == nil {
		return nil
	}
	return errors.UpstreamUnavailable
}
