package errors

func (d Definition) Error() string {
	return d.Message
}

// Definition 表示业务错误码及默认信息。
type Definition struct {
	Code    string
	Message string
}

// 认证相关错误。
var (
	Unauthorized    = Definition{Code: "UNAUTHORIZED", Message: "Unauthorized"}
	InvalidUserID   = Definition{Code: "INVALID_USER_ID", Message: "Invalid user ID format"}
	TooManyRequests = Definition{Code: "TOO_MANY_REQUESTS", Message: "Too many requests"}
)

// 本地校验错误，在发起任何网络调用之前返回。
var (
	BreakIDRequired    = Definition{Code: "BREAK_ID_REQUIRED", Message: "No active break to end"}
	ReasonRequired     = Definition{Code: "REASON_REQUIRED", Message: "A non-empty reason is required"}
	BreakTypeInvalid   = Definition{Code: "BREAK_TYPE_INVALID", Message: "Break type must be one of lunch, short, personal"}
	ClockMethodInvalid = Definition{Code: "CLOCK_METHOD_INVALID", Message: "Clock method must be portal or qr_code"}
	QRFrameInvalid     = Definition{Code: "QR_FRAME_INVALID", Message: "QR frame payload is malformed"}
	QRDecodeFailed     = Definition{Code: "QR_DECODE_FAILED", Message: "No QR code found in frame"}
)

// 上游拒绝的已知业务条件，映射为具体的用户指引。
var (
	QRRequired         = Definition{Code: "QR_REQUIRED", Message: "This location requires a QR code scan, switch to QR clock-in"}
	QRRequiredClockOut = Definition{Code: "QR_REQUIRED_CLOCK_OUT", Message: "This location requires a QR code scan to clock out"}
	NoEligibleShift    = Definition{Code: "NO_ELIGIBLE_SHIFT", Message: "No eligible shift right now, wait for your scheduled shift"}
	NoActiveShift      = Definition{Code: "NO_ACTIVE_SHIFT", Message: "No active shift to clock out of"}
)

// 网络/上游故障。
var (
	UpstreamUnavailable = Definition{Code: "UPSTREAM_UNAVAILABLE", Message: "Attendance service is unreachable, try again"}
)

// Lookup 提供错误码查询能力。
var Lookup = map[string]Definition{
	Unauthorized.Code:        Unauthorized,
	InvalidUserID.Code:       InvalidUserID,
	TooManyRequests.Code:     TooManyRequests,
	BreakIDRequired.Code:     BreakIDRequired,
	ReasonRequired.Code:      ReasonRequired,
	BreakTypeInvalid.Code:    BreakTypeInvalid,
	ClockMethodInvalid.Code:  ClockMethodInvalid,
	QRFrameInvalid.Code:      QRFrameInvalid,
	QRDecodeFailed.Code:      QRDecodeFailed,
	QRRequired.Code:          QRRequired,
	QRRequiredClockOut.Code:  QRRequiredClockOut,
	NoEligibleShift.Code:     NoEligibleShift,
	NoActiveShift.Code:       NoActiveShift,
	UpstreamUnavailable.Code: UpstreamUnavailable,
}

// Get 根据错误码返回 Definition，若不存在则返回空 Definition。
func Get(code string) Definition {
	if def, ok := Lookup[code]; ok {
		return def
	}
	return Definition{Code: code, Message: "Unexpected error"}
}

// SkipMessageError 消费者侧跳过重复消息时使用，ack 但不重投。
type SkipMessageError struct {
	Reason string
}

func (e *SkipMessageError) Error() string {
	return e.Reason
}
