package model

// ClockMethod 打卡方式
type ClockMethod string

const (
	ClockMethodPortal ClockMethod = "portal"
	ClockMethodQRCode ClockMethod = "qr_code"
)

func (m ClockMethod) Valid() bool {
	switch m {
	case ClockMethodPortal, ClockMethodQRCode:
		return true
	}
	return false
}

// GPS 可选的定位信息，原样透传给上游做围栏校验
type GPS struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type StartBreakRequest struct {
	BreakType BreakType `json:"break_type"`
	Notes     string    `json:"notes,omitempty"`
}

type WaiveBreakRequest struct {
	Reason string `json:"reason"`
}

type DeclineReminderRequest struct {
	Reason string `json:"reason"`
}

type ClockInRequest struct {
	Method     ClockMethod `json:"method"`
	LocationID string      `json:"location_id,omitempty"`
	GPS        *GPS        `json:"gps,omitempty"`
	Notes      string      `json:"notes,omitempty"`
}

type ClockOutRequest struct {
	Method ClockMethod `json:"method"`
	GPS    *GPS        `json:"gps,omitempty"`
	Notes  string      `json:"notes,omitempty"`
}

// QRClockInRequest 客户端上传一帧画面，由服务端解码出位置引用后打卡
type QRClockInRequest struct {
	Frame  string `json:"frame"` // base64 RGBA 像素
	Width  int    `json:"width"`
	Height int    `json:"height"`
	GPS    *GPS   `json:"gps,omitempty"`
	Notes  string `json:"notes,omitempty"`
}

// ClockResult 打卡结果，duration_hours 仅 clock-out 返回
type ClockResult struct {
	DurationHours float64 `json:"duration_hours,omitempty"`
}
