package qrdecode

import (
	"sync"

	"shiftpulse/config"
	"shiftpulse/pkg/logger"
)

// Decoder 从一帧原始 RGBA 像素里识别二维码内容。
// 识别失败（没有码、解不出来）返回 error，调用方据此提示重拍。
type Decoder interface {
	Decode(rgba []byte, width, height int) (string, error)
}

var (
	decoder Decoder
	once    sync.Once
)

// Init 按配置选择解码实现
func Init() {
	once.Do(func() {
		switch config.Cfg.QRProvider {
		case "goqr":
			decoder = NewGoQRDecoder()
		case "mock":
			decoder = NewMockDecoder()
		default:
			logger.Logger.Warn("Unknown QR decode provider, falling back to mock")
			decoder = NewMockDecoder()
		}
	})
}

func GetDecoder() Decoder {
	if decoder == nil {
		panic("qr decoder not initialized, call qrdecode.Init first")
	}
	return decoder
}
