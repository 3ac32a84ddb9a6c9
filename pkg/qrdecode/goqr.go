package qrdecode

import (
	"fmt"
	"image"

	"github.com/liyue201/goqr"
)

// GoQRDecoder 基于 goqr 的纯 Go 实现，不依赖 cgo
type GoQRDecoder struct{}

func NewGoQRDecoder() *GoQRDecoder {
	return &GoQRDecoder{}
}

func (d *GoQRDecoder) Decode(rgba []byte, width, height int) (string, error) {
	if width <= 0 || height <= 0 {
		return "", fmt.Errorf("invalid frame dimensions %dx%d", width, height)
	}
	if len(rgba) != width*height*4 {
		return "", fmt.Errorf("frame size %d does not match %dx%d RGBA", len(rgba), width, height)
	}

	img := &image.RGBA{
		Pix:    rgba,
		Stride: width * 4,
		Rect:   image.Rect(0, 0, width, height),
	}

	codes, err := goqr.Recognize(img)
	if err != nil {
		return "", fmt.Errorf("recognize qr code: %w", err)
	}
	if len(codes) == 0 {
		return "", fmt.Errorf("no qr code found in frame")
	}

	// 一帧里出现多个码时取第一个
	return string(codes[0].Payload), nil
}
