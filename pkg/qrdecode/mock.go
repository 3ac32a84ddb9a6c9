package qrdecode

import "fmt"

// MockDecoder 开发环境用，任何非空帧都当作固定工位码
type MockDecoder struct {
	Payload string
}

func NewMockDecoder() *MockDecoder {
	return &MockDecoder{Payload: "mock-location-001"}
}

func (d *MockDecoder) Decode(rgba []byte, width, height int) (string, error) {
	if len(rgba) == 0 {
		return "", fmt.Errorf("empty frame")
	}
	return d.Payload, nil
}
