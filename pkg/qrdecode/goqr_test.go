package qrdecode

import "testing"

func TestGoQRDecoderRejectsBadDimensions(t *testing.T) {
	d := NewGoQRDecoder()

	if _, err := d.Decode(make([]byte, 400), 0, 10); err == nil {
		t.Fatal("zero width must be rejected")
	}
	if _, err := d.Decode(make([]byte, 400), 10, -5); err == nil {
		t.Fatal("negative height must be rejected")
	}
	// 长度和尺寸不匹配
	if _, err := d.Decode(make([]byte, 100), 10, 10); err == nil {
		t.Fatal("size mismatch must be rejected")
	}
}

func TestGoQRDecoderNoCodeInFrame(t *testing.T) {
	d := NewGoQRDecoder()

	// 全白帧里没有二维码
	blank := make([]byte, 16*16*4)
	for i := range blank {
		blank[i] = 0xff
	}

	if _, err := d.Decode(blank, 16, 16); err == nil {
		t.Fatal("blank frame must not decode to a payload")
	}
}

func TestMockDecoder(t *testing.T) {
	d := NewMockDecoder()

	payload, err := d.Decode([]byte{1, 2, 3, 4}, 1, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload == "" {
		t.Fatal("mock decoder must return a fixed payload")
	}

	if _, err := d.Decode(nil, 1, 1); err == nil {
		t.Fatal("empty frame must be rejected")
	}
}
