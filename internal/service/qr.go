package service

import (
	"context"
	"encoding/base64"

	"go.uber.org/zap"

	"shiftpulse/internal/model"
	"shiftpulse/pkg/errors"
	"shiftpulse/pkg/logger"
	"shiftpulse/pkg/qrdecode"
)

// QRClockIn 二维码打卡：先在本地把帧解成位置引用，
// 再当作一次普通的 qr_code 打卡下发。解码失败不会触达上游。
func (s *AttendanceService) QRClockIn(ctx context.Context, userID string, req model.QRClockInRequest) (model.ClockResult, error) {
	if req.Frame == "" || req.Width <= 0 || req.Height <= 0 {
		return model.ClockResult{}, errors.QRFrameInvalid
	}

	rgba, err := base64.StdEncoding.DecodeString(req.Frame)
	if err != nil {
		return model.ClockResult{}, errors.QRFrameInvalid
	}

	locationRef, err := qrdecode.GetDecoder().Decode(rgba, req.Width, req.Height)
	if err != nil {
		logger.Logger.Info("QR decode failed",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return model.ClockResult{}, errors.QRDecodeFailed
	}

	return s.ClockIn(ctx, userID, model.ClockInRequest{
		Method:     model.ClockMethodQRCode,
		LocationID: locationRef,
		GPS:        req.GPS,
		Notes:      req.Notes,
	})
}
