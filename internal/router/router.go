package router

import (
	"github.com/cloudwego/hertz/pkg/app/server"

	"shiftpulse/config"
	"shiftpulse/internal/handler"
	"shiftpulse/internal/middleware"
)

func Register(h *server.Hertz) {

	h.Use(middleware.RecoverMiddleware())
	h.Use(middleware.CORSMiddleware())
	h.Use(middleware.OpenTelemetryMiddleware())

	v1 := h.Group("/v1")
	v1.Use(middleware.AuthMiddleware())
	if config.Cfg.RateLimitEnabled {
		v1.Use(middleware.GeneralRateLimitMiddleware())
	}

	// 考勤状态与打卡路由
	attendance := v1.Group("/attendance")
	{
		attendance.GET("/display-state", handler.GetDisplayState)
		attendance.GET("/facts", handler.GetFacts)
		attendance.DELETE("/session", handler.StopSession)

		clock := attendance.Group("")
		if config.Cfg.CSRFEnabled {
			clock.Use(middleware.CSRFMiddleware())
		}
		if config.Cfg.RateLimitEnabled {
			clock.Use(middleware.ActionRateLimitMiddleware())
		}
		{
			clock.POST("/clock-in", handler.ClockIn)
			clock.POST("/clock-out", handler.ClockOut)
			if config.Cfg.RateLimitEnabled {
				// 帧解码是 CPU 密集操作，单独收紧
				clock.POST("/qr-clock-in", middleware.QRRateLimitMiddleware(), handler.QRClockIn)
			} else {
				clock.POST("/qr-clock-in", handler.QRClockIn)
			}
		}
	}

	// 休息操作路由
	breaks := v1.Group("/breaks")
	if config.Cfg.CSRFEnabled {
		breaks.Use(middleware.CSRFMiddleware())
	}
	if config.Cfg.RateLimitEnabled {
		breaks.Use(middleware.ActionRateLimitMiddleware())
	}
	{
		breaks.POST("/start", handler.StartBreak)
		breaks.PATCH("/:break_id/end", handler.EndBreak)
		breaks.POST("/waive", handler.WaiveBreak)
		breaks.POST("/decline", handler.DeclineReminder)
	}
}
