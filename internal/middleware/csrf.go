package middleware

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/hertz-contrib/csrf"
	"github.com/hertz-contrib/sessions"
	"github.com/hertz-contrib/sessions/cookie"

	"shiftpulse/config"
)

// CSRFMiddleware 浏览器端变更路由的 CSRF 防护，
// 依赖 cookie session 存放 token，按配置开关。
func CSRFMiddleware() app.HandlerFunc {
	store := cookie.NewStore([]byte(config.Cfg.SessionSecret))
	sessionMW := sessions.New("csrf-session", store)
	csrfMW := csrf.New(
		csrf.WithSecret(config.Cfg.SessionSecret),
	)

	return func(ctx context.Context, c *app.RequestContext) {
		sessionMW(ctx, c)
		csrfMW(ctx, c)
	}
}
