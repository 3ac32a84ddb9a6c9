package token

import (
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	"shiftpulse/config"
	"shiftpulse/pkg/errors"
)

func signToken(t *testing.T, secret string, claims jwtv5.MapClaims) string {
	t.Helper()
	raw, err := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("签发测试 token 失败: %v", err)
	}
	return raw
}

func TestParseUserID(t *testing.T) {
	old := config.Cfg.JWTSecret
	config.Cfg.JWTSecret = "test-secret"
	defer func() { config.Cfg.JWTSecret = old }()

	raw := signToken(t, "test-secret", jwtv5.MapClaims{
		IdentityKey: "user-42",
		"exp":       time.Now().Add(time.Hour).Unix(),
	})

	uid, err := ParseUserID(raw)
	if err != nil {
		t.Fatalf("ParseUserID 返回错误: %v", err)
	}
	if uid != "user-42" {
		t.Fatalf("uid = %q, 期望 user-42", uid)
	}
}

func TestParseUserIDRejectsWrongSecret(t *testing.T) {
	old := config.Cfg.JWTSecret
	config.Cfg.JWTSecret = "test-secret"
	defer func() { config.Cfg.JWTSecret = old }()

	raw := signToken(t, "other-secret", jwtv5.MapClaims{
		IdentityKey: "user-42",
		"exp":       time.Now().Add(time.Hour).Unix(),
	})

	if _, err := ParseUserID(raw); err != errors.Unauthorized {
		t.Fatalf("错误签名应返回 Unauthorized, got %v", err)
	}
}

func TestParseUserIDRejectsMissingUID(t *testing.T) {
	old := config.Cfg.JWTSecret
	config.Cfg.JWTSecret = "test-secret"
	defer func() { config.Cfg.JWTSecret = old }()

	raw := signToken(t, "test-secret", jwtv5.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	if _, err := ParseUserID(raw); err != errors.InvalidUserID {
		t.Fatalf("缺少 uid 应返回 InvalidUserID, got %v", err)
	}
}
