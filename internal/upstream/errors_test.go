package upstream

import (
	"testing"

	"shiftpulse/pkg/errors"
)

func TestClassifyKnownConditions(t *testing.T) {
	cases := []struct {
		body string
		want errors.Definition
	}{
		{`{"error":{"code":"QR_REQUIRED","message":"scan required"}}`, errors.QRRequired},
		{`{"error":{"code":"QR_REQUIRED_CLOCK_OUT","message":"scan required"}}`, errors.QRRequiredClockOut},
		{`{"error":{"code":"NO_ELIGIBLE_SHIFT","message":"not scheduled"}}`, errors.NoEligibleShift},
		{`{"error":{"code":"NO_ACTIVE_SHIFT","message":"not clocked in"}}`, errors.NoActiveShift},
	}

	for _, c := range cases {
		got := classify(409, []byte(c.body))
		def, ok := got.(errors.Definition)
		if !ok {
			t.Fatalf("expected Definition, got %T", got)
		}
		// 已知条件必须替换为本地指引文案，不透传上游原话
		if def.Code != c.want.Code || def.Message != c.want.Message {
			t.Fatalf("body %s: got %+v, want %+v", c.body, def, c.want)
		}
	}
}

func TestClassifyUnknownCodeKeepsUpstreamMessage(t *testing.T) {
	got := classify(409, []byte(`{"error":{"code":"GEOFENCE_VIOLATION","message":"You are outside the work site"}}`))
	def, ok := got.(errors.Definition)
	if !ok {
		t.Fatalf("expected Definition, got %T", got)
	}
	if def.Code != "UPSTREAM_REJECTED" {
		t.Fatalf("unexpected code %s", def.Code)
	}
	if def.Message != "You are outside the work site" {
		t.Fatalf("upstream message must pass through verbatim, got %q", def.Message)
	}
}

func TestClassifyMalformedBody(t *testing.T) {
	for _, body := range []string{"", "<html>bad gateway</html>", `{"detail":"no error envelope"}`} {
		got := classify(502, []byte(body))
		def, ok := got.(errors.Definition)
		if !ok {
			t.Fatalf("expected Definition, got %T", got)
		}
		if def.Code != "UPSTREAM_REJECTED" || def.Message == "" {
			t.Fatalf("body %q: got %+v", body, def)
		}
	}
}

func TestWrapTransport(t *testing.T) {
	if wrapTransport(nil) != nil {
		t.Fatal("nil error must stay nil")
	}
	if got := wrapTransport(errFake); got != errors.UpstreamUnavailable {
		t.Fatalf("expected UpstreamUnavailable, got %v", got)
	}
}

var errFake = errors.Definition{Code: "X", Message: "fake transport failure"}
