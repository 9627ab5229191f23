package observability

import (
	"context"
	"testing"
	"time"
)

type recordingHTTPHooks struct {
	requests  int
	responses int
	errors    int
}

func (h *recordingHTTPHooks) OnRequest(context.Context, string, string, string) { h.requests++ }
func (h *recordingHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {
	h.responses++
}
func (h *recordingHTTPHooks) OnError(context.Context, string, string, string, error) { h.errors++ }

type recordingAuthHooks struct {
	issued  int
	expired int
	refused int
}

func (h *recordingAuthHooks) OnTokenIssued(context.Context, string, []string, time.Time) {
	h.issued++
}
func (h *recordingAuthHooks) OnTokenExpired(context.Context, string) { h.expired++ }
func (h *recordingAuthHooks) OnAuthRefused(context.Context, string)  { h.refused++ }

func TestDefaultsAreNoop(t *testing.T) {
	Reset()

	// Should not panic.
	HTTP().OnRequest(context.Background(), "GET", "api.fractal.global", "/v1/user/1")
	Auth().OnTokenIssued(context.Background(), "app", []string{"public"}, time.Now())
	Cache().OnCacheHit(context.Background(), "user")
}

func TestSetHTTPHooks(t *testing.T) {
	t.Cleanup(Reset)

	rec := &recordingHTTPHooks{}
	SetHTTPHooks(rec)

	HTTP().OnRequest(context.Background(), "GET", "api.fractal.global", "/v1/user/1")
	HTTP().OnResponse(context.Background(), "GET", "api.fractal.global", "/v1/user/1", 200, time.Millisecond)

	if rec.requests != 1 || rec.responses != 1 {
		t.Errorf("requests = %d, responses = %d, want 1, 1", rec.requests, rec.responses)
	}
}

func TestSetAuthHooks(t *testing.T) {
	t.Cleanup(Reset)

	rec := &recordingAuthHooks{}
	SetAuthHooks(rec)

	Auth().OnTokenExpired(context.Background(), "app")
	Auth().OnAuthRefused(context.Background(), "get_user")

	if rec.expired != 1 || rec.refused != 1 {
		t.Errorf("expired = %d, refused = %d, want 1, 1", rec.expired, rec.refused)
	}
}

func TestSetNilKeepsExisting(t *testing.T) {
	t.Cleanup(Reset)

	rec := &recordingHTTPHooks{}
	SetHTTPHooks(rec)
	SetHTTPHooks(nil)

	HTTP().OnRequest(context.Background(), "GET", "h", "/")
	if rec.requests != 1 {
		t.Error("nil registration should not replace existing hooks")
	}
}

func TestReset(t *testing.T) {
	rec := &recordingHTTPHooks{}
	SetHTTPHooks(rec)
	Reset()

	HTTP().OnRequest(context.Background(), "GET", "h", "/")
	if rec.requests != 0 {
		t.Error("Reset() should restore no-op hooks")
	}
}
