package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/heartmarshall/whosright-backend/pkg/ctxutil"
)

func TestRequestID_ReuseIncoming(t *testing.T) {
	incomingID := uuid.New().String()

	var gotID string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = ctxutil.RequestIDFromCtx(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, incomingID)
	rec := httptest.NewRecorder()

	RequestID()(handler).ServeHTTP(rec, req)

	if gotID != incomingID {
		t.Errorf("expected requestID %s, got %s", incomingID, gotID)
	}
	if got := rec.Header().Get(RequestIDHeader); got != incomingID {
		t.Errorf("expected response header %s, got %s", incomingID, got)
	}
}

func TestRequestID_GeneratesWhenMissingOrInvalid(t *testing.T) {
	for _, incoming := range []string{"", strings.Repeat("a", 65), "bad id\n"} {
		var gotID string
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotID = ctxutil.RequestIDFromCtx(r.Context())
		})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if incoming != "" {
			req.Header[RequestIDHeader] = []string{incoming}
		}
		rec := httptest.NewRecorder()

		RequestID()(handler).ServeHTTP(rec, req)

		if _, err := uuid.Parse(gotID); err != nil {
			t.Errorf("incoming %q: expected generated UUID, got %q", incoming, gotID)
		}
		if got := rec.Header().Get(RequestIDHeader); got != gotID {
			t.Errorf("incoming %q: response header %q does not match context %q", incoming, got, gotID)
		}
	}
}
