package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/inkwell-labs/inkwell/internal/domain"
	"github.com/inkwell-labs/inkwell/internal/usecase/pipeline"
)

type mockAsk struct {
	resp    pipeline.Response
	err     error
	lastReq pipeline.Request
}

func (m *mockAsk) Ask(_ context.Context, req pipeline.Request) (pipeline.Response, error) {
	m.lastReq = req
	return m.resp, m.err
}

type mockPinger struct{ err error }

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

func newTestRouter(ask *mockAsk, db *mockPinger) http.Handler {
	r := chi.NewRouter()
	NewServer(ask, db, nil, zap.NewNop()).Routes(r)
	return r
}

func TestHandleAsk_OK(t *testing.T) {
	ask := &mockAsk{resp: pipeline.Response{RequestID: "r1", Answer: "you slept fine"}}
	router := newTestRouter(ask, &mockPinger{})

	body := `{
		"user_id": "u1",
		"message": "how did I sleep?",
		"timezone": "Europe/Berlin",
		"history": [{"role": "user", "content": "hi"}]
	}`
	req := httptest.NewRequest("POST", "/v1/ask", strings.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rr.Code, rr.Body.String())
	}

	var resp pipeline.Response
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Answer != "you slept fine" {
		t.Errorf("answer = %q", resp.Answer)
	}

	if ask.lastReq.UserID != "u1" || ask.lastReq.Timezone != "Europe/Berlin" {
		t.Errorf("request not forwarded: %+v", ask.lastReq)
	}
	if len(ask.lastReq.History) != 1 || ask.lastReq.History[0].Content != "hi" {
		t.Errorf("history not forwarded: %+v", ask.lastReq.History)
	}
}

func TestHandleAsk_BadJSON(t *testing.T) {
	router := newTestRouter(&mockAsk{}, &mockPinger{})

	req := httptest.NewRequest("POST", "/v1/ask", strings.NewReader("{not json"))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestHandleAsk_InvalidInput400(t *testing.T) {
	ask := &mockAsk{err: domain.ErrInvalidInput}
	router := newTestRouter(ask, &mockPinger{})

	req := httptest.NewRequest("POST", "/v1/ask", strings.NewReader(`{"user_id":"","message":""}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestHandleAsk_DateRangeForwarded(t *testing.T) {
	ask := &mockAsk{}
	router := newTestRouter(ask, &mockPinger{})

	body := `{
		"user_id": "u1",
		"message": "what happened",
		"start_date": "2025-05-01T00:00:00Z",
		"end_date": "2025-05-08T00:00:00Z",
		"strict_dates": true
	}`
	req := httptest.NewRequest("POST", "/v1/ask", strings.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if ask.lastReq.Range == nil {
		t.Fatal("expected a forwarded time range")
	}
	if !ask.lastReq.StrictDates {
		t.Error("strict_dates not forwarded")
	}
	if got := ask.lastReq.Range.Start.Format("2006-01-02"); got != "2025-05-01" {
		t.Errorf("start = %s", got)
	}
}

func TestHandleHealth(t *testing.T) {
	router := newTestRouter(&mockAsk{}, &mockPinger{})

	req := httptest.NewRequest("GET", "/health", http.NoBody)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rr.Code)
	}

	routerDown := newTestRouter(&mockAsk{}, &mockPinger{err: errors.New("down")})
	rr = httptest.NewRecorder()
	routerDown.ServeHTTP(rr, httptest.NewRequest("GET", "/health", http.NoBody))

	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rr.Code)
	}
}
