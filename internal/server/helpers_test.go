package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/cv-intake/internal/config"
	"github.com/jonathan/cv-intake/internal/intake"
	"github.com/jonathan/cv-intake/internal/messaging"
	"github.com/jonathan/cv-intake/internal/store"
	"github.com/jonathan/cv-intake/internal/types"
)

const (
	testAuthToken = "twilio-auth-token"
	testSecret    = "test-secret-key-0123456789"
	testSender    = "whatsapp:+919876543210"
)

// fakeHandler records the messages it is given.
type fakeHandler struct {
	mu   sync.Mutex
	msgs []*messaging.InboundMessage
	ctxs []context.Context
	err  error
}

func (h *fakeHandler) Handle(ctx context.Context, msg *messaging.InboundMessage) (*intake.Outcome, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.msgs = append(h.msgs, msg)
	h.ctxs = append(h.ctxs, ctx)
	out := &intake.Outcome{
		SubmissionID: uuid.New(),
		Received:     msg.Timestamp,
		Stage:        intake.StageSaved,
	}
	return out, h.err
}

func (h *fakeHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.msgs)
}

// fakeSender records outgoing replies.
type fakeSender struct {
	mu   sync.Mutex
	sent []sentReply
	err  error
}

type sentReply struct {
	to, body string
}

func (s *fakeSender) Send(_ context.Context, to, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sentReply{to: to, body: body})
	return s.err
}

func (s *fakeSender) replies() []sentReply {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sentReply(nil), s.sent...)
}

type testEnv struct {
	server   *Server
	handler  *fakeHandler
	sender   *fakeSender
	registry *store.Registry
}

func newTestEnv(t *testing.T, mutate func(*Options)) *testEnv {
	t.Helper()

	hash, err := config.HashPassword("s3cret", "", 10)
	require.NoError(t, err)

	registry := store.NewRegistry(store.NewMemory())
	handler := &fakeHandler{}
	sender := &fakeSender{}
	opts := Options{
		Server: config.ServerConfig{
			Port:               0,
			RateLimitPerMinute: 60,
			RateLimitBurst:     5,
		},
		Auth: config.AuthConfig{
			AdminUsername:      "admin",
			AdminPasswordHash:  hash,
			JWTSecret:          testSecret,
			JWTExpirationHours: 1,
		},
		Twilio:     config.TwilioConfig{AuthToken: testAuthToken},
		Version:    "1.2.3",
		Handler:    handler,
		Candidates: registry,
		Sender:     sender,
	}
	if mutate != nil {
		mutate(&opts)
	}

	s, err := New(opts)
	require.NoError(t, err)
	t.Cleanup(s.rateLimiter.Stop)
	return &testEnv{server: s, handler: handler, sender: sender, registry: registry}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(w, req)
	return w
}

func webhookRequest(form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func chatForm(from, body string) url.Values {
	return url.Values{"From": {from}, "To": {"whatsapp:+14155238886"}, "Body": {body}, "NumMedia": {"0"}}
}

func (e *testEnv) login(t *testing.T) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/token",
		strings.NewReader(`{"username":"admin","password":"s3cret"}`))
	w := e.do(req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func (e *testEnv) seed(t *testing.T, people ...[2]string) {
	t.Helper()
	for i, p := range people {
		rec := types.NewCandidateRecord()
		rec.Name = p[0]
		rec.Email = p[1]
		ts := time.Date(2025, 3, 4, 10, i, 0, 0, time.UTC)
		_, err := e.registry.Save(context.Background(), types.NewSubmissionEnvelope(testSender, ts, rec))
		require.NoError(t, err)
	}
}
