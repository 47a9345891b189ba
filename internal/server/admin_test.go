package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/cv-intake/internal/store"
)

func authed(method, target, token string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestToken_Login(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{name: "wrong password", body: `{"username":"admin","password":"nope"}`, wantStatus: http.StatusUnauthorized},
		{name: "wrong user", body: `{"username":"root","password":"s3cret"}`, wantStatus: http.StatusUnauthorized},
		{name: "missing password", body: `{"username":"admin"}`, wantStatus: http.StatusBadRequest},
		{name: "not json", body: `username=admin`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			w := env.do(httptest.NewRequest(http.MethodPost, "/api/v1/auth/token", strings.NewReader(tt.body)))
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}

	t.Run("valid credentials", func(t *testing.T) {
		env := newTestEnv(t, nil)
		token := env.login(t)

		claims, err := env.server.JWT().ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, "admin", claims.Subject)
	})
}

func TestCandidates_RequiresToken(t *testing.T) {
	env := newTestEnv(t, nil)

	for _, path := range []string{"/api/v1/candidates", "/api/v1/stats"} {
		w := env.do(httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)

		w = env.do(authed(http.MethodGet, path, "forged"))
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestCandidates_ListAndSearch(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seed(t,
		[2]string{"Asha Rao", "asha.rao@example.com"},
		[2]string{"Ravi Kumar", "ravi@example.com"},
		[2]string{"Meera Nair", "meera@example.com"},
	)
	token := env.login(t)

	w := env.do(authed(http.MethodGet, "/api/v1/candidates?limit=2", token))
	require.Equal(t, http.StatusOK, w.Code)
	var list CandidateList
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Equal(t, 2, list.Count)
	assert.Equal(t, "Meera Nair", list.Candidates[0].Record.Name, "newest first")
	assert.Equal(t, "Ravi Kumar", list.Candidates[1].Record.Name)

	w = env.do(authed(http.MethodGet, "/api/v1/candidates?email=ASHA.RAO@example.com", token))
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "Asha Rao", list.Candidates[0].Record.Name)

	w = env.do(authed(http.MethodGet, "/api/v1/candidates?email=nobody@example.com", token))
	assert.Equal(t, http.StatusNotFound, w.Code)

	for _, bad := range []string{"0", "501", "ten"} {
		w = env.do(authed(http.MethodGet, "/api/v1/candidates?limit="+bad, token))
		assert.Equal(t, http.StatusBadRequest, w.Code, bad)
	}
}

func TestCandidates_EmptyStore(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.login(t)

	w := env.do(authed(http.MethodGet, "/api/v1/candidates", token))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"count":0,"candidates":[]}`, w.Body.String())
}

func TestStats(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seed(t,
		[2]string{"Asha Rao", "asha.rao@example.com"},
		[2]string{"Asha Rao", "ASHA.RAO@example.com"},
		[2]string{"Ravi Kumar", "ravi@example.com"},
	)
	token := env.login(t)

	w := env.do(authed(http.MethodGet, "/api/v1/stats", token))
	require.Equal(t, http.StatusOK, w.Code)

	var st store.Stats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	assert.Equal(t, 2, st.Total)
	assert.Equal(t, map[string]int{"Updated": 1, "New": 1}, st.ByStatus)
	assert.Equal(t, 2, st.WithEmail)
	assert.Equal(t, 0, st.WithPhone)
}

func TestAdminAPI_DisabledWithoutSecret(t *testing.T) {
	env := newTestEnv(t, func(o *Options) { o.Auth.JWTSecret = "" })

	w := env.do(httptest.NewRequest(http.MethodPost, "/api/v1/auth/token", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Nil(t, env.server.JWT())
}

func TestAdminAPI_RateLimitedPerIP(t *testing.T) {
	env := newTestEnv(t, nil)

	var last int
	for i := 0; i < 4; i++ {
		w := env.do(httptest.NewRequest(http.MethodPost, "/api/v1/auth/token",
			strings.NewReader(`{"username":"admin","password":"nope"}`)))
		last = w.Code
	}
	assert.Equal(t, http.StatusTooManyRequests, last, "token endpoint allows a burst of 3")
}
