package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/xby-111/bill/internal/models"
	"github.com/xby-111/bill/internal/service"
	"github.com/xby-111/bill/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeAuth struct {
	token string
	err   error
}

func (f fakeAuth) Authenticate(_ context.Context, token string) (*models.User, *util.Claims, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	if token != f.token {
		return nil, nil, service.ErrInvalidCredentials
	}
	return &models.User{ID: 1, Username: "alice"}, &util.Claims{}, nil
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newEngine(auth Authenticator, log *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(RequestLogger(log))
	r.GET("/me", AuthMiddleware(auth, log), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"username": CurrentUser(c).Username, "claims": CurrentClaims(c) != nil})
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	cases := []struct {
		name       string
		auth       fakeAuth
		header     string
		wantStatus int
	}{
		{"valid", fakeAuth{token: "good"}, "Bearer good", http.StatusOK},
		{"scheme is case-insensitive", fakeAuth{token: "good"}, "bearer good", http.StatusOK},
		{"missing header", fakeAuth{token: "good"}, "", http.StatusUnauthorized},
		{"wrong scheme", fakeAuth{token: "good"}, "Basic good", http.StatusUnauthorized},
		{"invalid token", fakeAuth{token: "good"}, "Bearer bad", http.StatusUnauthorized},
		{"store failure", fakeAuth{err: errors.New("db down")}, "Bearer good", http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newEngine(tc.auth, discard())
			req := httptest.NewRequest(http.MethodGet, "/me", http.NoBody)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			require.Equal(t, tc.wantStatus, w.Code, w.Body.String())
			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			switch tc.wantStatus {
			case http.StatusOK:
				assert.Equal(t, "alice", body["username"])
				assert.Equal(t, true, body["claims"])
			case http.StatusUnauthorized:
				assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
				assert.Equal(t, float64(util.CodeAuth), body["code"])
				assert.NotContains(t, body, "username")
			default:
				assert.Equal(t, "Internal server error", body["message"], "cause must not leak")
			}
		})
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))
	r := newEngine(fakeAuth{token: "good"}, log)

	req := httptest.NewRequest(http.MethodGet, "/me", http.NoBody)
	req.Header.Set("Authorization", "Bearer good")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	id := w.Header().Get(RequestIDHeader)
	_, err := uuid.Parse(id)
	require.NoError(t, err, "response should carry a generated request id")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, id, entry["request_id"])
	assert.Equal(t, "/me", entry["path"])
	assert.Equal(t, float64(http.StatusOK), entry["status"])
	assert.Equal(t, "alice", entry["user"])
}

func TestRequestLoggerKeepsIncomingID(t *testing.T) {
	r := newEngine(fakeAuth{token: "good"}, discard())
	incoming := uuid.NewString()

	req := httptest.NewRequest(http.MethodGet, "/me", http.NoBody)
	req.Header.Set(RequestIDHeader, incoming)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, incoming, w.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/me", http.NoBody)
	req.Header.Set(RequestIDHeader, "not-a-uuid")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.NotEqual(t, "not-a-uuid", w.Header().Get(RequestIDHeader))
}
