package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"tripboard/globals"
)

func echoUser(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID, _ := r.Context().Value(globals.UserIDKey).(string)
	w.Write([]byte(userID))
}

func TestAuthenticate(t *testing.T) {
	auth := NewAuth([]byte("secret"))
	good, err := auth.Issue("u1", "alice", time.Hour)
	require.NoError(t, err)
	expired, err := auth.Issue("u1", "alice", -time.Hour)
	require.NoError(t, err)
	foreign, err := NewAuth([]byte("other")).Issue("u1", "alice", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"valid", "Bearer " + good, http.StatusOK, "u1"},
		{"missing", "", http.StatusUnauthorized, ""},
		{"no bearer prefix", good, http.StatusUnauthorized, ""},
		{"expired", "Bearer " + expired, http.StatusUnauthorized, ""},
		{"wrong secret", "Bearer " + foreign, http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			auth.Authenticate(echoUser)(rec, req, nil)

			assert.Equal(t, tt.status, rec.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, rec.Body.String())
			}
		})
	}
}

func TestAuthenticatePassesWebsocketUpgrade(t *testing.T) {
	auth := NewAuth([]byte("secret"))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	rec := httptest.NewRecorder()

	auth.Authenticate(echoUser)(rec, req, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestOptionalAuth(t *testing.T) {
	auth := NewAuth([]byte("secret"))
	token, err := auth.Issue("u2", "bob", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	auth.OptionalAuth(echoUser)(rec, req, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	auth.OptionalAuth(echoUser)(rec, req, nil)
	assert.Equal(t, "u2", rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec = httptest.NewRecorder()
	auth.OptionalAuth(echoUser)(rec, req, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestUserID(t *testing.T) {
	auth := NewAuth([]byte("secret"))
	token, err := auth.Issue("u3", "carol", time.Hour)
	require.NoError(t, err)

	userID, err := auth.UserID(token)
	require.NoError(t, err)
	assert.Equal(t, "u3", userID)

	_, err = auth.UserID("not-a-token")
	assert.Error(t, err)

	empty, err := auth.Issue("", "nobody", time.Hour)
	require.NoError(t, err)
	_, err = auth.UserID(empty)
	assert.Error(t, err)
}

func TestAccessLogKeepsStatus(t *testing.T) {
	h := AccessLog(arbor.NewLogger(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}
