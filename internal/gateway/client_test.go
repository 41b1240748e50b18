package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeAuth struct {
	token      string
	calls      atomic.Int32
	suppressed atomic.Bool
}

func (a *fakeAuth) Token(context.Context) (string, error) { return a.token, nil }

func (a *fakeAuth) HandleUnauthorized(ctx context.Context) {
	a.calls.Add(1)
	a.suppressed.Store(RedirectSuppressed(ctx))
}

func newTestClient(t *testing.T, handler http.HandlerFunc, auth Auth) (*Client, *atomic.Int32) {
	t.Helper()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	c := New(Config{BaseURL: srv.URL, Timeout: time.Second}, zap.NewNop(), WithDefaultAuth(auth))
	return c, &hits
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestClient_AttachesBearerAndDecodesEnvelope(t *testing.T) {
	auth := &fakeAuth{token: "tkn"}
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tkn", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]string{"id": "p1"}})
	}, auth)

	var out struct {
		ID string `json:"id"`
	}
	require.NoError(t, c.Get(context.Background(), "/products/p1", &out))
	assert.Equal(t, "p1", out.ID)
}

func TestClient_AcceptsBarePayload(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, []map[string]string{{"id": "a"}, {"id": "b"}})
	}, nil)

	var out []struct {
		ID string `json:"id"`
	}
	require.NoError(t, c.Get(context.Background(), "/products", &out))
	assert.Len(t, out, 2)
}

func TestClient_UnauthorizedInvokesHandlerOnce(t *testing.T) {
	auth := &fakeAuth{token: "expired"}
	c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "token expired"})
	}, auth)

	err := c.Get(context.Background(), "/cart", nil)
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, http.StatusUnauthorized, StatusCode(err))
	assert.Equal(t, int32(1), auth.calls.Load())
	assert.Equal(t, int32(1), hits.Load())
	assert.False(t, auth.suppressed.Load())

	err = c.Get(WithoutRedirect(context.Background()), "/auth/me", nil)
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, int32(2), auth.calls.Load())
	assert.True(t, auth.suppressed.Load())
}

func TestClient_UnauthorizedHandlerCanBeSkipped(t *testing.T) {
	auth := &fakeAuth{token: "still-valid"}
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "invalid email or password"})
	}, auth)

	err := c.Post(WithoutUnauthorizedHandler(context.Background()), "/auth/login", map[string]string{}, nil)
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, "invalid email or password", Message(err))
	assert.Zero(t, auth.calls.Load())
}

func TestClient_ContextAuthOverridesDefault(t *testing.T) {
	fallback := &fakeAuth{token: "default"}
	bound := &fakeAuth{token: "bound"}

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "Bearer bound" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "nope"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": nil})
	}, fallback)

	require.NoError(t, c.Get(context.Background(), "/x", nil))

	err := c.Get(WithAuth(context.Background(), bound), "/x", nil)
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, int32(1), bound.calls.Load())
	assert.Equal(t, int32(0), fallback.calls.Load())
}

func TestClient_ValidationMessageSurfaces(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusConflict, map[string]string{"message": "email already registered"})
	}, nil)

	err := c.Post(context.Background(), "/auth/register", map[string]string{"email": "a@b.c"}, nil)
	require.Error(t, err)
	assert.Equal(t, "email already registered", Message(err))
	assert.Equal(t, http.StatusConflict, StatusCode(err))
}

func TestClient_NoRetryAndBreakerOpens(t *testing.T) {
	c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "boom"})
	}, nil)

	ctx := context.Background()
	err := c.Get(ctx, "/products", nil)
	require.Error(t, err)
	assert.Equal(t, "boom", Message(err))
	assert.Equal(t, int32(1), hits.Load())

	for i := 0; i < 4; i++ {
		_ = c.Get(ctx, "/products", nil)
	}
	assert.Equal(t, int32(5), hits.Load())

	err = c.Get(ctx, "/products", nil)
	require.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(5), hits.Load())
}

func TestClient_ClientErrorsDoNotTripBreaker(t *testing.T) {
	c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "not found"})
	}, nil)

	for i := 0; i < 8; i++ {
		err := c.Get(context.Background(), "/products/missing", nil)
		require.True(t, IsNotFound(err))
	}
	assert.Equal(t, int32(8), hits.Load())
}

func TestClient_TransportError(t *testing.T) {
	c := New(Config{BaseURL: "http://127.0.0.1:1", Timeout: 200 * time.Millisecond}, zap.NewNop())

	err := c.Get(context.Background(), "/products", nil)
	require.ErrorIs(t, err, ErrTransport)
}
