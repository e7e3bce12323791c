package sdk_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pachada/ReactBase/pkg/sdk"
)

// fakeRefresher hands out a fixed token, or fails, and counts calls.
type fakeRefresher struct {
	token   string
	err     error
	delay   time.Duration
	calls   atomic.Int32
	expired atomic.Int32
}

func (f *fakeRefresher) Refresh(ctx context.Context) (string, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.token, f.err
}

func (f *fakeRefresher) OnSessionExpired(ctx context.Context) {
	f.expired.Add(1)
}

// tokenGate answers 200 for requests bearing the accepted token and 401 otherwise.
func tokenGate(t *testing.T, accepted string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get("Authorization") != "Bearer "+accepted {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"token expired"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":"ok"}`))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestClientRetriesOnceAfterRefresh(t *testing.T) {
	srv, hits := tokenGate(t, "fresh")
	client := sdk.NewClient(srv.URL)
	refresher := &fakeRefresher{token: "fresh"}
	client.SetRefresher(refresher)

	env, err := sdk.Request[sdk.MessageEnvelope](context.Background(), client, "/v1/sessions", sdk.RequestOptions{Token: "stale"})
	require.NoError(t, err)
	assert.Equal(t, "ok", env.Message)
	assert.Equal(t, int32(1), refresher.calls.Load())
	assert.Equal(t, int32(2), hits.Load())
	assert.Zero(t, refresher.expired.Load())
}

func TestClientRetryStillUnauthorizedSurfacesAPIError(t *testing.T) {
	srv, hits := tokenGate(t, "never")
	client := sdk.NewClient(srv.URL)
	refresher := &fakeRefresher{token: "also-wrong"}
	client.SetRefresher(refresher)

	err := client.Do(context.Background(), "/v1/sessions", sdk.RequestOptions{Token: "stale"}, nil)
	require.Error(t, err)
	assert.True(t, sdk.IsStatus(err, http.StatusUnauthorized))
	assert.False(t, errors.Is(err, sdk.ErrSessionExpired))
	assert.Equal(t, int32(1), refresher.calls.Load())
	assert.Equal(t, int32(2), hits.Load())
}

func TestClientRefreshFailureExpiresSession(t *testing.T) {
	tests := []struct {
		name      string
		refresher *fakeRefresher
	}{
		{name: "empty token", refresher: &fakeRefresher{}},
		{name: "refresh error", refresher: &fakeRefresher{err: errors.New("refresh token revoked")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, hits := tokenGate(t, "fresh")
			client := sdk.NewClient(srv.URL)
			client.SetRefresher(tt.refresher)

			err := client.Do(context.Background(), "/v1/sessions", sdk.RequestOptions{Token: "stale"}, nil)
			require.ErrorIs(t, err, sdk.ErrSessionExpired)
			assert.Equal(t, int32(1), tt.refresher.expired.Load())
			assert.Equal(t, int32(1), hits.Load(), "request must not be retried")
		})
	}
}

func TestClientWithoutRefresherReturnsUnauthorized(t *testing.T) {
	srv, _ := tokenGate(t, "fresh")
	client := sdk.NewClient(srv.URL)

	err := client.Do(context.Background(), "/v1/sessions", sdk.RequestOptions{Token: "stale"}, nil)
	var apiErr *sdk.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "token expired", apiErr.Message())
}

func TestClientSkipRefresh(t *testing.T) {
	srv, _ := tokenGate(t, "fresh")
	client := sdk.NewClient(srv.URL)
	refresher := &fakeRefresher{token: "fresh"}
	client.SetRefresher(refresher)

	err := client.Do(context.Background(), "/v1/sessions/login", sdk.RequestOptions{Method: http.MethodPost, SkipRefresh: true}, nil)
	assert.True(t, sdk.IsStatus(err, http.StatusUnauthorized))
	assert.Zero(t, refresher.calls.Load())
}

func TestClientCoalescesConcurrentRefreshes(t *testing.T) {
	srv, _ := tokenGate(t, "fresh")
	client := sdk.NewClient(srv.URL)
	refresher := &fakeRefresher{token: "fresh", delay: 100 * time.Millisecond}
	client.SetRefresher(refresher)

	const callers = 5
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = client.Do(context.Background(), "/v1/users", sdk.RequestOptions{Token: "stale"}, nil)
		}()
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), refresher.calls.Load())
}

func TestClientCancelledContextSkipsRefresh(t *testing.T) {
	srv, _ := tokenGate(t, "fresh")
	client := sdk.NewClient(srv.URL)
	refresher := &fakeRefresher{token: "fresh"}
	client.SetRefresher(refresher)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := client.Do(ctx, "/v1/users", sdk.RequestOptions{Token: "stale"}, nil)
	require.Error(t, err)
	assert.Zero(t, refresher.calls.Load())
	assert.Zero(t, refresher.expired.Load())
}

func TestClientNoContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)

	client := sdk.NewClient(srv.URL)
	env, err := sdk.Request[sdk.MessageEnvelope](context.Background(), client, "/v1/sessions/logout", sdk.RequestOptions{Method: http.MethodPost})
	require.NoError(t, err)
	assert.Nil(t, env)
}

func TestClientErrorBodies(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
		wantNilBody bool
	}{
		{name: "error field", status: http.StatusBadRequest, body: `{"error":"username taken"}`, wantMessage: "username taken"},
		{name: "message field", status: http.StatusNotFound, body: `{"message":"not found"}`, wantMessage: "not found"},
		{name: "non json", status: http.StatusBadGateway, body: `<html>bad gateway</html>`, wantNilBody: true},
		{name: "empty", status: http.StatusInternalServerError, wantNilBody: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			t.Cleanup(srv.Close)

			err := sdk.NewClient(srv.URL).Do(context.Background(), "/v1/users", sdk.RequestOptions{}, nil)
			var apiErr *sdk.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.wantMessage, apiErr.Message())
			if tt.wantNilBody {
				assert.Nil(t, apiErr.Body)
			}
		})
	}
}

func TestClientSendsJSONAndBearer(t *testing.T) {
	var gotAuth, gotType, gotCustom string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		gotCustom = r.Header.Get("X-Request-Id")
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)

	client := sdk.NewClient(srv.URL + "/")
	err := client.Do(context.Background(), "/v1/roles", sdk.RequestOptions{
		Method:  http.MethodPost,
		Token:   "abc",
		Body:    sdk.RoleInput{Name: "editor"},
		Headers: map[string]string{"X-Request-Id": "42"},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Bearer abc", gotAuth)
	assert.Equal(t, "application/json", gotType)
	assert.Equal(t, "42", gotCustom)
}
