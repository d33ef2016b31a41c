package strava

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(serverURL string) *Client {
	c := NewClient("client-id", "client-secret")
	c.APIBase = serverURL
	c.TokenURL = serverURL + "/oauth/token"
	c.AuthURL = serverURL + "/oauth/authorize"
	return c
}

func TestAuthorizationURL(t *testing.T) {
	c := NewClient("42", "secret")
	raw := c.AuthorizationURL("https://localhost/exchange_token", "activity:read_all")

	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "42", q.Get("client_id"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "https://localhost/exchange_token", q.Get("redirect_uri"))
	assert.Equal(t, "activity:read_all", q.Get("scope"))
	assert.Equal(t, "force", q.Get("approval_prompt"))
}

func TestExchangeCodeSendsForm(t *testing.T) {
	var got url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		got = r.PostForm
		w.Write([]byte(`{"access_token":"at","refresh_token":"rt","expires_at":1700000000,"athlete":{"id":123}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	tok, err := c.ExchangeCode(context.Background(), "the-code")
	require.NoError(t, err)

	assert.Equal(t, "client-id", got.Get("client_id"))
	assert.Equal(t, "client-secret", got.Get("client_secret"))
	assert.Equal(t, "the-code", got.Get("code"))
	assert.Equal(t, "authorization_code", got.Get("grant_type"))

	assert.Equal(t, "at", tok.AccessToken)
	assert.Equal(t, "rt", tok.RefreshToken)
	assert.Equal(t, int64(1700000000), tok.ExpiresAt)
	assert.Equal(t, int64(123), tok.Athlete.ID)
}

func TestRefreshSendsForm(t *testing.T) {
	var got url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		got = r.PostForm
		w.Write([]byte(`{"access_token":"new-at","refresh_token":"new-rt","expires_at":1}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	tok, err := c.Refresh(context.Background(), "old-rt")
	require.NoError(t, err)

	assert.Equal(t, "old-rt", got.Get("refresh_token"))
	assert.Equal(t, "refresh_token", got.Get("grant_type"))
	assert.Equal(t, "new-rt", tok.RefreshToken)
}

func TestRefreshErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Bad Request"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.Refresh(context.Background(), "revoked")
	assert.Error(t, err)
}

func TestTokenResponseMissingTokens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"expires_at":1}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.ExchangeCode(context.Background(), "code")
	assert.Error(t, err)
}

func TestActivitiesPaginationAndAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/athlete/activities", r.URL.Path)
		assert.Equal(t, "Bearer token-xyz", r.Header.Get("Authorization"))
		assert.Equal(t, "30", r.URL.Query().Get("per_page"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		w.Write([]byte(`[
			{"id":1,"name":"Morning Run","distance":5012.5,"moving_time":1800,
			 "total_elevation_gain":42.0,"type":"Run",
			 "start_date_local":"2026-08-30T07:10:00Z",
			 "map":{"summary_polyline":"abc123"}}
		]`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	activities, err := c.Activities(context.Background(), "token-xyz", 30, 2)
	require.NoError(t, err)
	require.Len(t, activities, 1)

	a := activities[0]
	assert.Equal(t, int64(1), a.ID)
	assert.Equal(t, "Morning Run", a.Name)
	assert.Equal(t, 5012.5, a.Distance)
	assert.Equal(t, 1800, a.MovingTime)
	assert.Equal(t, "Run", a.Type)
	assert.Equal(t, "abc123", a.Map.SummaryPolyline)
}
