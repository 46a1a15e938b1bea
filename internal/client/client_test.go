package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/AlekseyZapadovnikov/pr-loadgen/internal/domain"
	"github.com/AlekseyZapadovnikov/pr-loadgen/internal/models"
)

type captured struct {
	method string
	path   string
	query  url.Values
	body   []byte
}

type recorder struct {
	mu   sync.Mutex
	last captured
}

func (r *recorder) get() captured {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

func newRecordingServer(t *testing.T, status int, reply string) (*httptest.Server, *recorder) {
	t.Helper()
	rec := &recorder{}
	r := chi.NewRouter()
	r.HandleFunc("/*", func(w http.ResponseWriter, req *http.Request) {
		body, _ := io.ReadAll(req.Body)
		rec.mu.Lock()
		rec.last = captured{method: req.Method, path: req.URL.Path, query: req.URL.Query(), body: body}
		rec.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, reply)
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, rec
}

func TestClientEndpoints(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		call     func(c *Client) Response
		endpoint Endpoint
		method   string
		path     string
		query    url.Values
		body     map[string]any
	}{
		{
			name: "add team",
			call: func(c *Client) Response {
				return c.AddTeam(ctx, models.Team{TeamName: "core", Members: []models.TeamMember{}})
			},
			endpoint: EndpointTeamAdd,
			method:   http.MethodPost,
			path:     "/team/add",
			body:     map[string]any{"team_name": "core", "members": []any{}},
		},
		{
			name:     "get team",
			call:     func(c *Client) Response { return c.GetTeam(ctx, "core") },
			endpoint: EndpointTeamGet,
			method:   http.MethodGet,
			path:     "/team/get",
			query:    url.Values{"team_name": {"core"}},
		},
		{
			name: "set is active",
			call: func(c *Client) Response {
				return c.SetIsActive(ctx, models.PostUsersSetIsActiveJSONBody{UserId: "u1", IsActive: false})
			},
			endpoint: EndpointUserSetIsActive,
			method:   http.MethodPost,
			path:     "/users/setIsActive",
			body:     map[string]any{"user_id": "u1", "is_active": false},
		},
		{
			name:     "get review",
			call:     func(c *Client) Response { return c.GetReview(ctx, "u1") },
			endpoint: EndpointUserGetReview,
			method:   http.MethodGet,
			path:     "/users/getReview",
			query:    url.Values{"user_id": {"u1"}},
		},
		{
			name: "merge",
			call: func(c *Client) Response {
				return c.MergePullRequest(ctx, models.PostPullRequestMergeJSONBody{PullRequestId: "pr-1"})
			},
			endpoint: EndpointPRMerge,
			method:   http.MethodPost,
			path:     "/pullRequest/merge",
			body:     map[string]any{"pull_request_id": "pr-1"},
		},
		{
			name: "reassign",
			call: func(c *Client) Response {
				return c.ReassignPullRequest(ctx, models.PostPullRequestReassignJSONBody{PullRequestId: "pr-1", OldReviewerId: "u2"})
			},
			endpoint: EndpointPRReassign,
			method:   http.MethodPost,
			path:     "/pullRequest/reassign",
			body:     map[string]any{"pull_request_id": "pr-1", "old_reviewer_id": "u2"},
		},
		{
			name:     "stats without filter",
			call:     func(c *Client) Response { return c.AssignmentStats(ctx, models.StatsFilter{}) },
			endpoint: EndpointStatsAssignments,
			method:   http.MethodGet,
			path:     "/stats/reviewers/assignments",
			query:    url.Values{},
		},
		{
			name: "stats with filter",
			call: func(c *Client) Response {
				return c.AssignmentStats(ctx, models.StatsFilter{Status: "OPEN", ActiveOnly: true})
			},
			endpoint: EndpointStatsAssignments,
			method:   http.MethodGet,
			path:     "/stats/reviewers/assignments",
			query:    url.Values{"status": {"OPEN"}, "active_only": {"true"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, rec := newRecordingServer(t, http.StatusOK, `{"ok":true}`)
			resp := tt.call(New(srv.URL+"/", time.Second))
			last := rec.get()

			require.NoError(t, resp.Err)
			require.Equal(t, tt.endpoint, resp.Endpoint)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			require.JSONEq(t, `{"ok":true}`, string(resp.Body))
			require.Positive(t, resp.Duration)

			require.Equal(t, tt.method, last.method)
			require.Equal(t, tt.path, last.path)
			if tt.query != nil {
				require.Equal(t, tt.query, last.query)
			}
			if tt.body != nil {
				var got map[string]any
				require.NoError(t, json.Unmarshal(last.body, &got))
				require.Equal(t, tt.body, got)
			}
		})
	}
}

func TestClientNon2xxIsNotAnError(t *testing.T) {
	srv, _ := newRecordingServer(t, http.StatusNotFound, `{"error":{"code":"NOT_FOUND","message":"nope"}}`)

	resp := New(srv.URL, time.Second).GetTeam(context.Background(), "ghost")
	require.NoError(t, resp.Err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body models.ErrorResponse
	require.NoError(t, resp.Decode(&body))
	require.Equal(t, models.NOTFOUND, body.Error.Code)
}

func TestClientTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	resp := New(addr, time.Second).GetReview(context.Background(), "u1")
	require.Error(t, resp.Err)
	require.Zero(t, resp.StatusCode)
	require.ErrorContains(t, resp.Err, string(EndpointUserGetReview))

	var v any
	require.Error(t, resp.Decode(&v))
}

func TestClientTimeout(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/team/get", func(w http.ResponseWriter, req *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-req.Context().Done():
		}
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	resp := New(srv.URL, 50*time.Millisecond).GetTeam(context.Background(), "slow")
	require.Error(t, resp.Err)
	require.Less(t, resp.Duration, time.Second)
}

func TestResponseDecodeMalformed(t *testing.T) {
	resp := Response{Endpoint: EndpointTeamGet, StatusCode: http.StatusOK, Body: []byte("not json")}
	var v map[string]any
	err := resp.Decode(&v)
	require.ErrorContains(t, err, "decode GET /team/get response")
}

func TestWaitHealthy(t *testing.T) {
	var hits atomic.Int32
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	c := New(srv.URL, time.Second)
	require.NoError(t, c.waitHealthy(context.Background(), "/health", time.Second, 10*time.Millisecond))
	require.EqualValues(t, 3, hits.Load())
}

func TestWaitHealthyTimeout(t *testing.T) {
	srv, _ := newRecordingServer(t, http.StatusInternalServerError, "{}")

	c := New(srv.URL, time.Second)
	err := c.waitHealthy(context.Background(), "/health", 50*time.Millisecond, 10*time.Millisecond)
	require.ErrorIs(t, err, domain.ErrTargetUnhealthy)
	require.ErrorContains(t, err, "unexpected status 500")
}

func TestWaitHealthyCancelled(t *testing.T) {
	srv, _ := newRecordingServer(t, http.StatusInternalServerError, "{}")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := New(srv.URL, time.Second).waitHealthy(ctx, "/health", time.Minute, 10*time.Millisecond)
	require.ErrorIs(t, err, domain.ErrTargetUnhealthy)
}
