package scenario

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/AlekseyZapadovnikov/pr-loadgen/internal/checks"
	"github.com/AlekseyZapadovnikov/pr-loadgen/internal/client"
	"github.com/AlekseyZapadovnikov/pr-loadgen/internal/fixtures"
	"github.com/AlekseyZapadovnikov/pr-loadgen/internal/models"
	"github.com/AlekseyZapadovnikov/pr-loadgen/internal/stubtarget"
)

// scriptedRandom отдаёт заранее заданные значения по порядку.
// После исчерпания Float64 возвращает 0.5, IntN возвращает 0. Shuffle ничего не переставляет.
type scriptedRandom struct {
	floats []float64
	ints   []int
}

func (s *scriptedRandom) Float64() float64 {
	if len(s.floats) == 0 {
		return 0.5
	}
	v := s.floats[0]
	s.floats = s.floats[1:]
	return v
}

func (s *scriptedRandom) IntN(n int) int {
	if len(s.ints) == 0 {
		return 0
	}
	v := s.ints[0]
	s.ints = s.ints[1:]
	return v % n
}

func (s *scriptedRandom) Shuffle(int, func(i, j int)) {}

type call struct {
	endpoint client.Endpoint
	payload  any
}

// fakeTarget запоминает вызовы и отвечает заданным ответом.
type fakeTarget struct {
	status int
	body   []byte
	err    error
	calls  []call
}

func (f *fakeTarget) respond(endpoint client.Endpoint, payload any) client.Response {
	f.calls = append(f.calls, call{endpoint: endpoint, payload: payload})
	resp := client.Response{Endpoint: endpoint, Duration: time.Millisecond, Err: f.err}
	if f.err == nil {
		resp.StatusCode = f.status
		resp.Body = f.body
	}
	return resp
}

func (f *fakeTarget) AddTeam(_ context.Context, team models.Team) client.Response {
	return f.respond(client.EndpointTeamAdd, team)
}

func (f *fakeTarget) GetTeam(_ context.Context, teamName string) client.Response {
	return f.respond(client.EndpointTeamGet, teamName)
}

func (f *fakeTarget) SetIsActive(_ context.Context, body models.PostUsersSetIsActiveJSONBody) client.Response {
	return f.respond(client.EndpointUserSetIsActive, body)
}

func (f *fakeTarget) GetReview(_ context.Context, userID string) client.Response {
	return f.respond(client.EndpointUserGetReview, userID)
}

func (f *fakeTarget) CreatePullRequest(_ context.Context, body models.PostPullRequestCreateJSONBody) client.Response {
	return f.respond(client.EndpointPRCreate, body)
}

func (f *fakeTarget) MergePullRequest(_ context.Context, body models.PostPullRequestMergeJSONBody) client.Response {
	return f.respond(client.EndpointPRMerge, body)
}

func (f *fakeTarget) ReassignPullRequest(_ context.Context, body models.PostPullRequestReassignJSONBody) client.Response {
	return f.respond(client.EndpointPRReassign, body)
}

func (f *fakeTarget) AssignmentStats(_ context.Context, filter models.StatsFilter) client.Response {
	return f.respond(client.EndpointStatsAssignments, filter)
}

// testStore: team-a (u1..u4, активные), team-b (u5, u6), PR с разными пулами ревьюеров.
func testStore(t *testing.T) *fixtures.Store {
	t.Helper()
	teams := []models.Team{
		{TeamName: "team-a", Members: []models.TeamMember{
			{UserId: "u1", Username: "alice", IsActive: true},
			{UserId: "u2", Username: "bob", IsActive: true},
			{UserId: "u3", Username: "carol", IsActive: true},
			{UserId: "u4", Username: "dave", IsActive: true},
		}},
		{TeamName: "team-b", Members: []models.TeamMember{
			{UserId: "u5", Username: "erin", IsActive: true},
			{UserId: "u6", Username: "frank", IsActive: false},
		}},
	}
	prs := []models.FixturePullRequest{
		{PullRequestId: "pr-open", PullRequestName: "open", AuthorId: "u1", Status: models.PullRequestStatusOPEN, ReviewerIDs: []string{"u2", "u3"}},
		{PullRequestId: "pr-merged", PullRequestName: "merged", AuthorId: "u1", Status: models.PullRequestStatusMERGED, ReviewerIDs: []string{"u2"}},
		{PullRequestId: "pr-lonely", PullRequestName: "lonely", AuthorId: "u5", Status: models.PullRequestStatusOPEN},
	}
	store, err := fixtures.New([]string{"u1", "u2", "u3", "u4", "u5", "u6"}, teams, prs)
	require.NoError(t, err)
	return store
}

type harness struct {
	runner *Runner
	sink   *checks.Sink
	stub   *stubtarget.Server
	rnd    *scriptedRandom
}

// newStubHarness поднимает заглушку сервиса с корпусом testStore и Runner поверх настоящего клиента.
func newStubHarness(t *testing.T, opts Options) *harness {
	t.Helper()
	store := testStore(t)

	stub := stubtarget.New(stubtarget.Options{})
	stub.Seed(store)
	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)

	sink := checks.NewSink(checks.DefaultSinkConfig())
	rnd := &scriptedRandom{}
	runner := NewRunner(client.New(srv.URL, 5*time.Second), store, sink, opts)
	runner.SetRandom(rnd)
	return &harness{runner: runner, sink: sink, stub: stub, rnd: rnd}
}

func newFakeHarness(t *testing.T, target *fakeTarget, opts Options) *harness {
	t.Helper()
	sink := checks.NewSink(checks.DefaultSinkConfig())
	rnd := &scriptedRandom{}
	runner := NewRunner(target, testStore(t), sink, opts)
	runner.SetRandom(rnd)
	return &harness{runner: runner, sink: sink, rnd: rnd}
}

// requireAllPassed проверяет, что для сценария записаны проверки и все они прошли.
func requireAllPassed(t *testing.T, snap checks.Snapshot, kind Kind) {
	t.Helper()
	var seen int
	for _, c := range snap.Checks {
		if c.Scenario != kind.String() {
			continue
		}
		seen++
		require.Zerof(t, c.Fails, "check %q (%s) failed", c.Name, c.Category)
	}
	require.NotZero(t, seen, "no checks recorded for %s", kind)
}

func requireCheck(t *testing.T, snap checks.Snapshot, kind Kind, name string, passes, fails uint64) {
	t.Helper()
	c, ok := snap.FindCheck(kind.String(), name)
	require.Truef(t, ok, "check %q not recorded", name)
	require.Equal(t, passes, c.Passes, "passes of %q", name)
	require.Equal(t, fails, c.Fails, "fails of %q", name)
}

func scenarioChecks(snap checks.Snapshot, kind Kind) []checks.CheckStat {
	var out []checks.CheckStat
	for _, c := range snap.Checks {
		if c.Scenario == kind.String() {
			out = append(out, c)
		}
	}
	return out
}
