package scenario

import (
	"context"
	"net/http"

	"github.com/AlekseyZapadovnikov/pr-loadgen/internal/checks"
	"github.com/AlekseyZapadovnikov/pr-loadgen/internal/ident"
	"github.com/AlekseyZapadovnikov/pr-loadgen/internal/models"
)

// Фильтры статистики, каждый выбирается с вероятностью 0.2, оставшиеся 0.2 без фильтра.
var statsFilters = [...]struct {
	upper  float64
	filter models.StatsFilter
}{
	{upper: 0.2, filter: models.StatsFilter{Status: "open"}},
	{upper: 0.4, filter: models.StatsFilter{Status: "merged"}},
	{upper: 0.6, filter: models.StatsFilter{ActiveOnly: true}},
	{upper: 0.8, filter: models.StatsFilter{Status: "open", ActiveOnly: true}},
}

func pickStatsFilter(r float64) models.StatsFilter {
	for _, f := range statsFilters {
		if r < f.upper {
			return f.filter
		}
	}
	return models.StatsFilter{}
}

func (r *Runner) getReview(ctx context.Context, scope checks.Scope) {
	userID := r.store.User(r.rnd.IntN(r.store.NumUsers()))
	if r.rnd.Float64() < r.opts.NonexistentReviewerRate {
		userID = ident.GenStr(ident.MissingUserPrefix)
	}

	resp := r.observe(r.target.GetReview(ctx, userID))
	scope.Status("user reviews retrieved successfully", resp.StatusCode == http.StatusOK)
	scope.Latency(latencyCheckName("retrieval", r.opts.LatencyBudget), withinBudget(resp, r.opts.LatencyBudget))
	if resp.Err != nil {
		return
	}

	// Тело разбирается при любом статусе: ответ с ошибкой тоже должен провалить проверки содержимого.
	var body models.GetReviewResponse
	decoded := resp.Decode(&body) == nil
	scope.Content("response has correct user_id", decoded && body.UserId == userID)
	scope.Content("response has pull_requests array", decoded && isJSONArray(body.PullRequests))
}

func (r *Runner) getTeam(ctx context.Context, scope checks.Scope) {
	team := r.store.Team(r.rnd.IntN(r.store.NumTeams()))

	teamName, exists := team.TeamName, true
	if r.rnd.Float64() <= 0.2 {
		teamName, exists = ident.GenStr(ident.MissingTeamPrefix), false
	}

	resp := r.observe(r.target.GetTeam(ctx, teamName))
	if !exists && r.opts.AssertMissingTeam {
		scope.Status("missing team returns 404", resp.StatusCode == http.StatusNotFound)
	} else {
		scope.Status("team retrieved successfully", resp.StatusCode == http.StatusOK)
	}
	scope.Latency(latencyCheckName("retrieval", r.opts.LatencyBudget), withinBudget(resp, r.opts.LatencyBudget))

	if resp.StatusCode != http.StatusOK {
		return
	}
	var body models.Team
	decoded := resp.Decode(&body) == nil
	scope.Content("team has correct name", decoded && body.TeamName == teamName)
}

func (r *Runner) statsAssignments(ctx context.Context, scope checks.Scope) {
	filter := pickStatsFilter(r.rnd.Float64())

	resp := r.observe(r.target.AssignmentStats(ctx, filter))
	scope.Status("stats returns 200", resp.StatusCode == http.StatusOK)
	scope.Latency(latencyCheckName("stats response", r.opts.LatencyBudget), withinBudget(resp, r.opts.LatencyBudget))

	if resp.StatusCode != http.StatusOK {
		return
	}
	var body models.AssignmentStatsResponse
	decoded := resp.Decode(&body) == nil
	isArray := decoded && isJSONArray(body.Assignments)
	scope.Content("has assignments array", isArray)
	scope.Content("each assignment has required fields", isArray && assignmentsWellFormed(body.Assignments))
}
