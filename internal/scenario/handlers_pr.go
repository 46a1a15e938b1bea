package scenario

import (
	"context"
	"log/slog"
	"net/http"
	"slices"

	"github.com/AlekseyZapadovnikov/pr-loadgen/internal/checks"
	"github.com/AlekseyZapadovnikov/pr-loadgen/internal/ident"
	"github.com/AlekseyZapadovnikov/pr-loadgen/internal/models"
)

const pullRequestNamePrefix = "Load Test PR - "

func (r *Runner) createPR(ctx context.Context, scope checks.Scope) {
	idx := r.rnd.IntN(r.store.NumUsers())
	var authorID string
	if r.rnd.Float64() > 0.05 {
		authorID = r.store.User(idx)
	} else {
		authorID = ident.GenStr(ident.UserPrefix)
	}

	req := models.PostPullRequestCreateJSONBody{
		PullRequestId:   ident.GenStr(ident.PullRequestPrefix),
		PullRequestName: pullRequestNamePrefix + isoTimestamp(r.now()),
		AuthorId:        authorID,
	}

	resp := r.observe(r.target.CreatePullRequest(ctx, req))
	scope.Status("PR created successfully", resp.StatusCode == http.StatusCreated)
	scope.Latency(latencyCheckName("creation", r.opts.LatencyBudget), withinBudget(resp, r.opts.LatencyBudget))

	if resp.StatusCode != http.StatusCreated {
		return
	}
	if r.created != nil {
		r.created.add(req.PullRequestId)
	}

	var body models.PullRequestResponse
	hasPR := resp.Decode(&body) == nil && body.PR != nil
	scope.Content("response has PR object", hasPR)
	scope.Content("PR has correct ID", hasPR && body.PR.PullRequestId == req.PullRequestId)
	scope.Content("PR has correct name", hasPR && body.PR.PullRequestName == req.PullRequestName)
	scope.Content("PR has correct author", hasPR && body.PR.AuthorId == req.AuthorId)
	scope.Content("PR status is OPEN", hasPR && body.PR.Status == models.PullRequestStatusOPEN)
}

// mergePR сливает PR и сразу повторяет тот же запрос, проверяя идемпотентность сервиса.
// Запросы строго последовательны.
func (r *Runner) mergePR(ctx context.Context, scope checks.Scope) {
	req := models.PostPullRequestMergeJSONBody{PullRequestId: r.pickMergeTarget()}

	resp := r.observe(r.target.MergePullRequest(ctx, req))
	if scope.Status("PR merged successfully", resp.StatusCode == http.StatusOK) {
		var body models.PullRequestResponse
		hasPR := resp.Decode(&body) == nil && body.PR != nil
		scope.Content("response has PR object", hasPR)
		scope.Content("PR has correct ID", hasPR && body.PR.PullRequestId == req.PullRequestId)
		scope.Content("PR status is MERGED", hasPR && body.PR.Status == models.PullRequestStatusMERGED)
	}

	repeat := r.observe(r.target.MergePullRequest(ctx, req))
	repeatOK := scope.Status("repeat merge returns 200 (idempotent)", repeat.StatusCode == http.StatusOK)
	var body models.PullRequestResponse
	scope.Content("repeat merge has MERGED status",
		repeatOK && repeat.Decode(&body) == nil && body.PR != nil && body.PR.Status == models.PullRequestStatusMERGED)
}

func (r *Runner) pickMergeTarget() string {
	if r.created != nil && r.rnd.Float64() < 0.5 {
		if id, ok := r.created.pick(r.rnd); ok {
			return id
		}
	}
	return r.store.PullRequest(r.rnd.IntN(r.store.NumPullRequests())).PullRequestId
}

// reassignPR не отправляет запрос и не пишет проверок, если у PR нет пула ревьюеров или он уже слит.
func (r *Runner) reassignPR(ctx context.Context, scope checks.Scope) {
	pr := r.store.PullRequest(r.rnd.IntN(r.store.NumPullRequests()))
	if len(pr.ReviewerIDs) == 0 || pr.Status == models.PullRequestStatusMERGED {
		slog.Debug("reassign skipped", "pull_request_id", pr.PullRequestId, "status", pr.Status)
		return
	}

	oldReviewer := pr.ReviewerIDs[r.rnd.IntN(len(pr.ReviewerIDs))]
	req := models.PostPullRequestReassignJSONBody{
		PullRequestId: pr.PullRequestId,
		OldReviewerId: oldReviewer,
	}

	resp := r.observe(r.target.ReassignPullRequest(ctx, req))
	switch resp.StatusCode {
	case http.StatusOK, http.StatusConflict, http.StatusNotFound:
		scope.Status("reassign request completed", true)
	default:
		scope.Status("reassign request completed", false)
	}
	scope.Latency(latencyCheckName("reassign", r.opts.LatencyBudget), withinBudget(resp, r.opts.LatencyBudget))

	// 409 и 404 допустимые исходы, их тело не проверяется.
	if resp.StatusCode != http.StatusOK {
		return
	}
	var body models.ReassignResponse
	decoded := resp.Decode(&body) == nil
	hasPR := decoded && body.PR != nil
	hasReplaced := decoded && body.ReplacedBy != nil
	scope.Content("response has PR object", hasPR)
	scope.Content("response has replaced_by field", hasReplaced)
	scope.Content("PR has correct ID", hasPR && body.PR.PullRequestId == pr.PullRequestId)
	scope.Content("PR status is OPEN", hasPR && body.PR.Status == models.PullRequestStatusOPEN)
	scope.Content("new reviewer is different from old", hasReplaced && *body.ReplacedBy != oldReviewer)
	scope.Content("new reviewer is in assigned reviewers",
		hasPR && hasReplaced && slices.Contains(body.PR.AssignedReviewers, *body.ReplacedBy))
}
