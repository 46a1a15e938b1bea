package fixtures

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/AlekseyZapadovnikov/pr-loadgen/internal/client"
	"github.com/AlekseyZapadovnikov/pr-loadgen/internal/models"
)

// SeedTarget операции сервиса, нужные для заливки корпуса. *client.Client удовлетворяет интерфейсу.
type SeedTarget interface {
	AddTeam(ctx context.Context, team models.Team) client.Response
	CreatePullRequest(ctx context.Context, body models.PostPullRequestCreateJSONBody) client.Response
	MergePullRequest(ctx context.Context, body models.PostPullRequestMergeJSONBody) client.Response
}

const seedProgressEvery = 500

// Seed заливает команды и PR корпуса src в живой сервис. PR со статусом MERGED после создания сливаются.
// Возвращает корпус, где reviewer_ids заменены ревьюерами, которых назначил сам сервис.
// Любой неожиданный ответ прерывает заливку.
func Seed(ctx context.Context, target SeedTarget, src *Store) (*Store, error) {
	for i := range src.NumTeams() {
		team := src.Team(i)
		resp := target.AddTeam(ctx, team)
		if err := expectStatus(resp, http.StatusCreated); err != nil {
			return nil, fmt.Errorf("seed team %s: %w", team.TeamName, err)
		}
	}
	slog.Info("teams seeded", "count", src.NumTeams())

	prs := make([]models.FixturePullRequest, 0, src.NumPullRequests())
	for i := range src.NumPullRequests() {
		fpr := src.PullRequest(i)
		seeded, err := seedPullRequest(ctx, target, fpr)
		if err != nil {
			return nil, err
		}
		prs = append(prs, seeded)
		if (i+1)%seedProgressEvery == 0 {
			slog.Info("pull requests seeded", "done", i+1, "total", src.NumPullRequests())
		}
	}
	slog.Info("pull requests seeded", "done", len(prs), "total", src.NumPullRequests())

	return New(src.users, src.teams, prs)
}

func seedPullRequest(ctx context.Context, target SeedTarget, fpr models.FixturePullRequest) (models.FixturePullRequest, error) {
	resp := target.CreatePullRequest(ctx, models.PostPullRequestCreateJSONBody{
		PullRequestId:   fpr.PullRequestId,
		PullRequestName: fpr.PullRequestName,
		AuthorId:        fpr.AuthorId,
	})
	if err := expectStatus(resp, http.StatusCreated); err != nil {
		return fpr, fmt.Errorf("seed pull request %s: %w", fpr.PullRequestId, err)
	}
	var created models.PullRequestResponse
	if err := resp.Decode(&created); err != nil || created.PR == nil {
		return fpr, fmt.Errorf("seed pull request %s: response without pr: %v", fpr.PullRequestId, err)
	}

	out := fpr
	out.ReviewerIDs = created.PR.AssignedReviewers
	out.Status = models.PullRequestStatusOPEN

	if fpr.Status == models.PullRequestStatusMERGED {
		resp := target.MergePullRequest(ctx, models.PostPullRequestMergeJSONBody{PullRequestId: fpr.PullRequestId})
		if err := expectStatus(resp, http.StatusOK); err != nil {
			return fpr, fmt.Errorf("merge pull request %s: %w", fpr.PullRequestId, err)
		}
		out.Status = models.PullRequestStatusMERGED
	}
	return out, nil
}

func expectStatus(resp client.Response, want int) error {
	if resp.Err != nil {
		return resp.Err
	}
	if resp.StatusCode != want {
		return fmt.Errorf("unexpected status %d (want %d): %s", resp.StatusCode, want, resp.Body)
	}
	return nil
}
