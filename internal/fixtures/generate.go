package fixtures

import (
	"fmt"
	"slices"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/AlekseyZapadovnikov/pr-loadgen/internal/models"
)

// GenerateOptions задаёт размеры и пропорции синтетического корпуса.
type GenerateOptions struct {
	Teams        int
	Users        int
	PullRequests int
	ActiveShare  float64 // доля активных пользователей
	MergedShare  float64 // доля PR в статусе MERGED
	MaxReviewers int
	Seed         uint64 // 0 означает случайное зерно
}

// DefaultGenerateOptions возвращает пропорции исходного генератора данных.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{
		Teams:        20,
		Users:        200,
		PullRequests: 2000,
		ActiveShare:  0.9,
		MergedShare:  0.75,
		MaxReviewers: 2,
	}
}

func (o GenerateOptions) validate() error {
	if o.Teams <= 0 || o.Users <= 0 || o.PullRequests <= 0 {
		return fmt.Errorf("teams, users and pull requests must be positive")
	}
	if o.Users < o.Teams {
		return fmt.Errorf("users (%d) must be >= teams (%d)", o.Users, o.Teams)
	}
	if o.MaxReviewers < 0 {
		return fmt.Errorf("max reviewers must be non-negative")
	}
	return nil
}

// Generate строит корпус: пользователи раскладываются по командам по кругу,
// у каждого PR автор случайный, ревьюеры выбираются из активных пользователей, кроме автора.
func Generate(opts GenerateOptions) (*Store, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	f := gofakeit.New(opts.Seed)

	teams := make([]models.Team, opts.Teams)
	for i := range teams {
		teams[i] = models.Team{
			TeamName: fmt.Sprintf("team-%d-%s", i, f.NounCollectivePeople()),
			Members:  make([]models.TeamMember, 0, opts.Users/opts.Teams+1),
		}
	}

	users := make([]string, opts.Users)
	var active []string
	for i := range users {
		member := models.TeamMember{
			UserId:   fmt.Sprintf("user-%s", f.UUID()),
			Username: f.FirstName() + " " + f.LastName(),
			IsActive: f.Float64() < opts.ActiveShare,
		}
		users[i] = member.UserId
		if member.IsActive {
			active = append(active, member.UserId)
		}
		t := &teams[i%opts.Teams]
		t.Members = append(t.Members, member)
	}

	prs := make([]models.FixturePullRequest, opts.PullRequests)
	for i := range prs {
		author := users[f.Number(0, len(users)-1)]
		status := models.PullRequestStatusOPEN
		if f.Float64() < opts.MergedShare {
			status = models.PullRequestStatusMERGED
		}
		prs[i] = models.FixturePullRequest{
			PullRequestId:   fmt.Sprintf("pr-%s", f.UUID()),
			PullRequestName: fmt.Sprintf("%s %s %s", f.Verb(), f.Adjective(), f.Noun()),
			AuthorId:        author,
			Status:          status,
			ReviewerIDs:     pickReviewers(f, active, author, f.Number(0, opts.MaxReviewers)),
		}
	}

	return New(users, teams, prs)
}

func pickReviewers(f *gofakeit.Faker, active []string, author string, n int) []string {
	reviewers := make([]string, 0, n)
	const maxAttempts = 50
	for attempts := 0; len(reviewers) < n && attempts < maxAttempts; attempts++ {
		if len(active) == 0 {
			break
		}
		candidate := active[f.Number(0, len(active)-1)]
		if candidate == author || slices.Contains(reviewers, candidate) {
			continue
		}
		reviewers = append(reviewers, candidate)
	}
	return reviewers
}
