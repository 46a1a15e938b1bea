package fixtures

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AlekseyZapadovnikov/pr-loadgen/conf"
	"github.com/AlekseyZapadovnikov/pr-loadgen/internal/models"
)

// DBPool описывает минимальный интерфейс пула подключений к PostgreSQL.
type DBPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close()
}

// Exporter выгружает корпуса напрямую из базы тестируемого сервиса.
type Exporter struct {
	pool DBPool
}

// NewExporter создаёт пул подключений к PostgreSQL и проверяет соединение.
func NewExporter(ctx context.Context, cfg *conf.DbConf) (*Exporter, error) {
	pool, err := pgxpool.New(ctx, cfg.ConnString())
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Exporter{pool: pool}, nil
}

// Close закрывает пул подключений.
func (e *Exporter) Close() {
	if e.pool != nil {
		e.pool.Close()
	}
}

// Export читает пользователей, команды и PR и собирает из них Store.
func (e *Exporter) Export(ctx context.Context) (*Store, error) {
	users, err := e.exportUsers(ctx)
	if err != nil {
		return nil, err
	}
	teams, err := e.exportTeams(ctx)
	if err != nil {
		return nil, err
	}
	prs, err := e.exportPullRequests(ctx)
	if err != nil {
		return nil, err
	}
	return New(users, teams, prs)
}

func (e *Exporter) exportUsers(ctx context.Context) ([]string, error) {
	const q = `SELECT user_id FROM users ORDER BY user_id`
	rows, err := e.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan users: %w", err)
		}
		users = append(users, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error users: %w", err)
	}
	return users, nil
}

func (e *Exporter) exportTeams(ctx context.Context) ([]models.Team, error) {
	const qTeams = `SELECT team_name FROM teams ORDER BY team_name`
	rows, err := e.pool.Query(ctx, qTeams)
	if err != nil {
		return nil, fmt.Errorf("query teams: %w", err)
	}
	defer rows.Close()

	var teams []models.Team
	index := make(map[string]int)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan teams: %w", err)
		}
		index[name] = len(teams)
		teams = append(teams, models.Team{TeamName: name, Members: []models.TeamMember{}})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error teams: %w", err)
	}

	const qMembers = `
SELECT user_id, username, is_active, team_name
FROM users
WHERE team_name IS NOT NULL
ORDER BY team_name, user_id
`
	mrows, err := e.pool.Query(ctx, qMembers)
	if err != nil {
		return nil, fmt.Errorf("query team members: %w", err)
	}
	defer mrows.Close()

	for mrows.Next() {
		var (
			m        models.TeamMember
			teamName string
		)
		if err := mrows.Scan(&m.UserId, &m.Username, &m.IsActive, &teamName); err != nil {
			return nil, fmt.Errorf("scan team members: %w", err)
		}
		i, ok := index[teamName]
		if !ok {
			// участник ссылается на команду, которой нет в teams
			continue
		}
		teams[i].Members = append(teams[i].Members, m)
	}
	if err := mrows.Err(); err != nil {
		return nil, fmt.Errorf("rows error team members: %w", err)
	}
	return teams, nil
}

func (e *Exporter) exportPullRequests(ctx context.Context) ([]models.FixturePullRequest, error) {
	const qPR = `
SELECT pull_request_id, pull_request_name, author_id, status
FROM pull_requests
ORDER BY pull_request_id
`
	rows, err := e.pool.Query(ctx, qPR)
	if err != nil {
		return nil, fmt.Errorf("query pull_requests: %w", err)
	}
	defer rows.Close()

	var prs []models.FixturePullRequest
	index := make(map[string]int)
	for rows.Next() {
		var (
			pr     models.FixturePullRequest
			status string
		)
		if err := rows.Scan(&pr.PullRequestId, &pr.PullRequestName, &pr.AuthorId, &status); err != nil {
			return nil, fmt.Errorf("scan pull_requests: %w", err)
		}
		pr.Status = models.PullRequestStatus(status)
		index[pr.PullRequestId] = len(prs)
		prs = append(prs, pr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error pull_requests: %w", err)
	}

	const qReviewers = `
SELECT pull_request_id, user_id
FROM pull_request_reviewers
ORDER BY pull_request_id, user_id
`
	rrows, err := e.pool.Query(ctx, qReviewers)
	if err != nil {
		return nil, fmt.Errorf("query pull_request_reviewers: %w", err)
	}
	defer rrows.Close()

	for rrows.Next() {
		var prID, userID string
		if err := rrows.Scan(&prID, &userID); err != nil {
			return nil, fmt.Errorf("scan reviewer: %w", err)
		}
		if i, ok := index[prID]; ok {
			prs[i].ReviewerIDs = append(prs[i].ReviewerIDs, userID)
		}
	}
	if err := rrows.Err(); err != nil {
		return nil, fmt.Errorf("rows error pull_request_reviewers: %w", err)
	}
	return prs, nil
}
