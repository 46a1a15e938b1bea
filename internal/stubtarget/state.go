package stubtarget

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/AlekseyZapadovnikov/pr-loadgen/internal/models"
)

var (
	errNotFound    = errors.New("NOT_FOUND")
	errPRExists    = errors.New("PR_EXISTS")
	errPRMerged    = errors.New("PR_MERGED")
	errNotAssigned = errors.New("NOT_ASSIGNED")
	errNoCandidate = errors.New("NO_CANDIDATE")
)

// state хранит данные заглушки в памяти.
type state struct {
	mu    sync.Mutex
	teams map[string][]string
	users map[string]*models.User
	prs   map[string]*models.PullRequest
}

func newState() *state {
	return &state{
		teams: make(map[string][]string),
		users: make(map[string]*models.User),
		prs:   make(map[string]*models.PullRequest),
	}
}

// upsertTeam создаёт команду или дописывает/обновляет переданных участников, не трогая остальных.
func (s *state) upsertTeam(team models.Team) models.Team {
	s.mu.Lock()
	defer s.mu.Unlock()

	members := s.teams[team.TeamName]
	for _, m := range team.Members {
		if u, ok := s.users[m.UserId]; ok && u.TeamName != team.TeamName {
			s.teams[u.TeamName] = slices.DeleteFunc(s.teams[u.TeamName], func(id string) bool { return id == m.UserId })
		}
		s.users[m.UserId] = &models.User{
			UserId:   m.UserId,
			Username: m.Username,
			IsActive: m.IsActive,
			TeamName: team.TeamName,
		}
		if !slices.Contains(members, m.UserId) {
			members = append(members, m.UserId)
		}
	}
	s.teams[team.TeamName] = members
	return s.teamLocked(team.TeamName)
}

func (s *state) team(name string) (models.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.teams[name]; !ok {
		return models.Team{}, fmt.Errorf("%w: team %s", errNotFound, name)
	}
	return s.teamLocked(name), nil
}

func (s *state) teamLocked(name string) models.Team {
	ids := s.teams[name]
	members := make([]models.TeamMember, 0, len(ids))
	for _, id := range ids {
		u := s.users[id]
		members = append(members, models.TeamMember{UserId: u.UserId, Username: u.Username, IsActive: u.IsActive})
	}
	return models.Team{TeamName: name, Members: members}
}

func (s *state) setIsActive(userID string, active bool) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return models.User{}, fmt.Errorf("%w: user %s", errNotFound, userID)
	}
	u.IsActive = active
	return *u, nil
}

func (s *state) reviews(userID string) []models.PullRequestShort {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.PullRequestShort, 0)
	for _, pr := range s.prs {
		if slices.Contains(pr.AssignedReviewers, userID) {
			out = append(out, models.PullRequestShort{
				AuthorId:        pr.AuthorId,
				PullRequestId:   pr.PullRequestId,
				PullRequestName: pr.PullRequestName,
				Status:          pr.Status,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PullRequestId < out[j].PullRequestId })
	return out
}

func (s *state) createPR(body models.PostPullRequestCreateJSONBody) (models.PullRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	author, ok := s.users[body.AuthorId]
	if !ok {
		return models.PullRequest{}, fmt.Errorf("%w: author %s", errNotFound, body.AuthorId)
	}
	if _, exists := s.prs[body.PullRequestId]; exists {
		return models.PullRequest{}, fmt.Errorf("%w: %s", errPRExists, body.PullRequestId)
	}

	pr := &models.PullRequest{
		PullRequestId:     body.PullRequestId,
		PullRequestName:   body.PullRequestName,
		AuthorId:          body.AuthorId,
		Status:            models.PullRequestStatusOPEN,
		AssignedReviewers: s.candidatesLocked(author.TeamName, 2, author.UserId),
	}
	s.prs[pr.PullRequestId] = pr
	return clonePR(pr), nil
}

// putPR кладёт PR как есть, без назначения ревьюеров. Используется при загрузке корпуса.
func (s *state) putPR(pr models.PullRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := clonePR(&pr)
	s.prs[pr.PullRequestId] = &cp
}

func (s *state) mergePR(id string) (models.PullRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pr, ok := s.prs[id]
	if !ok {
		return models.PullRequest{}, fmt.Errorf("%w: pull request %s", errNotFound, id)
	}
	pr.Status = models.PullRequestStatusMERGED
	return clonePR(pr), nil
}

func (s *state) reassign(body models.PostPullRequestReassignJSONBody) (models.PullRequest, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pr, ok := s.prs[body.PullRequestId]
	if !ok {
		return models.PullRequest{}, "", fmt.Errorf("%w: pull request %s", errNotFound, body.PullRequestId)
	}
	old, ok := s.users[body.OldReviewerId]
	if !ok {
		return models.PullRequest{}, "", fmt.Errorf("%w: user %s", errNotFound, body.OldReviewerId)
	}
	if pr.Status == models.PullRequestStatusMERGED {
		return models.PullRequest{}, "", fmt.Errorf("%w: %s", errPRMerged, pr.PullRequestId)
	}
	idx := slices.Index(pr.AssignedReviewers, old.UserId)
	if idx < 0 {
		return models.PullRequest{}, "", fmt.Errorf("%w: %s", errNotAssigned, old.UserId)
	}

	exclude := append([]string{pr.AuthorId}, pr.AssignedReviewers...)
	candidates := s.candidatesLocked(old.TeamName, 1, exclude...)
	if len(candidates) == 0 {
		return models.PullRequest{}, "", fmt.Errorf("%w: %s", errNoCandidate, pr.PullRequestId)
	}
	pr.AssignedReviewers[idx] = candidates[0]
	return clonePR(pr), candidates[0], nil
}

// candidatesLocked выбирает до limit активных участников команды, кроме exclude, в порядке user_id.
func (s *state) candidatesLocked(teamName string, limit int, exclude ...string) []string {
	ids := slices.Clone(s.teams[teamName])
	sort.Strings(ids)
	out := make([]string, 0, limit)
	for _, id := range ids {
		if len(out) == limit {
			break
		}
		if slices.Contains(exclude, id) || !s.users[id].IsActive {
			continue
		}
		out = append(out, id)
	}
	return out
}

func (s *state) assignmentStats(status string, activeOnly bool) []models.UserAssignmentStat {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[string]int)
	for _, pr := range s.prs {
		if status != "" && !strings.EqualFold(string(pr.Status), status) {
			continue
		}
		for _, id := range pr.AssignedReviewers {
			counts[id]++
		}
	}

	out := make([]models.UserAssignmentStat, 0, len(counts))
	for id, n := range counts {
		u, ok := s.users[id]
		if !ok || (activeOnly && !u.IsActive) {
			continue
		}
		out = append(out, models.UserAssignmentStat{UserId: id, Username: u.Username, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].UserId < out[j].UserId
	})
	return out
}

func clonePR(pr *models.PullRequest) models.PullRequest {
	cp := *pr
	cp.AssignedReviewers = slices.Clone(pr.AssignedReviewers)
	if cp.AssignedReviewers == nil {
		cp.AssignedReviewers = []string{}
	}
	return cp
}
