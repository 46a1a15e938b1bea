// Package stubtarget поднимает в памяти заглушку API сервиса назначения ревьюеров.
//
// Заглушка нужна тестам и пробным прогонам без настоящего сервиса: она повторяет
// контракт эндпоинтов (коды ответов, формы JSON, идемпотентный merge, upsert команды),
// но не претендует на бизнес-логику выбора ревьюеров.
package stubtarget

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/AlekseyZapadovnikov/pr-loadgen/internal/fixtures"
	"github.com/AlekseyZapadovnikov/pr-loadgen/internal/models"
)

// Options настраивает поведение заглушки.
type Options struct {
	// Delay искусственная задержка каждого ответа API (кроме /health).
	Delay time.Duration
	// LogRequests включает middleware.Logger.
	LogRequests bool
}

// Server http.Handler заглушки.
type Server struct {
	router *chi.Mux
	state  *state
	opts   Options
}

// New конструирует заглушку на базе chi и регистрирует все маршруты.
func New(opts Options) *Server {
	srv := &Server{
		router: chi.NewMux(),
		state:  newState(),
		opts:   opts,
	}
	srv.setupRoutes()
	return srv
}

// ServeHTTP реализует http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Seed загружает корпус: команды с участниками, пользователей без команды и PR с ревьюерами.
func (s *Server) Seed(store *fixtures.Store) {
	for i := range store.NumTeams() {
		s.state.upsertTeam(store.Team(i))
	}
	for i := range store.NumUsers() {
		id := store.User(i)
		s.state.mu.Lock()
		if _, ok := s.state.users[id]; !ok {
			s.state.users[id] = &models.User{UserId: id, Username: id, IsActive: true}
		}
		s.state.mu.Unlock()
	}
	for i := range store.NumPullRequests() {
		fpr := store.PullRequest(i)
		s.state.putPR(models.PullRequest{
			PullRequestId:     fpr.PullRequestId,
			PullRequestName:   fpr.PullRequestName,
			AuthorId:          fpr.AuthorId,
			Status:            fpr.Status,
			AssignedReviewers: fpr.ReviewerIDs,
		})
	}
}

// setupRoutes настраивает middleware и HTTP-маршруты.
func (s *Server) setupRoutes() {
	if s.opts.LogRequests {
		s.router.Use(middleware.Logger)
	}
	s.router.Use(middleware.Recoverer)

	s.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	s.router.Group(func(r chi.Router) {
		r.Use(s.delay)

		r.Post("/team/add", s.handleTeamAdd)
		r.Get("/team/get", s.handleTeamGet)

		r.Post("/users/setIsActive", s.handleSetIsActive)
		r.Get("/users/getReview", s.handleGetReview)

		r.Post("/pullRequest/create", s.handlePRCreate)
		r.Post("/pullRequest/merge", s.handlePRMerge)
		r.Post("/pullRequest/reassign", s.handlePRReassign)

		r.Get("/stats/reviewers/assignments", s.handleAssignmentStats)
	})
}

func (s *Server) delay(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.opts.Delay > 0 {
			select {
			case <-time.After(s.opts.Delay):
			case <-r.Context().Done():
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleTeamAdd(w http.ResponseWriter, r *http.Request) {
	var team models.Team
	if !decodeBody(w, r, &team) {
		return
	}
	if strings.TrimSpace(team.TeamName) == "" {
		writeError(w, http.StatusBadRequest, "MISSING_PARAM", "team_name is required")
		return
	}
	for _, m := range team.Members {
		if m.UserId == "" {
			writeError(w, http.StatusBadRequest, "MISSING_PARAM", "user_id is required for every member")
			return
		}
	}

	saved := s.state.upsertTeam(team)
	writeJSON(w, http.StatusCreated, models.TeamResponse{Team: &saved})
}

func (s *Server) handleTeamGet(w http.ResponseWriter, r *http.Request) {
	teamName := r.URL.Query().Get("team_name")
	if teamName == "" {
		writeError(w, http.StatusBadRequest, "MISSING_PARAM", "team_name is required")
		return
	}
	team, err := s.state.team(teamName)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, team)
}

func (s *Server) handleSetIsActive(w http.ResponseWriter, r *http.Request) {
	var p models.PostUsersSetIsActiveJSONBody
	if !decodeBody(w, r, &p) {
		return
	}
	if p.UserId == "" {
		writeError(w, http.StatusBadRequest, "MISSING_PARAM", "user_id is required")
		return
	}
	user, err := s.state.setIsActive(p.UserId, p.IsActive)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.SetIsActiveResponse{User: &user})
}

func (s *Server) handleGetReview(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "MISSING_PARAM", "user_id is required")
		return
	}
	writeJSON(w, http.StatusOK, struct {
		UserId       string                    `json:"user_id"`
		PullRequests []models.PullRequestShort `json:"pull_requests"`
	}{UserId: userID, PullRequests: s.state.reviews(userID)})
}

func (s *Server) handlePRCreate(w http.ResponseWriter, r *http.Request) {
	var p models.PostPullRequestCreateJSONBody
	if !decodeBody(w, r, &p) {
		return
	}
	if p.PullRequestId == "" || p.PullRequestName == "" || p.AuthorId == "" {
		writeError(w, http.StatusBadRequest, "MISSING_PARAM", "pull_request_id, pull_request_name and author_id are required")
		return
	}
	pr, err := s.state.createPR(p)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, models.PullRequestResponse{PR: &pr})
}

func (s *Server) handlePRMerge(w http.ResponseWriter, r *http.Request) {
	var p models.PostPullRequestMergeJSONBody
	if !decodeBody(w, r, &p) {
		return
	}
	if p.PullRequestId == "" {
		writeError(w, http.StatusBadRequest, "MISSING_PARAM", "pull_request_id is required")
		return
	}
	pr, err := s.state.mergePR(p.PullRequestId)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.PullRequestResponse{PR: &pr})
}

func (s *Server) handlePRReassign(w http.ResponseWriter, r *http.Request) {
	var p models.PostPullRequestReassignJSONBody
	if !decodeBody(w, r, &p) {
		return
	}
	if p.PullRequestId == "" || p.OldReviewerId == "" {
		writeError(w, http.StatusBadRequest, "MISSING_PARAM", "pull_request_id and old_reviewer_id are required")
		return
	}
	pr, replacedBy, err := s.state.reassign(p)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.ReassignResponse{PR: &pr, ReplacedBy: &replacedBy})
}

func (s *Server) handleAssignmentStats(w http.ResponseWriter, r *http.Request) {
	status := strings.ToUpper(r.URL.Query().Get("status"))
	if status != "" && status != string(models.PullRequestStatusOPEN) && status != string(models.PullRequestStatusMERGED) {
		writeError(w, http.StatusBadRequest, "INVALID_QUERY_PARAM", "invalid query parameter")
		return
	}
	_, activeOnly := r.URL.Query()["active_only"]

	writeJSON(w, http.StatusOK, struct {
		Assignments []models.UserAssignmentStat `json:"assignments"`
	}{Assignments: s.state.assignmentStats(status, activeOnly)})
}

// ---------- утилитарные функции ----------

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_PAYLOAD", "invalid json payload")
		return false
	}
	return true
}

// writeJSON сериализует структуру в JSON-ответ с нужным статусом.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

// writeError формирует стандартный JSON с кодом и сообщением об ошибке.
func writeError(w http.ResponseWriter, status int, code models.ErrorResponseErrorCode, message string) {
	writeJSON(w, status, models.ErrorResponse{Error: models.ErrorBody{Code: code, Message: message}})
}

// writeDomainError переводит ошибки состояния в HTTP-статусы и коды ответа.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errNotFound):
		writeError(w, http.StatusNotFound, models.NOTFOUND, err.Error())
	case errors.Is(err, errPRExists):
		writeError(w, http.StatusConflict, models.PREXISTS, err.Error())
	case errors.Is(err, errPRMerged):
		writeError(w, http.StatusConflict, models.PRMERGED, err.Error())
	case errors.Is(err, errNotAssigned):
		writeError(w, http.StatusConflict, models.NOTASSIGNED, err.Error())
	case errors.Is(err, errNoCandidate):
		writeError(w, http.StatusConflict, models.NOCANDIDATE, err.Error())
	default:
		slog.Warn("unmapped stub error", "err", err.Error())
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
	}
}
