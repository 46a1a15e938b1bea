package scenario

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/AlekseyZapadovnikov/pr-loadgen/internal/checks"
	"github.com/AlekseyZapadovnikov/pr-loadgen/internal/ident"
	"github.com/AlekseyZapadovnikov/pr-loadgen/internal/models"
)

// updatedMarker подстрока, по которой в ответе ищутся обновлённые имена.
const updatedMarker = ident.UpdatedPrefix

const (
	minNewTeamMembers   = 2
	extraNewTeamMembers = 10
	activeThreshold     = 0.2
)

func (r *Runner) setIsActive(ctx context.Context, scope checks.Scope) {
	req := models.PostUsersSetIsActiveJSONBody{
		UserId: r.store.User(r.rnd.IntN(r.store.NumUsers())),
	}
	req.IsActive = r.rnd.Float64() > 0.3

	resp := r.observe(r.target.SetIsActive(ctx, req))
	scope.Status("user activity updated successfully", resp.StatusCode == http.StatusOK)
	scope.Latency(latencyCheckName("update", r.opts.LatencyBudget), withinBudget(resp, r.opts.LatencyBudget))

	if resp.StatusCode != http.StatusOK {
		return
	}
	var body models.SetIsActiveResponse
	hasUser := resp.Decode(&body) == nil && body.User != nil
	scope.Content("response has user object", hasUser)
	scope.Content("user has correct ID", hasUser && body.User.UserId == req.UserId)
	scope.Content("user activity is updated", hasUser && body.User.IsActive == req.IsActive)
}

// updateTeam переименовывает случайное непустое подмножество участников существующей команды.
// Команды без участников пропускаются: обновлять нечего.
func (r *Runner) updateTeam(ctx context.Context, scope checks.Scope) {
	team := r.store.Team(r.rnd.IntN(r.store.NumTeams()))
	if len(team.Members) == 0 {
		slog.Debug("team update skipped", "team_name", team.TeamName)
		return
	}

	numToUpdate := max(1, int(r.rnd.Float64()*float64(len(team.Members))))

	shuffled := make([]models.TeamMember, len(team.Members))
	copy(shuffled, team.Members)
	r.rnd.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	req := models.Team{
		TeamName: team.TeamName,
		Members:  make([]models.TeamMember, 0, numToUpdate),
	}
	for _, m := range shuffled[:numToUpdate] {
		req.Members = append(req.Members, models.TeamMember{
			UserId:   m.UserId,
			Username: ident.GenStr(ident.UpdatedPrefix),
			IsActive: r.rnd.Float64() > activeThreshold,
		})
	}

	resp := r.observe(r.target.AddTeam(ctx, req))
	scope.Status("users updated successfully", resp.StatusCode == http.StatusCreated)
	scope.Latency(latencyCheckName("update", r.opts.TeamLatencyBudget), withinBudget(resp, r.opts.TeamLatencyBudget))

	if resp.StatusCode != http.StatusCreated {
		return
	}
	var body models.TeamResponse
	hasTeam := resp.Decode(&body) == nil && body.Team != nil
	scope.Content("team has correct name", hasTeam && body.Team.TeamName == team.TeamName)
	scope.Content("users were updated", hasTeam && len(body.Team.Members) >= numToUpdate)
	scope.Content("usernames were updated", hasTeam && anyMemberUpdated(body.Team.Members))
}

func (r *Runner) createTeam(ctx context.Context, scope checks.Scope) {
	memberCount := minNewTeamMembers + r.rnd.IntN(extraNewTeamMembers)
	req := models.Team{
		TeamName: ident.GenStr(ident.TeamPrefix),
		Members:  make([]models.TeamMember, 0, memberCount),
	}
	for range memberCount {
		req.Members = append(req.Members, models.TeamMember{
			UserId:   ident.GenStr(ident.UserPrefix),
			Username: ident.GenStr(ident.NewUsernamePrefix),
			IsActive: r.rnd.Float64() > activeThreshold,
		})
	}

	resp := r.observe(r.target.AddTeam(ctx, req))
	scope.Status("new team created successfully", resp.StatusCode == http.StatusCreated)
	scope.Latency(latencyCheckName("team creation", r.opts.TeamLatencyBudget), withinBudget(resp, r.opts.TeamLatencyBudget))

	if resp.StatusCode != http.StatusCreated {
		return
	}
	var body models.TeamResponse
	hasTeam := resp.Decode(&body) == nil && body.Team != nil
	scope.Content("team has correct name", hasTeam && body.Team.TeamName == req.TeamName)
	scope.Content("team has correct number of members", hasTeam && len(body.Team.Members) == memberCount)
}
