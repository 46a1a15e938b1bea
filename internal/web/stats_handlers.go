package web

import (
	"net/http"

	"github.com/AlekseyZapadovnikov/pr-loadgen/internal/checks"
	"github.com/AlekseyZapadovnikov/pr-loadgen/internal/scenario"
)

type statsResponse struct {
	checks.Snapshot
	ElapsedSec    float64 `json:"elapsed_sec"`
	CheckRate     float64 `json:"check_rate"`
	ActiveWorkers int     `json:"active_workers"`
}

// handleStats возвращает текущий снимок статистики прогона.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	snap := s.stats.Snapshot()
	resp := statsResponse{
		Snapshot:   snap,
		ElapsedSec: snap.Elapsed.Seconds(),
		CheckRate:  snap.CheckRate(),
	}
	if s.workers != nil {
		resp.ActiveWorkers = s.workers.ActiveWorkers()
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleChecks возвращает агрегаты проверок, опционально только для одного сценария.
func (s *Server) handleChecks(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("scenario")
	if name != "" {
		if _, err := scenario.ParseKind(name); err != nil {
			status, code, msg := mapDomainError(err)
			writeError(w, status, code, msg)
			return
		}
	}

	out := make([]checks.CheckStat, 0)
	for _, c := range s.stats.Snapshot().Checks {
		if name == "" || c.Scenario == name {
			out = append(out, c)
		}
	}
	writeJSON(w, http.StatusOK, map[string][]checks.CheckStat{"checks": out})
}
