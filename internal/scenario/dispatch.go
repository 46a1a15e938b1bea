package scenario

import (
	"github.com/AlekseyZapadovnikov/pr-loadgen/internal/domain"
)

// Kind тип сценария нагрузки.
type Kind int

// Сценарии в порядке таблицы диспетчера.
const (
	GetReview Kind = iota
	GetTeam
	StatsAssignments
	CreatePR
	MergePR
	SetIsActive
	UpdateTeam
	ReassignPR
	CreateTeam
)

var kindNames = [...]string{
	GetReview:        "get_review",
	GetTeam:          "get_team",
	StatsAssignments: "stats_assignments",
	CreatePR:         "create_pr",
	MergePR:          "merge_pr",
	SetIsActive:      "set_is_active",
	UpdateTeam:       "update_team",
	ReassignPR:       "reassign_pr",
	CreateTeam:       "create_team",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// ParseKind возвращает сценарий по имени.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return Kind(k), nil
		}
	}
	return 0, domain.NewUnknownScenarioError(name)
}

type cutPoint struct {
	upper float64
	kind  Kind
}

// Верхние границы исключающие, проверяются по порядку.
var dispatchTable = [...]cutPoint{
	{upper: 0.25, kind: GetReview},
	{upper: 0.45, kind: GetTeam},
	{upper: 0.60, kind: StatsAssignments},
	{upper: 0.72, kind: CreatePR},
	{upper: 0.82, kind: MergePR},
	{upper: 0.90, kind: SetIsActive},
	{upper: 0.95, kind: UpdateTeam},
	{upper: 0.98, kind: ReassignPR},
	{upper: 1.00, kind: CreateTeam},
}

// Pick выбирает сценарий по равномерной величине r из [0, 1).
// Значения вне интервала прижимаются к крайним сценариям.
func Pick(r float64) Kind {
	for _, cp := range dispatchTable {
		if r < cp.upper {
			return cp.kind
		}
	}
	return dispatchTable[len(dispatchTable)-1].kind
}

// Kinds возвращает все сценарии в порядке таблицы.
func Kinds() []Kind {
	out := make([]Kind, 0, len(dispatchTable))
	for _, cp := range dispatchTable {
		out = append(out, cp.kind)
	}
	return out
}

// Share возвращает целевую долю сценария в общем трафике.
func Share(k Kind) float64 {
	lower := 0.0
	for _, cp := range dispatchTable {
		if cp.kind == k {
			return cp.upper - lower
		}
		lower = cp.upper
	}
	return 0
}
