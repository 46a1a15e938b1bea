package scenario

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AlekseyZapadovnikov/pr-loadgen/internal/domain"
)

func TestPickCutPoints(t *testing.T) {
	tests := []struct {
		r    float64
		want Kind
	}{
		{r: 0, want: GetReview},
		{r: 0.2499, want: GetReview},
		{r: 0.25, want: GetTeam},
		{r: 0.4499, want: GetTeam},
		{r: 0.45, want: StatsAssignments},
		{r: 0.50, want: StatsAssignments},
		{r: 0.60, want: CreatePR},
		{r: 0.72, want: MergePR},
		{r: 0.82, want: SetIsActive},
		{r: 0.90, want: UpdateTeam},
		{r: 0.95, want: ReassignPR},
		{r: 0.97, want: ReassignPR},
		{r: 0.98, want: CreateTeam},
		{r: 0.99, want: CreateTeam},
		{r: 0.999999, want: CreateTeam},
		{r: 1, want: CreateTeam},
		{r: -0.1, want: GetReview},
	}
	for _, tt := range tests {
		require.Equalf(t, tt.want, Pick(tt.r), "Pick(%v)", tt.r)
	}
}

func TestPickDistributionMatchesShares(t *testing.T) {
	rnd := rand.New(rand.NewPCG(42, 7))
	const draws = 100_000

	counts := make(map[Kind]int)
	for range draws {
		counts[Pick(rnd.Float64())]++
	}

	want := map[Kind]float64{
		GetReview:        0.25,
		GetTeam:          0.20,
		StatsAssignments: 0.15,
		CreatePR:         0.12,
		MergePR:          0.10,
		SetIsActive:      0.08,
		UpdateTeam:       0.05,
		ReassignPR:       0.03,
		CreateTeam:       0.02,
	}
	total := 0
	for kind, share := range want {
		total += counts[kind]
		require.InDeltaf(t, share, float64(counts[kind])/draws, 0.01, "share of %s", kind)
		require.InDeltaf(t, share, Share(kind), 1e-9, "table share of %s", kind)
	}
	require.Equal(t, draws, total)
}

func TestKindsAndNames(t *testing.T) {
	kinds := Kinds()
	require.Len(t, kinds, 9)
	require.Equal(t, GetReview, kinds[0])
	require.Equal(t, CreateTeam, kinds[len(kinds)-1])

	var sum float64
	for _, k := range kinds {
		sum += Share(k)
		parsed, err := ParseKind(k.String())
		require.NoError(t, err)
		require.Equal(t, k, parsed)
	}
	require.InDelta(t, 1.0, sum, 1e-9)

	_, err := ParseKind("delete_everything")
	require.ErrorIs(t, err, domain.ErrUnknownScenario)
	require.Equal(t, "unknown", Kind(42).String())
}
