package commands

import (
	"fmt"
	"math/rand/v2"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/AlekseyZapadovnikov/pr-loadgen/internal/scenario"
)

var (
	dispatchDraws int
	dispatchSeed  uint64
)

var dispatchCmd = &cobra.Command{
	Use:   "dispatch",
	Short: "Samples the scenario dispatcher offline and compares shares with the mix table.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if dispatchDraws <= 0 {
			return fmt.Errorf("draws must be positive, got %d", dispatchDraws)
		}
		counts := sampleDispatch(rand.New(rand.NewPCG(dispatchSeed, dispatchSeed)), dispatchDraws)

		t := table.NewWriter()
		t.SetOutputMirror(cmd.OutOrStdout())
		t.SetStyle(table.StyleRounded)
		t.AppendHeader(table.Row{"Scenario", "Draws", "Target", "Observed"})
		for _, k := range scenario.Kinds() {
			t.AppendRow(table.Row{
				k.String(),
				counts[k],
				fmt.Sprintf("%.2f%%", scenario.Share(k)*100),
				fmt.Sprintf("%.2f%%", float64(counts[k])/float64(dispatchDraws)*100),
			})
		}
		t.AppendFooter(table.Row{"total", dispatchDraws, "100.00%", ""})
		t.SetColumnConfigs([]table.ColumnConfig{
			{Number: 2, Align: text.AlignRight},
			{Number: 3, Align: text.AlignRight},
			{Number: 4, Align: text.AlignRight},
		})
		t.Render()
		return nil
	},
}

func init() {
	dispatchCmd.Flags().IntVar(&dispatchDraws, "draws", 100_000, "number of uniform draws")
	dispatchCmd.Flags().Uint64Var(&dispatchSeed, "seed", 1, "random seed")
	rootCmd.AddCommand(dispatchCmd)
}

func sampleDispatch(rnd *rand.Rand, draws int) map[scenario.Kind]int {
	counts := make(map[scenario.Kind]int, len(scenario.Kinds()))
	for range draws {
		counts[scenario.Pick(rnd.Float64())]++
	}
	return counts
}
