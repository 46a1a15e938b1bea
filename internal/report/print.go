package report

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Print выводит итог таблицами.
func Print(w io.Writer, s Summary) {
	fmt.Fprintf(w, "\nLoad test summary for %s\n", s.BaseURL)
	fmt.Fprintf(w, "  Duration: %.1fs, target rate: %.2f/s, actual rate: %.2f/s\n", s.DurationSec, s.TargetRate, s.ActualRate)
	fmt.Fprintf(w, "  Iterations: %d, dropped: %d\n", s.Iterations, s.Dropped)
	fmt.Fprintf(w, "  Requests: %d total, %d failed\n", s.Totals.Requested, s.Totals.Failed)
	fmt.Fprintf(w, "  Checks: %.2f%% passed (latency %.2f%%, content %.2f%%)\n\n",
		s.CheckRate*100, s.LatencyCheckRate*100, s.ContentCheckRate*100)

	render(w, scenariosTable(s))
	render(w, checksTable(s))
	render(w, latencyTable(s))
	if len(s.Thresholds) > 0 {
		render(w, thresholdsTable(s))
	}
}

func render(w io.Writer, t table.Writer) {
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.Render()
	fmt.Fprintln(w)
}

func scenariosTable(s Summary) table.Writer {
	t := table.NewWriter()
	t.SetTitle("Scenarios")
	t.AppendHeader(table.Row{"Scenario", "Iterations", "Share", "Target"})
	for _, sc := range s.Scenarios {
		t.AppendRow(table.Row{sc.Name, sc.Iterations, percent(sc.ActualShare), percent(sc.TargetShare)})
	}
	t.SetColumnConfigs(rightAligned(2, 3, 4))
	return t
}

func checksTable(s Summary) table.Writer {
	t := table.NewWriter()
	t.SetTitle("Checks")
	t.AppendHeader(table.Row{"Scenario", "Category", "Check", "Passes", "Fails"})
	for _, c := range s.Checks {
		t.AppendRow(table.Row{c.Scenario, c.Category, c.Name, c.Passes, c.Fails})
	}
	t.SetColumnConfigs(rightAligned(4, 5))
	return t
}

func latencyTable(s Summary) table.Writer {
	t := table.NewWriter()
	t.SetTitle("http_req_duration, ms")
	t.AppendHeader(table.Row{"Endpoint", "Requests", "Failed", "Avg", "P90", "P95", "P99", "Max"})
	for _, ep := range s.Endpoints {
		t.AppendRow(table.Row{ep.Endpoint, ep.Requests, ep.Failed,
			ms(ep.Latency.AverageMs), ms(ep.Latency.P90Ms), ms(ep.Latency.P95Ms), ms(ep.Latency.P99Ms), ms(ep.Latency.MaxMs)})
	}
	t.AppendFooter(table.Row{"total", s.Totals.Requested, s.Totals.Failed,
		ms(s.Latency.AverageMs), ms(s.Latency.P90Ms), ms(s.Latency.P95Ms), ms(s.Latency.P99Ms), ms(s.Latency.MaxMs)})
	t.SetColumnConfigs(rightAligned(2, 3, 4, 5, 6, 7, 8))
	return t
}

func thresholdsTable(s Summary) table.Writer {
	t := table.NewWriter()
	t.SetTitle("Thresholds")
	t.AppendHeader(table.Row{"Threshold", "Observed", "Result"})
	for _, v := range s.Thresholds {
		result := "ok"
		if !v.Passed {
			result = "crossed"
		}
		t.AppendRow(table.Row{v.Name, fmt.Sprintf("%.3f", v.Observed), result})
	}
	return t
}

func rightAligned(columns ...int) []table.ColumnConfig {
	out := make([]table.ColumnConfig, 0, len(columns))
	for _, n := range columns {
		out = append(out, table.ColumnConfig{Number: n, Align: text.AlignRight})
	}
	return out
}

func percent(v float64) string {
	return fmt.Sprintf("%.2f%%", v*100)
}

func ms(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
