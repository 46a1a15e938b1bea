// Package checks records named pass/fail assertions and request latencies.
//
// A Check never aborts an iteration: handlers record the outcome and carry on.
// Latency budget checks live in their own category so that a slow but correct
// service is distinguishable from a fast but wrong one.
//
// # Basic Usage
//
//	sink := checks.NewSink(checks.DefaultSinkConfig())
//	scope := checks.NewScope(sink, "merge_pr")
//	scope.Status("PR merged successfully", res.StatusCode == http.StatusOK)
//
//	snap := sink.Snapshot()
//	fmt.Println(snap.CheckRate())
//
// # Thread Safety
//
// Sink is safe for concurrent use by any number of iterations.
package checks
