// Package preflight checks that scoutsearch can serve before it starts:
// the configuration loads, the snapshot is readable and profiles can be
// built from it, the embedder answers, and the log directory has room.
//
//	checker := preflight.New(preflight.WithOutput(os.Stdout))
//	results := checker.RunAll(ctx, preflight.Target{Config: cfg, Source: src, Embedder: emb})
//	if checker.HasCriticalFailures(results) {
//	    // refuse to serve
//	}
package preflight
