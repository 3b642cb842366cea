package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	serrors "github.com/Aman-CERP/scoutsearch/internal/errors"
	"github.com/Aman-CERP/scoutsearch/internal/logging"
	"github.com/Aman-CERP/scoutsearch/internal/preflight"
)

type doctorOptions struct {
	verbose  bool
	json     bool
	offline  bool
	snapshot string
}

func newDoctorCmd() *cobra.Command {
	var opts doctorOptions

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check that scoutsearch can serve",
		Long: `Run the checks serve depends on and report each one.

Checks:
  - Configuration loads and validates
  - Snapshot loads with unique player ids
  - Profiles build under the missing-field policy
  - Embedder is reachable (optional; static embeddings always work)
  - Log directory is writable with 100MB free
  - Open file limit

Exits non-zero when a required check fails.`,
		Example: `  scoutsearch doctor
  scoutsearch doctor --verbose
  scoutsearch doctor --json --offline`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Show check details")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&opts.offline, "offline", false, "Check the static embedder instead of Ollama")
	cmd.Flags().StringVar(&opts.snapshot, "snapshot", "", "Snapshot file to check (overrides config)")

	return cmd
}

func runDoctor(cmd *cobra.Command, opts doctorOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	checker := preflight.New(
		preflight.WithVerbose(opts.verbose),
		preflight.WithOutput(cmd.OutOrStdout()),
	)
	results := doctorResults(ctx, checker, opts)

	if opts.json {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(struct {
			Status string                  `json:"status"`
			Checks []preflight.CheckResult `json:"checks"`
		}{checker.SummaryStatus(results), results}); err != nil {
			return err
		}
	} else {
		checker.PrintResults(results)
	}

	if checker.HasCriticalFailures(results) {
		return serrors.New(serrors.ErrCodeInternal, "system check failed", nil).
			WithSuggestion("fix the failed checks above and run 'scoutsearch doctor' again")
	}
	return nil
}

// doctorResults gathers the check inputs. Failures to build an input
// become failed results rather than errors, so every problem is reported.
func doctorResults(ctx context.Context, checker *preflight.Checker, opts doctorOptions) []preflight.CheckResult {
	target := preflight.Target{LogDir: logging.DefaultLogDir()}
	var early []preflight.CheckResult

	cfg, err := loadConfig()
	if err != nil {
		return append([]preflight.CheckResult{{
			Name: "config", Status: preflight.StatusFail, Required: true, Message: err.Error(),
		}}, checker.RunAll(ctx, target)...)
	}
	target.Config = cfg

	source, closeSource, err := openSource(cfg, opts.snapshot)
	if err != nil {
		early = append(early, preflight.CheckResult{
			Name: "snapshot", Status: preflight.StatusFail, Required: true, Message: err.Error(),
		})
	} else {
		defer closeSource()
		target.Source = source
	}

	embedder, err := newEmbedder(ctx, cfg, opts.offline)
	if err != nil {
		early = append(early, preflight.CheckResult{
			Name: "embedder", Status: preflight.StatusFail, Message: err.Error(),
			Details: fmt.Sprintf("provider %q; use --offline or set embeddings.provider to static", cfg.Embeddings.Provider),
		})
	} else {
		defer func() { _ = embedder.Close() }()
		target.Embedder = embedder
	}

	return append(early, checker.RunAll(ctx, target)...)
}
