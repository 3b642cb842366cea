package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	serrors "github.com/Aman-CERP/scoutsearch/internal/errors"
	"github.com/Aman-CERP/scoutsearch/internal/validation"
)

type evalOptions struct {
	snapshot string
	offline  bool
	json     bool
}

func newEvalCmd() *cobra.Command {
	var opts evalOptions

	cmd := &cobra.Command{
		Use:   "eval <queries.yaml>",
		Short: "Run a relevance suite against the snapshot",
		Long: `Build the indexes and run every query in a YAML suite through the
search_players tool.

The suite has three sections. tier1 queries must return all their expected
players; negative queries must return none of theirs. tier2 results are
reported but do not fail the run, since they usually need a real embedding
model.`,
		Example: `  scoutsearch eval queries.yaml
  scoutsearch eval queries.yaml --offline --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.snapshot, "snapshot", "", "Snapshot file to evaluate (overrides config)")
	cmd.Flags().BoolVar(&opts.offline, "offline", false, "Use static embeddings (skip Ollama)")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Output the full result as JSON")

	return cmd
}

func runEval(cmd *cobra.Command, path string, opts evalOptions) error {
	ctx := cmd.Context()

	suite, err := validation.LoadSuite(path)
	if err != nil {
		return err
	}

	o, err := openOneShot(ctx, opts.snapshot, opts.offline)
	if err != nil {
		return err
	}
	defer o.Close()

	v, err := validation.NewValidator(o.engine)
	if err != nil {
		return err
	}
	result := v.Run(ctx, suite)

	if opts.json {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
	} else if err := printEval(cmd.OutOrStdout(), result); err != nil {
		return err
	}

	if !result.OK() {
		failed := len(result.Failed(validation.Tier1)) + len(result.Failed(validation.Negative))
		return serrors.Newf(serrors.ErrCodeInternal, "%d relevance checks failed", failed)
	}
	return nil
}

func printEval(w io.Writer, result *validation.Result) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, tr := range result.Results {
		status := "PASS"
		switch {
		case tr.Error != "":
			status = "ERROR"
		case !tr.Passed:
			status = "FAIL"
		}
		detail := strings.Join(tr.Returned, ",")
		if tr.Error != "" {
			detail = tr.Error
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%q\t%s\n", status, tr.Spec.Tier, tr.Spec.ID, tr.Spec.Query, detail)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	var parts []string
	for _, tier := range []validation.Tier{validation.Tier1, validation.Tier2, validation.Negative} {
		if total := result.Total[tier]; total > 0 {
			parts = append(parts, fmt.Sprintf("%s %d/%d", tier, result.Passed[tier], total))
		}
	}
	_, err := fmt.Fprintf(w, "\n%s\n", strings.Join(parts, ", "))
	return err
}
