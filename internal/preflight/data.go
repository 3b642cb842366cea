package preflight

import (
	"context"
	"errors"
	"fmt"

	"github.com/Aman-CERP/scoutsearch/internal/player"
	"github.com/Aman-CERP/scoutsearch/internal/profile"
)

// CheckSnapshot loads the snapshot. The players are returned so later
// checks need not load it again; they are nil when loading failed.
func (c *Checker) CheckSnapshot(ctx context.Context, source player.Source) ([]player.Player, CheckResult) {
	result := CheckResult{Name: "snapshot", Required: true, Details: source.String()}

	players, err := source.Load(ctx)
	if err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("cannot load: %v", err)
		return nil, result
	}
	if len(players) == 0 {
		result.Status = StatusFail
		result.Message = "snapshot is empty"
		return players, result
	}

	seen := make(map[player.ID]struct{}, len(players))
	for _, p := range players {
		if p.PlayerID == "" {
			result.Status = StatusFail
			result.Message = "a record has no playerId"
			return players, result
		}
		if _, dup := seen[p.PlayerID]; dup {
			result.Status = StatusFail
			result.Message = fmt.Sprintf("player id %s appears more than once", p.PlayerID)
			return players, result
		}
		seen[p.PlayerID] = struct{}{}
	}

	result.Status = StatusPass
	result.Message = fmt.Sprintf("%d players", len(players))
	return players, result
}

// CheckProfiles builds every profile under policy and reports how many
// records would be skipped or would fail the build.
func (c *Checker) CheckProfiles(players []player.Player, policy string) CheckResult {
	result := CheckResult{Name: "profiles", Required: true}

	p, err := profile.ParsePolicy(policy)
	if err != nil {
		result.Status = StatusFail
		result.Message = err.Error()
		return result
	}
	builder := profile.NewBuilder(profile.WithPolicy(p))

	missing := 0
	var first *profile.MissingFieldError
	for i := range players {
		if _, err := builder.Build(&players[i]); err != nil {
			var mf *profile.MissingFieldError
			if errors.As(err, &mf) && first == nil {
				first = mf
			}
			missing++
		}
	}

	switch {
	case missing == 0:
		result.Status = StatusPass
		result.Message = fmt.Sprintf("all %d profiles build", len(players))
	case p == profile.PolicyFail || missing == len(players):
		result.Status = StatusFail
		result.Message = fmt.Sprintf("%d of %d records lack required fields (policy %s)", missing, len(players), p)
	default:
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("%d of %d records will be skipped", missing, len(players))
	}
	if first != nil {
		result.Details = "First: " + first.Error()
	}
	return result
}
