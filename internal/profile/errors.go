package profile

import (
	"fmt"

	serrors "github.com/Aman-CERP/scoutsearch/internal/errors"
	"github.com/Aman-CERP/scoutsearch/internal/player"
)

// ErrMissingField matches any MissingFieldError via errors.Is.
var ErrMissingField = serrors.New(serrors.ErrCodeMissingField, "required profile field missing", nil)

// Fields the builder requires.
const (
	FieldCurrentClub      = "current_club"
	FieldSeasonStatistics = "season_statistics"
)

// MissingFieldError reports a record lacking a field the profile needs.
type MissingFieldError struct {
	PlayerID player.ID
	Field    string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("player %s: missing required field %s", e.PlayerID, e.Field)
}

// Unwrap exposes the coded error so errors.Is and serrors.GetCode work.
func (e *MissingFieldError) Unwrap() error {
	return serrors.New(serrors.ErrCodeMissingField, e.Error(), nil).
		WithDetail("player_id", string(e.PlayerID)).
		WithDetail("field", e.Field)
}

// Policy decides what happens to records with missing fields.
type Policy string

const (
	// PolicySkip excludes the record from the snapshot.
	PolicySkip Policy = "skip"
	// PolicyFail aborts the whole build.
	PolicyFail Policy = "fail"
	// PolicyPlaceholder substitutes placeholder text.
	PolicyPlaceholder Policy = "placeholder"
)

// ParsePolicy validates a policy name. Empty means PolicySkip.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "", PolicySkip:
		return PolicySkip, nil
	case PolicyFail, PolicyPlaceholder:
		return Policy(s), nil
	default:
		return "", serrors.Newf(serrors.ErrCodeConfigInvalid,
			"invalid missing_field_policy %q (must be skip, fail, or placeholder)", s)
	}
}
