package search

import (
	serrors "github.com/Aman-CERP/scoutsearch/internal/errors"
)

var (
	// ErrNotReady is returned by queries issued before the first build.
	ErrNotReady = serrors.New(serrors.ErrCodeIndexNotReady, "search engine not ready", nil).
			WithSuggestion("Wait for the index build to finish, or run 'scoutsearch index'")

	// ErrInvalidMode matches an unknown search mode.
	ErrInvalidMode = serrors.New(serrors.ErrCodeInvalidMode, "invalid search mode", nil)

	// ErrInvalidParameter matches out-of-range search parameters.
	ErrInvalidParameter = serrors.New(serrors.ErrCodeInvalidParameter, "invalid search parameter", nil)

	// ErrPlayerNotFound matches lookups of unknown player IDs.
	ErrPlayerNotFound = serrors.New(serrors.ErrCodePlayerNotFound, "player not found", nil)

	// ErrDuplicatePlayer matches snapshots containing a repeated player ID.
	ErrDuplicatePlayer = serrors.New(serrors.ErrCodeDuplicatePlayer, "duplicate player id", nil)
)

func invalidMode(s string) error {
	return serrors.Newf(serrors.ErrCodeInvalidMode,
		"invalid search mode %q (must be hybrid or semantic)", s).
		WithDetail("mode", s)
}

func invalidParameter(name string, format string, args ...any) error {
	return serrors.Newf(serrors.ErrCodeInvalidParameter, format, args...).
		WithDetail("parameter", name)
}

func playerNotFound(id string) error {
	return serrors.Newf(serrors.ErrCodePlayerNotFound, "player %s not found", id).
		WithDetail("player_id", id)
}
