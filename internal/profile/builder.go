package profile

import (
	"fmt"
	"strconv"

	"github.com/Aman-CERP/scoutsearch/internal/player"
)

const (
	unknown         = "unknown"
	placeholderClub = "an unknown club"
)

// Builder renders profiles. It is stateless apart from its policy and safe
// for concurrent use.
type Builder struct {
	policy Policy
}

// Option configures a Builder.
type Option func(*Builder)

// WithPolicy sets the missing-field policy.
func WithPolicy(p Policy) Option {
	return func(b *Builder) {
		b.policy = p
	}
}

// NewBuilder creates a Builder. The default policy is PolicySkip.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{policy: PolicySkip}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Policy returns the builder's missing-field policy.
func (b *Builder) Policy() Policy {
	return b.policy
}

// Build renders the profile of p. Missing required fields yield a
// *MissingFieldError unless the policy is PolicyPlaceholder.
//
// The club sentence is repeated at the end so club context sits near both
// ends of the text.
func (b *Builder) Build(p *player.Player) (string, error) {
	clubName := ""
	if p.CurrentClub != nil {
		clubName = p.CurrentClub.ClubName
	}
	if clubName == "" {
		if b.policy != PolicyPlaceholder {
			return "", &MissingFieldError{PlayerID: p.PlayerID, Field: FieldCurrentClub}
		}
		clubName = placeholderClub
	}
	if p.SeasonStatistics == nil && b.policy != PolicyPlaceholder {
		return "", &MissingFieldError{PlayerID: p.PlayerID, Field: FieldSeasonStatistics}
	}

	agg := Aggregate(p.SeasonStatistics)
	club := "Currently plays for " + clubName

	return fmt.Sprintf("%s. %s. %s. %s %s %s",
		basicInfo(p), club, physical(p), Summary(agg), StyleKeywords(agg), club), nil
}

func basicInfo(p *player.Player) string {
	age := unknown
	if p.Age != nil {
		age = strconv.Itoa(*p.Age)
	}
	return fmt.Sprintf("%s is a %s year old from %s and play at %s position",
		orUnknown(p.FullName), age, orUnknown(p.Nationality), orUnknown(p.Position))
}

func physical(p *player.Player) string {
	return fmt.Sprintf("Height: %scm, Weight: %skg, %s footed",
		formatOptional(p.HeightCm), formatOptional(p.WeightKg), orUnknown(p.PreferredFoot))
}

func orUnknown(s string) string {
	if s == "" {
		return unknown
	}
	return s
}

func formatOptional(v *float64) string {
	if v == nil {
		return unknown
	}
	return formatNumber(*v)
}

// formatNumber prints whole numbers without a decimal part.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
