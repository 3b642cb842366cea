// Package output formats CLI results as text or JSON.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"

	serrors "github.com/Aman-CERP/scoutsearch/internal/errors"
	"github.com/Aman-CERP/scoutsearch/internal/player"
	"github.com/Aman-CERP/scoutsearch/internal/search"
)

// Format selects the CLI output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat validates a format name. Empty means FormatText.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", serrors.Newf(serrors.ErrCodeInvalidParameter, "unknown output format %q (must be text or json)", s)
	}
}

// Writer writes CLI output.
type Writer struct {
	out    io.Writer
	header lipgloss.Style
	dim    lipgloss.Style
}

// New creates a Writer. Colour is applied only when color is true.
func New(out io.Writer, color bool) *Writer {
	w := &Writer{out: out, header: lipgloss.NewStyle(), dim: lipgloss.NewStyle()}
	if color {
		w.header = lipgloss.NewStyle().Bold(true)
		w.dim = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	}
	return w
}

// Status prints a message prefixed by icon, or indented when icon is empty.
func (w *Writer) Status(icon, msg string) {
	if icon != "" {
		_, _ = fmt.Fprintf(w.out, "%s %s\n", icon, msg)
	} else {
		_, _ = fmt.Fprintf(w.out, "   %s\n", msg)
	}
}

// Success prints a success message.
func (w *Writer) Success(msg string) { w.Status("✓", msg) }

// Successf prints a formatted success message.
func (w *Writer) Successf(format string, args ...any) { w.Success(fmt.Sprintf(format, args...)) }

// Warning prints a warning.
func (w *Writer) Warning(msg string) { w.Status("!", msg) }

// Warningf prints a formatted warning.
func (w *Writer) Warningf(format string, args ...any) { w.Warning(fmt.Sprintf(format, args...)) }

// Error prints an error.
func (w *Writer) Error(msg string) { w.Status("✗", msg) }

// Newline prints an empty line.
func (w *Writer) Newline() { _, _ = fmt.Fprintln(w.out) }

// JSON writes v as indented JSON.
func (w *Writer) JSON(v any) error {
	enc := json.NewEncoder(w.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// SearchReport is the JSON shape of a CLI search.
type SearchReport struct {
	Query        string                `json:"query"`
	SearchType   search.Mode           `json:"search_type"`
	TotalResults int                   `json:"total_results"`
	Results      []search.RankedResult `json:"results"`
}

// Results writes ranked results in the given format.
func (w *Writer) Results(format Format, query string, mode search.Mode, results []search.RankedResult) error {
	if format == FormatJSON {
		if results == nil {
			results = []search.RankedResult{}
		}
		return w.JSON(SearchReport{Query: query, SearchType: mode, TotalResults: len(results), Results: results})
	}

	if len(results) == 0 {
		_, _ = fmt.Fprintf(w.out, "No players found for %q\n", query)
		return nil
	}

	scoreHeader := "SCORE"
	if mode == search.ModeSemantic {
		scoreHeader = "DISTANCE"
	}
	_, _ = fmt.Fprintln(w.out, w.header.Render(fmt.Sprintf("%d players for %q (%s)", len(results), query, mode)))
	_, _ = fmt.Fprintln(w.out)

	tw := tabwriter.NewWriter(w.out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "#\tID\tNAME\tPOSITION\tNATIONALITY\tCLUB\t%s\n", scoreHeader)
	for _, r := range results {
		p := r.PlayerData
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%.4f\n",
			r.Rank, r.PlayerID, dash(p.FullName), dash(p.Position), dash(p.Nationality), dash(clubName(p)), r.Score())
	}
	return tw.Flush()
}

// Player writes a single player record in the given format.
func (w *Writer) Player(format Format, p player.Player) error {
	if format == FormatJSON {
		return w.JSON(p)
	}

	_, _ = fmt.Fprintln(w.out, w.header.Render(fmt.Sprintf("%s (id %s)", dash(p.FullName), p.PlayerID)))

	tw := tabwriter.NewWriter(w.out, 0, 0, 2, ' ', 0)
	row := func(label, value string) {
		if value != "" {
			_, _ = fmt.Fprintf(tw, "  %s\t%s\n", w.dim.Render(label), value)
		}
	}
	row("Position", p.Position)
	row("Nationality", p.Nationality)
	row("Club", clubName(p))
	if p.Age != nil {
		row("Age", fmt.Sprint(*p.Age))
	}
	if p.DateOfBirth != nil {
		row("Born", *p.DateOfBirth)
	}
	if p.HeightCm != nil {
		row("Height", fmt.Sprintf("%g cm", *p.HeightCm))
	}
	row("Foot", p.PreferredFoot)
	if p.TotalSeasons != nil {
		row("Seasons", fmt.Sprint(*p.TotalSeasons))
	}
	if p.CareerGoals != nil {
		row("Goals", fmt.Sprintf("%g", *p.CareerGoals))
	}
	if p.CareerAssists != nil {
		row("Assists", fmt.Sprintf("%g", *p.CareerAssists))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(p.ClubHistory) > 0 {
		_, _ = fmt.Fprintln(w.out)
		_, _ = fmt.Fprintln(w.out, w.header.Render("Club history"))
		for _, spell := range p.ClubHistory {
			seasons := make([]string, len(spell.Seasons))
			for i, s := range spell.Seasons {
				seasons[i] = s.String()
			}
			_, _ = fmt.Fprintf(w.out, "  %s: %s\n", dash(spell.ClubName), strings.Join(seasons, ", "))
		}
	}
	return nil
}

func clubName(p player.Player) string {
	if p.CurrentClub == nil {
		return ""
	}
	return p.CurrentClub.ClubName
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
