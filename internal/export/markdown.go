// Package export renders the note collection to Markdown. Rendering is a
// pure projection: notes go in, text comes out, nothing is mutated.
//
// Two sort policies exist for date-grouped output: the whole-collection
// document sorts groups descending (most recent first), which is the
// canonical mode; the per-day zip archive keeps the older ascending order
// for compatibility with previously exported archives. The undated group
// sorts last in both modes.
package export

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/dotolabs/doto/internal/models"
)

// Undated is the synthetic group for notes without an anchor date.
const Undated = "undated"

// Checkbox returns the glyph rendered for a todo status.
func Checkbox(s models.Status) string {
	switch s {
	case models.StatusCompleted:
		return "[x]"
	case models.StatusInProgress:
		return "[-]"
	default:
		return "[ ]"
	}
}

// Note renders a single note as a standalone document.
func Note(n models.Note) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", n.Meta().Name)
	writeBody(&b, n)
	return b.String()
}

// All renders the whole collection as one document, grouped by anchor
// date with groups sorted descending and the undated group last.
func All(notes []models.Note, exportedOn string) string {
	var b strings.Builder
	b.WriteString("# Doto Notes\n\n")
	fmt.Fprintf(&b, "Exported on %s\n", exportedOn)

	groups, dates := GroupByDate(notes, Descending)
	for _, date := range dates {
		heading := date
		if date == Undated {
			heading = "Undated"
		}
		fmt.Fprintf(&b, "\n## %s\n", heading)
		for _, n := range groups[date] {
			fmt.Fprintf(&b, "\n### %s\n\n", n.Meta().Name)
			writeBody(&b, n)
		}
	}
	return b.String()
}

// Day renders the notes of a single day as one document. This is the
// legacy per-day shape used inside zip archives.
func Day(date string, notes []models.Note) string {
	var b strings.Builder
	title := "Doto Notes - " + date
	if date == Undated {
		title = "Doto Notes - Undated"
	}
	fmt.Fprintf(&b, "# %s\n", title)

	for _, n := range notes {
		fmt.Fprintf(&b, "\n---\n\n## %s\n\n", n.Meta().Name)
		writeBody(&b, n)
	}
	return b.String()
}

func writeBody(b *strings.Builder, n models.Note) {
	switch note := n.(type) {
	case *models.TaskNote:
		for _, td := range note.Todos {
			fmt.Fprintf(b, "- %s %s\n", Checkbox(td.Status), td.Title)
		}
	case *models.TextNote:
		b.WriteString(note.Content)
		b.WriteString("\n")
	}
}

// Order is a date-group sort direction.
type Order int

const (
	Descending Order = iota // canonical: most recent first
	Ascending               // legacy/compat: oldest first
)

// GroupByDate buckets notes by anchor date and returns the buckets with
// their keys in the requested order. The undated bucket is always last,
// regardless of direction. Note order within a bucket is collection order.
func GroupByDate(notes []models.Note, order Order) (map[string][]models.Note, []string) {
	groups := make(map[string][]models.Note)
	for _, n := range notes {
		key := n.Meta().Date
		if key == "" {
			key = Undated
		}
		groups[key] = append(groups[key], n)
	}

	dates := make([]string, 0, len(groups))
	for d := range groups {
		if d != Undated {
			dates = append(dates, d)
		}
	}
	sort.Strings(dates)
	if order == Descending {
		for i, j := 0, len(dates)-1; i < j; i, j = i+1, j-1 {
			dates[i], dates[j] = dates[j], dates[i]
		}
	}
	if _, ok := groups[Undated]; ok {
		dates = append(dates, Undated)
	}
	return groups, dates
}

var fileNameRe = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// FileName slugs a note name into a safe Markdown file name.
func FileName(name string) string {
	slug := strings.ToLower(fileNameRe.ReplaceAllString(name, "-"))
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "note"
	}
	return slug + ".md"
}
