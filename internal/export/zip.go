package export

import (
	"archive/zip"
	"bytes"
	"fmt"

	"github.com/dotolabs/doto/internal/models"
)

// Zip renders one Markdown file per day (days ascending, undated last)
// and packs them into a zip archive. It returns the archive bytes and a
// suggested archive name derived from the covered date range.
func Zip(notes []models.Note) ([]byte, string, error) {
	groups, dates := GroupByDate(notes, Ascending)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, date := range dates {
		name := "doto-notes-" + date + ".md"
		if date == Undated {
			name = "doto-notes-undated.md"
		}
		w, err := zw.Create(name)
		if err != nil {
			return nil, "", fmt.Errorf("export: zip entry %s: %w", name, err)
		}
		if _, err := w.Write([]byte(Day(date, groups[date]))); err != nil {
			return nil, "", fmt.Errorf("export: zip write %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, "", fmt.Errorf("export: close zip: %w", err)
	}

	return buf.Bytes(), zipName(dates), nil
}

// zipName derives the archive name from the dated range, ignoring the
// undated bucket unless it is all there is.
func zipName(dates []string) string {
	dated := dates[:0:0]
	for _, d := range dates {
		if d != Undated {
			dated = append(dated, d)
		}
	}
	switch len(dated) {
	case 0:
		return "doto-notes-undated.zip"
	case 1:
		return "doto-notes-" + dated[0] + ".zip"
	default:
		return "doto-notes-" + dated[0] + "-to-" + dated[len(dated)-1] + ".zip"
	}
}
