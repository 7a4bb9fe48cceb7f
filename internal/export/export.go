// Package export writes a task list as JSON, CSV or a PDF report.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"taskmgr/internal/output"
	"taskmgr/internal/store"
)

// Format is an export encoding.
type Format string

const (
	JSON Format = "json"
	CSV  Format = "csv"
	PDF  Format = "pdf"
)

// ParseFormat parses a format name. An empty name infers the format from
// path, defaulting to JSON.
func ParseFormat(name, path string) (Format, error) {
	if name == "" {
		name = strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
		if name == "" {
			return JSON, nil
		}
	}
	switch f := Format(strings.ToLower(name)); f {
	case JSON, CSV, PDF:
		return f, nil
	}
	return "", fmt.Errorf("unknown export format: %s (supported: json, csv, pdf)", name)
}

// Summary is the completion breakdown printed with a report.
type Summary struct {
	Total     int     `json:"total"`
	Completed int     `json:"completed"`
	Pending   int     `json:"pending"`
	Ratio     float64 `json:"completion_ratio"`
}

// Report is a task list together with the view that produced it.
type Report struct {
	Sort    store.Sort   `json:"sort"`
	Filter  store.Filter `json:"filter"`
	Summary Summary      `json:"summary"`
	Tasks   []store.Task `json:"tasks"`
}

// Write encodes r to w in format f.
func Write(w io.Writer, f Format, r Report) error {
	switch f {
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if r.Tasks == nil {
			r.Tasks = []store.Task{}
		}
		return enc.Encode(r)
	case CSV:
		return writeCSV(w, r.Tasks)
	case PDF:
		return writePDF(w, r)
	default:
		return fmt.Errorf("unknown export format: %s", f)
	}
}

var csvHeader = []string{"position", "id", "title", "description", "priority", "due_date", "completed", "order"}

func writeCSV(w io.Writer, tasks []store.Task) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for i, t := range tasks {
		desc := ""
		if t.Description != nil {
			desc = *t.Description
		}
		due := ""
		if t.DueDate != nil {
			due = t.DueDate.UTC().Format(time.RFC3339Nano)
		}
		row := []string{
			strconv.Itoa(i + 1),
			t.ID,
			t.Title,
			desc,
			t.Priority.String(),
			due,
			strconv.FormatBool(t.IsCompleted),
			strconv.Itoa(t.Order),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writePDF(w io.Writer, r Report) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Task Report", true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(40, 10, "Task Report")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Sort: %s    Filter: %s", r.Sort, r.Filter))
	pdf.Ln(8)

	var summary bytes.Buffer
	output.FormatSummary(&summary, r.Summary.Total, r.Summary.Completed, r.Summary.Pending, r.Summary.Ratio)
	pdf.Cell(0, 6, strings.TrimSpace(summary.String()))
	pdf.Ln(8)
	drawStatusBar(pdf, r.Summary)

	pdf.SetFont("Arial", "", 10)
	for i, t := range r.Tasks {
		mark := "[ ]"
		if t.IsCompleted {
			mark = "[x]"
		}
		line := fmt.Sprintf("%d. %s %s  (%s, %s)", i+1, mark, t.Title, t.Priority, output.FormatDue(t.DueDate))
		pdf.MultiCell(0, 6, tr(line), "0", "L", false)
		if t.Description != nil && strings.TrimSpace(*t.Description) != "" {
			pdf.SetFont("Arial", "I", 9)
			pdf.MultiCell(0, 5, tr("    "+*t.Description), "0", "L", false)
			pdf.SetFont("Arial", "", 10)
		}
	}

	return pdf.Output(w)
}

// drawStatusBar draws completed and pending as one horizontal bar.
func drawStatusBar(pdf *gofpdf.Fpdf, s Summary) {
	const width, height = 120.0, 6.0
	x, y := pdf.GetX(), pdf.GetY()

	pdf.SetFillColor(220, 220, 220)
	pdf.Rect(x, y, width, height, "F")
	if s.Total > 0 {
		pdf.SetFillColor(76, 175, 80)
		pdf.Rect(x, y, width*s.Ratio, height, "F")
	}
	pdf.SetY(y + height + 4)
}
