// Package export renders a monthly report as a spreadsheet, a PDF, CSV,
// JSON or a terminal table.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/Tiliavir/fichajes/internal/calendar"
	"github.com/Tiliavir/fichajes/internal/stats"
	"github.com/Tiliavir/fichajes/internal/timecalc"
)

// ErrUnknownFormat is returned for an unsupported output format.
var ErrUnknownFormat = errors.New("unknown export format")

// Format is an output format.
type Format string

const (
	FormatXLSX     Format = "xlsx"
	FormatPDF      Format = "pdf"
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "md"
)

// ParseFormat validates s.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatXLSX, FormatPDF, FormatCSV, FormatJSON, FormatMarkdown:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Report is one month of stats, one row per employee.
type Report struct {
	Month calendar.Month
	Rows  []stats.Stats
}

// Title is the heading used by the PDF and the terminal table.
func (r Report) Title() string {
	return "Informe " + r.Month.LongES()
}

// Columns are the report headers shared by the spreadsheet and PDF.
var Columns = []string{
	"Empleado", "H. Teóricas", "Trabajadas", "Ausencia Just.",
	"Saldo", "Guardia Festivo", "Vacaciones", "Asuntos",
}

func cells(s stats.Stats) []string {
	return []string{
		s.Employee,
		timecalc.FormatHours(s.Standard),
		timecalc.FormatHours(s.Regular),
		timecalc.FormatHours(s.PersonalHours),
		timecalc.FormatHours(s.Balance),
		timecalc.FormatHours(s.Holiday),
		fmt.Sprint(s.Vac),
		fmt.Sprint(s.Personal),
	}
}

// Filename returns the download name for month, e.g. "Fichajes_2026_3.xlsx".
func Filename(m calendar.Month, f Format) string {
	return fmt.Sprintf("Fichajes_%d_%d.%s", m.Year, int(m.Month), f)
}

// Write renders r in format f.
func Write(w io.Writer, f Format, r Report) error {
	switch f {
	case FormatXLSX:
		return WriteXLSX(w, r)
	case FormatPDF:
		return WritePDF(w, r)
	case FormatCSV:
		return WriteCSV(w, r)
	case FormatJSON:
		return WriteJSON(w, r)
	case FormatMarkdown:
		_, err := io.WriteString(w, Table(r)+"\n")
		return err
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}

// WriteFile renders r into dir under Filename and returns the path. The
// file only appears once it is complete.
func WriteFile(dir string, f Format, r Report) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating export directory: %w", err)
	}
	path := filepath.Join(dir, Filename(r.Month, f))
	tmp := path + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", tmp, err)
	}
	if err := Write(out, f, r); err != nil {
		out.Close()
		os.Remove(tmp)
		return "", err
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("closing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("renaming %s: %w", tmp, err)
	}
	return path, nil
}

// WriteCSV writes one row per employee with a header line.
func WriteCSV(w io.Writer, r Report) error {
	rows := r.Rows
	if rows == nil {
		rows = []stats.Stats{}
	}
	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("writing CSV: %w", err)
	}
	return nil
}

type jsonReport struct {
	Month string        `json:"month"`
	Title string        `json:"title"`
	Rows  []stats.Stats `json:"rows"`
	Total stats.Stats   `json:"total"`
}

// WriteJSON writes the report with a team total.
func WriteJSON(w io.Writer, r Report) error {
	rows := r.Rows
	if rows == nil {
		rows = []stats.Stats{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonReport{
		Month: r.Month.String(),
		Title: r.Title(),
		Rows:  rows,
		Total: stats.Totals(rows),
	})
}
