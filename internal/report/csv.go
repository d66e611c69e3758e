package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nadyarudie/Web-Crawler/internal/model"
)

// CSV file names written by CSVWriter.
const (
	BrokenLinksCSV   = "broken_links.csv"
	SensitiveInfoCSV = "sensitive_info.csv"
)

// Column headers use the JSON field names so CSV and event stream agree.
var (
	brokenLinkHeader    = []string{"status", "url", "sourceText"}
	sensitiveInfoHeader = []string{"severity", "category", "url", "finding", "line"}
)

// CSVWriter writes the two reports of a crawl as CSV files in a directory.
//
// Design decision: We write both files on every call, header only when a
// report is empty, so downstream scripts can rely on the files existing.
type CSVWriter struct {
	dir string
}

// NewCSVWriter creates a CSVWriter that writes into dir, creating it if needed.
func NewCSVWriter(dir string) *CSVWriter {
	return &CSVWriter{dir: dir}
}

// Write creates broken_links.csv and sensitive_info.csv in the writer's directory.
// It returns the total bytes written.
func (w *CSVWriter) Write(report *model.ScanReport) (int, error) {
	if err := os.MkdirAll(w.dir, 0o750); err != nil {
		return 0, fmt.Errorf("failed to create CSV directory: %w", err)
	}

	result := resultOf(report)
	n1, err := writeCSVFile(filepath.Join(w.dir, BrokenLinksCSV), func(out io.Writer) error {
		return WriteBrokenLinksCSV(out, result.BrokenLinks)
	})
	if err != nil {
		return n1, err
	}
	n2, err := writeCSVFile(filepath.Join(w.dir, SensitiveInfoCSV), func(out io.Writer) error {
		return WriteSensitiveInfoCSV(out, result.SensitiveInfo)
	})
	return n1 + n2, err
}

// writeCSVFile creates path and fills it with write.
func writeCSVFile(path string, write func(io.Writer) error) (int, error) {
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", filepath.Base(path), err)
	}
	cw := &countingWriter{w: f}
	if err := write(cw); err != nil {
		_ = f.Close()
		return cw.n, fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err := f.Close(); err != nil {
		return cw.n, fmt.Errorf("failed to close %s: %w", filepath.Base(path), err)
	}
	return cw.n, nil
}

// WriteBrokenLinksCSV writes broken links with a header row.
func WriteBrokenLinksCSV(out io.Writer, links []model.BrokenLink) error {
	cw := csv.NewWriter(out)
	if err := cw.Write(brokenLinkHeader); err != nil {
		return err
	}
	for _, l := range links {
		if err := cw.Write([]string{strconv.Itoa(l.Status), l.URL, l.SourceText}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSensitiveInfoCSV writes findings with a header row.
func WriteSensitiveInfoCSV(out io.Writer, findings []model.Finding) error {
	cw := csv.NewWriter(out)
	if err := cw.Write(sensitiveInfoHeader); err != nil {
		return err
	}
	for _, f := range findings {
		row := []string{f.Severity.String(), string(f.Category), f.URL, f.Finding, f.Line}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SeedDirName returns a file-system safe directory name for a seed URL,
// used to keep the CSV files of several seeds apart.
func SeedDirName(seed string) string {
	name := seed
	if u, err := url.Parse(seed); err == nil && u.Host != "" {
		name = u.Host + u.Path
	}
	name = strings.Trim(name, "/")
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-':
			return r
		default:
			return '_'
		}
	}, name)
	if name == "" {
		return "seed"
	}
	return name
}

// countingWriter counts bytes passed through to w.
type countingWriter struct {
	w io.Writer
	n int
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += n
	return n, err
}
