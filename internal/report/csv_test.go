package report

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/nadyarudie/Web-Crawler/internal/model"
)

// TestCSVWriter tests writing both CSV files.
func TestCSVWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes both files", func(t *testing.T) {
		t.Parallel()

		dir := filepath.Join(t.TempDir(), "out")
		n, err := NewCSVWriter(dir).Write(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n == 0 {
			t.Error("expected bytes written")
		}

		broken := readCSV(t, filepath.Join(dir, BrokenLinksCSV))
		if len(broken) != 2 {
			t.Fatalf("expected header + 1 row, got %v", broken)
		}
		if broken[0][2] != "sourceText" {
			t.Errorf("unexpected header %v", broken[0])
		}
		if broken[1][0] != "404" || broken[1][1] != "https://example.com/gone" {
			t.Errorf("unexpected row %v", broken[1])
		}

		info := readCSV(t, filepath.Join(dir, SensitiveInfoCSV))
		if len(info) != 4 {
			t.Fatalf("expected header + 3 rows, got %d", len(info))
		}
		if info[2][0] != "High" || info[2][3] != "api_key" || info[2][4] != `var api_key = "abc123";` {
			t.Errorf("unexpected row %v", info[2])
		}
	})

	t.Run("empty reports still get headers", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		if _, err := NewCSVWriter(dir).Write(model.NewScanReport("https://example.com/")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, name := range []string{BrokenLinksCSV, SensitiveInfoCSV} {
			if rows := readCSV(t, filepath.Join(dir, name)); len(rows) != 1 {
				t.Errorf("%s: expected header only, got %v", name, rows)
			}
		}
	})
}

// TestWriteBrokenLinksCSVQuoting tests fields with commas and quotes.
func TestWriteBrokenLinksCSVQuoting(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	links := []model.BrokenLink{{Status: 500, URL: "https://example.com/a,b", SourceText: `Found on "x"`}}
	if err := WriteBrokenLinksCSV(&buf, links); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	if rows[1][1] != "https://example.com/a,b" || rows[1][2] != `Found on "x"` {
		t.Errorf("unexpected row %v", rows[1])
	}
}

// TestSeedDirName tests directory naming for seeds.
func TestSeedDirName(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		seed     string
		expected string
	}{
		{"https://example.com/", "example.com"},
		{"http://localhost:8080/docs/", "localhost_8080_docs"},
		{"https://Example.com/a?b=c", "Example.com_a"},
		{"", "seed"},
	}

	for _, tc := range testCases {
		t.Run(tc.seed, func(t *testing.T) {
			t.Parallel()
			if got := SeedDirName(tc.seed); got != tc.expected {
				t.Errorf("SeedDirName(%q) = %q, expected %q", tc.seed, got, tc.expected)
			}
		})
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open %s: %v", path, err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV in %s: %v", path, err)
	}
	return rows
}
