package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/nadyarudie/Web-Crawler/internal/config"
	"github.com/nadyarudie/Web-Crawler/internal/crawler"
	"github.com/nadyarudie/Web-Crawler/internal/fetch"
	"github.com/nadyarudie/Web-Crawler/internal/linkcheck"
	"github.com/nadyarudie/Web-Crawler/internal/model"
	"github.com/nadyarudie/Web-Crawler/internal/report"
)

// fakeArchive records saved reports.
type fakeArchive struct {
	mu    sync.Mutex
	saved []*model.ScanReport
	err   error
}

func (a *fakeArchive) SaveScanReport(_ context.Context, rep *model.ScanReport) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return 0, a.err
	}
	a.saved = append(a.saved, rep)
	return int64(len(a.saved)), nil
}

func (a *fakeArchive) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.saved)
}

// newSite serves a two-page site with one broken link and one finding.
func newSite(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<html><body><a href="/about">about</a><a href="/gone">gone</a>
<!-- TODO: remove debug --></body></html>`)
	})
	mux.HandleFunc("/about", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<html><body>contact admin@example.com</body></html>`)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestServices(server *httptest.Server, archive Archive) *Services {
	logger := slog.New(slog.DiscardHandler)
	fetcher := fetch.NewHTTPFetcher(fetch.Options{Client: server.Client()})
	services := &Services{
		Fetcher: fetcher,
		Checker: linkcheck.NewChecker(fetcher.Client()),
		Logger:  logger,
	}
	if archive != nil {
		services.Archive = archive
	}
	return services
}

func TestCrawlStep(t *testing.T) {
	t.Parallel()

	t.Run("fills in the report", func(t *testing.T) {
		t.Parallel()

		server := newSite(t)
		services := newTestServices(server, nil)
		spider := crawler.NewSpider(services.Fetcher, services.Checker, crawler.WithDelay(0))

		var events []model.Event
		step := NewCrawlStep(spider, WithCrawlEmit(func(e model.Event) error {
			events = append(events, e)
			return nil
		}))

		if step.Name() != "crawl" {
			t.Errorf("Name() = %q", step.Name())
		}

		rep := model.NewScanReport(server.URL + "/")
		if err := step.Do(context.Background(), rep); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if rep.PagesCrawled != 3 {
			t.Errorf("PagesCrawled = %d, want 3", rep.PagesCrawled)
		}
		if len(rep.Result.BrokenLinks) != 1 || rep.Result.BrokenLinks[0].Status != 404 {
			t.Errorf("unexpected broken links %+v", rep.Result.BrokenLinks)
		}
		if len(events) == 0 || events[len(events)-1].Type != model.EventResult {
			t.Errorf("expected a trailing result event, got %d events", len(events))
		}
	})

	t.Run("cancellation keeps partial result", func(t *testing.T) {
		t.Parallel()

		server := newSite(t)
		services := newTestServices(server, nil)
		spider := crawler.NewSpider(services.Fetcher, services.Checker, crawler.WithDelay(0))

		ctx, cancel := context.WithCancel(context.Background())
		step := NewCrawlStep(spider, WithCrawlEmit(func(e model.Event) error {
			if e.Type == model.EventProgress {
				cancel()
			}
			return nil
		}))

		rep := model.NewScanReport(server.URL + "/")
		if err := step.Do(ctx, rep); err != nil {
			t.Fatalf("cancellation should not be an error, got %v", err)
		}
		if !rep.Cancelled {
			t.Error("expected report to be marked cancelled")
		}
		if rep.Result == nil {
			t.Error("expected partial result")
		}
	})

	t.Run("invalid seed is an error", func(t *testing.T) {
		t.Parallel()

		spider := crawler.NewSpider(fetch.NewHTTPFetcher(fetch.Options{}), linkcheck.NewChecker(nil))
		step := NewCrawlStep(spider)

		err := step.Do(context.Background(), model.NewScanReport("not a url"))
		if !errors.Is(err, crawler.ErrInvalidURL) {
			t.Errorf("expected ErrInvalidURL, got %v", err)
		}
	})
}

func TestExportStep(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	step := NewExportStep(dir, nil)
	if step.Name() != "csv-export" {
		t.Errorf("Name() = %q", step.Name())
	}

	rep := model.NewScanReport("https://example.com/")
	rep.Result.AddBrokenLink(model.BrokenLink{Status: 404, URL: "https://example.com/gone", SourceText: "gone"})

	if err := step.Do(context.Background(), rep); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	seedDir := filepath.Join(dir, report.SeedDirName(rep.Seed))
	data, err := os.ReadFile(filepath.Join(seedDir, report.BrokenLinksCSV))
	if err != nil {
		t.Fatalf("failed to read broken links csv: %v", err)
	}
	if !strings.Contains(string(data), "https://example.com/gone") {
		t.Errorf("broken link missing from csv:\n%s", data)
	}
	if _, err := os.Stat(filepath.Join(seedDir, report.SensitiveInfoCSV)); err != nil {
		t.Errorf("sensitive info csv not written: %v", err)
	}
}

func TestArchiveStep(t *testing.T) {
	t.Parallel()

	t.Run("saves completed reports", func(t *testing.T) {
		t.Parallel()

		archive := &fakeArchive{}
		step := NewArchiveStep(archive, nil)

		if err := step.Do(context.Background(), model.NewScanReport("https://example.com/")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if archive.count() != 1 {
			t.Errorf("expected 1 saved report, got %d", archive.count())
		}
	})

	t.Run("skips cancelled and failed reports", func(t *testing.T) {
		t.Parallel()

		archive := &fakeArchive{}
		step := NewArchiveStep(archive, nil)

		cancelled := model.NewScanReport("https://example.com/")
		cancelled.Cancelled = true
		failed := model.NewScanReport("https://example.com/")
		failed.Error = "seed unreachable"

		for _, rep := range []*model.ScanReport{cancelled, failed} {
			if err := step.Do(context.Background(), rep); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}
		if archive.count() != 0 {
			t.Errorf("expected nothing archived, got %d", archive.count())
		}
	})

	t.Run("archive failure is not a step failure", func(t *testing.T) {
		t.Parallel()

		step := NewArchiveStep(&fakeArchive{err: errors.New("disk full")}, slog.New(slog.DiscardHandler))

		if err := step.Do(context.Background(), model.NewScanReport("https://example.com/")); err != nil {
			t.Errorf("expected nil, got %v", err)
		}
	})
}

func TestNewServices(t *testing.T) {
	t.Parallel()

	services := NewServices(config.NewConfig(), nil, nil)

	if services.Fetcher == nil || services.Checker == nil {
		t.Fatal("expected fetcher and checker")
	}
	if services.Logger == nil {
		t.Error("expected default logger")
	}
	if services.Archive != nil {
		t.Error("expected no archive")
	}
}

func TestDefaultPipeline(t *testing.T) {
	t.Parallel()

	t.Run("step order", func(t *testing.T) {
		t.Parallel()

		services := NewServices(config.NewConfig(), &fakeArchive{}, nil)

		p := DefaultPipeline(services, nil, WithPipelineCSVDir(t.TempDir()))
		names := p.StepNames()
		expected := []string{"crawl", "csv-export", "archive"}
		if len(names) != len(expected) {
			t.Fatalf("got steps %v, want %v", names, expected)
		}
		for i := range expected {
			if names[i] != expected[i] {
				t.Errorf("step %d = %q, want %q", i, names[i], expected[i])
			}
		}

		services.Archive = nil
		if n := len(DefaultPipeline(services, nil).StepNames()); n != 1 {
			t.Errorf("expected only the crawl step, got %d", n)
		}
	})

	t.Run("end to end", func(t *testing.T) {
		t.Parallel()

		server := newSite(t)
		archive := &fakeArchive{}
		dir := t.TempDir()

		var results int
		p := DefaultPipeline(newTestServices(server, archive), nil,
			WithPipelineCrawlDelay(0),
			WithPipelineCSVDir(dir),
			WithPipelineEmit(func(e model.Event) error {
				if e.Type == model.EventResult {
					results++
				}
				return nil
			}),
		)

		rep := model.NewScanReport(server.URL + "/")
		if err := p.Execute(context.Background(), rep); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if results != 1 {
			t.Errorf("expected exactly one result event, got %d", results)
		}
		if archive.count() != 1 {
			t.Errorf("expected report archived, got %d", archive.count())
		}
		if len(rep.Steps) != 3 || rep.Steps[0].Name != "crawl" || rep.Steps[2].Name != "archive" {
			t.Errorf("unexpected step timings %+v", rep.Steps)
		}

		var email, devComment bool
		for _, f := range rep.Result.SensitiveInfo {
			switch f.Category {
			case model.CategoryEmailAddress:
				email = true
			case model.CategoryDeveloperComment:
				devComment = true
			}
		}
		if !email || !devComment {
			t.Errorf("expected email and developer comment findings, got %+v", rep.Result.SensitiveInfo)
		}

		if _, err := os.Stat(filepath.Join(dir, report.SeedDirName(rep.Seed), report.BrokenLinksCSV)); err != nil {
			t.Errorf("csv not exported: %v", err)
		}
	})
}
