package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/nadyarudie/Web-Crawler/internal/config"
	"github.com/nadyarudie/Web-Crawler/internal/model"
	"github.com/nadyarudie/Web-Crawler/internal/pipeline"
)

type fakeArchive struct {
	mu    sync.Mutex
	seeds []string
}

func (a *fakeArchive) SaveScanReport(_ context.Context, rep *model.ScanReport) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.seeds = append(a.seeds, rep.Seed)
	return int64(len(a.seeds)), nil
}

func newTestServer(t *testing.T, archive pipeline.Archive) *httptest.Server {
	t.Helper()

	cfg := config.NewConfig()
	cfg.CrawlDelay = 0
	logger := slog.New(slog.DiscardHandler)

	srv := httptest.NewServer(New(cfg, pipeline.NewServices(cfg, archive, logger), WithLogger(logger)))
	t.Cleanup(srv.Close)
	return srv
}

func newTargetSite(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body><a href="/ok">ok</a><a href="/gone">gone</a></body></html>`)
	})
	mux.HandleFunc("/ok", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<html><body><!-- FIXME: cache --></body></html>")
	})

	site := httptest.NewServer(mux)
	t.Cleanup(site.Close)
	return site
}

func TestHealth(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("CORS header = %q, want *", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, nil)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/scan", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want 204", resp.StatusCode)
	}
	if !strings.Contains(resp.Header.Get("Access-Control-Allow-Methods"), http.MethodPost) {
		t.Errorf("allow methods = %q", resp.Header.Get("Access-Control-Allow-Methods"))
	}
}

func TestScanMethodNotAllowed(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/scan")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", resp.StatusCode)
	}
	if got := resp.Header.Get("Allow"); got != http.MethodPost {
		t.Errorf("Allow = %q, want POST", got)
	}
}

func TestScanRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, nil)

	tests := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{"url":`},
		{name: "missing url", body: `{}`},
		{name: "empty url", body: `{"url":""}`},
		{name: "relative url", body: `{"url":"/relative/path"}`},
		{name: "not a url", body: `{"url":"not a url"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			resp, err := http.Post(srv.URL+"/scan", "application/json", strings.NewReader(tt.body))
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
			var body map[string]string
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if body["error"] != "A valid URL is required" {
				t.Errorf("error = %q", body["error"])
			}
		})
	}
}

func TestScanStreamsEvents(t *testing.T) {
	t.Parallel()

	site := newTargetSite(t)
	archive := &fakeArchive{}
	srv := newTestServer(t, archive)

	payload := fmt.Sprintf(`{"url":%q}`, site.URL+"/")
	resp, err := http.Post(srv.URL+"/scan", "application/json", strings.NewReader(payload))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if got := resp.Header.Get("Content-Type"); got != ContentTypeNDJSON {
		t.Errorf("Content-Type = %q", got)
	}

	var events []model.Event
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		var e model.Event
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			t.Fatalf("invalid event line %q: %v", scanner.Text(), err)
		}
		events = append(events, e)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("read stream: %v", err)
	}

	if len(events) != 4 {
		t.Fatalf("expected 3 progress events and 1 result, got %d", len(events))
	}
	for i, e := range events[:3] {
		if e.Type != model.EventProgress {
			t.Errorf("event %d type = %q, want progress", i, e.Type)
		}
	}
	last := events[3]
	if last.Type != model.EventResult || last.Result == nil {
		t.Fatalf("last event is not a result: %+v", last)
	}
	if len(last.Result.BrokenLinks) != 1 || last.Result.BrokenLinks[0].URL != site.URL+"/gone" {
		t.Errorf("unexpected broken links %+v", last.Result.BrokenLinks)
	}
	if len(last.Result.SensitiveInfo) != 1 || last.Result.SensitiveInfo[0].Finding != "FIXME" {
		t.Errorf("unexpected findings %+v", last.Result.SensitiveInfo)
	}

	archive.mu.Lock()
	defer archive.mu.Unlock()
	if len(archive.seeds) != 1 || archive.seeds[0] != site.URL+"/" {
		t.Errorf("archived seeds = %v", archive.seeds)
	}
}

func TestListenAndServeShutdown(t *testing.T) {
	t.Parallel()

	cfg := config.NewConfig()
	logger := slog.New(slog.DiscardHandler)
	s := New(cfg, pipeline.NewServices(cfg, nil, logger), WithLogger(logger))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.ListenAndServe(ctx, "127.0.0.1:0")
	}()
	cancel()

	if err := <-done; err != nil {
		t.Errorf("expected clean shutdown, got %v", err)
	}
}
