package linkcheck

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nadyarudie/Web-Crawler/internal/model"
)

// TestCheckStatuses tests classification of final statuses.
func TestCheckStatuses(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.HandleFunc("/gone", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNotFound) })
	mux.HandleFunc("/error", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusServiceUnavailable) })
	mux.HandleFunc("/moved", func(w http.ResponseWriter, r *http.Request) { http.Redirect(w, r, "/ok", http.StatusMovedPermanently) })
	mux.HandleFunc("/moved-gone", func(w http.ResponseWriter, r *http.Request) { http.Redirect(w, r, "/gone", http.StatusFound) })
	server := httptest.NewServer(mux)
	defer server.Close()

	testCases := []struct {
		path    string
		code    int
		healthy bool
	}{
		{"/ok", http.StatusOK, true},
		{"/gone", http.StatusNotFound, false},
		{"/error", http.StatusServiceUnavailable, false},
		{"/moved", http.StatusOK, true},
		{"/moved-gone", http.StatusNotFound, false},
	}

	checker := NewChecker(server.Client())
	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			t.Parallel()
			st := checker.Check(context.Background(), server.URL+tc.path)
			if st.Code != tc.code || st.Healthy != tc.healthy {
				t.Errorf("got %+v, expected code %d healthy %v", st, tc.code, tc.healthy)
			}
			if st.Err != nil {
				t.Errorf("unexpected error: %v", st.Err)
			}
		})
	}
}

// TestCheckUsesHEAD tests the probe method and User-Agent.
func TestCheckUsesHEAD(t *testing.T) {
	t.Parallel()

	var method, ua atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method.Store(r.Method)
		ua.Store(r.UserAgent())
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	NewChecker(nil, WithUserAgent("probe/1.0")).Check(context.Background(), server.URL)

	if got := method.Load(); got != http.MethodHead {
		t.Errorf("got method %v, expected HEAD", got)
	}
	if got := ua.Load(); got != "probe/1.0" {
		t.Errorf("got User-Agent %v", got)
	}
}

// TestCheckUnreachable tests the sentinel status for probes without a response.
func TestCheckUnreachable(t *testing.T) {
	t.Parallel()

	t.Run("connection refused", func(t *testing.T) {
		t.Parallel()
		server := httptest.NewServer(http.NotFoundHandler())
		addr := server.URL
		server.Close()

		st := NewChecker(nil).Check(context.Background(), addr)
		if st.Code != model.StatusUnreachable || st.Healthy || st.Err == nil {
			t.Errorf("got %+v", st)
		}
	})

	t.Run("timeout", func(t *testing.T) {
		t.Parallel()
		release := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer server.Close()
		defer close(release)

		st := NewChecker(nil, WithTimeout(50*time.Millisecond)).Check(context.Background(), server.URL)
		if st.Code != model.StatusUnreachable || st.Healthy {
			t.Errorf("got %+v", st)
		}
	})

	t.Run("malformed URL", func(t *testing.T) {
		t.Parallel()
		st := NewChecker(nil).Check(context.Background(), "http://[::1")
		if st.Code != model.StatusUnreachable || st.Err == nil {
			t.Errorf("got %+v", st)
		}
	})
}

// TestCheckCollapsesConcurrentProbes tests that overlapping probes of one URL share a request.
func TestCheckCollapsesConcurrentProbes(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		<-release
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	checker := NewChecker(server.Client())

	const callers = 5
	var wg sync.WaitGroup
	results := make([]Status, callers)
	for i := range callers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = checker.Check(context.Background(), server.URL)
		}(i)
	}

	// Give every caller time to join the in-flight probe before it completes.
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := hits.Load(); got != 1 {
		t.Errorf("got %d requests, expected 1", got)
	}
	for i, st := range results {
		if !st.Healthy {
			t.Errorf("caller %d got %+v", i, st)
		}
	}
}

// TestCheckCancelledCallerDoesNotAffectOthers tests that one caller giving up
// on a shared probe leaves the other callers with the real outcome.
func TestCheckCancelledCallerDoesNotAffectOthers(t *testing.T) {
	t.Parallel()

	started := make(chan struct{}, 1)
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	checker := NewChecker(server.Client(), WithTimeout(5*time.Second))
	link := server.URL + "/page"

	ctxA, cancelA := context.WithCancel(context.Background())
	defer cancelA()
	resultA := make(chan Status, 1)
	go func() {
		resultA <- checker.Check(ctxA, link)
	}()
	<-started

	resultB := make(chan Status, 1)
	go func() {
		resultB <- checker.Check(context.Background(), link)
	}()
	// Let the second caller join the in-flight probe.
	time.Sleep(50 * time.Millisecond)

	cancelA()
	stA := <-resultA
	if stA.Healthy || !errors.Is(stA.Err, context.Canceled) {
		t.Errorf("cancelled caller got %+v", stA)
	}

	close(release)
	stB := <-resultB
	if !stB.Healthy || stB.Code != http.StatusOK || stB.Err != nil {
		t.Errorf("live caller got %+v, expected healthy 200", stB)
	}
}

// TestCheckRateLimit tests that the probe rate is throttled.
func TestCheckRateLimit(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	checker := NewChecker(server.Client(), WithRate(10))

	start := time.Now()
	for i := range 15 {
		// Distinct URLs so singleflight does not merge the probes.
		checker.Check(context.Background(), server.URL+"/"+string(rune('a'+i)))
	}
	// Burst of 10, then 5 more at 10/s needs roughly 500ms.
	if elapsed := time.Since(start); elapsed < 400*time.Millisecond {
		t.Errorf("15 probes at 10/s took only %v", elapsed)
	}
}

// TestCheckRateLimitCancelled tests that a cancelled wait reports unreachable.
func TestCheckRateLimitCancelled(t *testing.T) {
	t.Parallel()

	checker := NewChecker(nil, WithRate(0.001))
	ctx, cancel := context.WithCancel(context.Background())
	// First probe consumes the only token.
	checker.limiter.Allow()
	cancel()

	st := checker.Check(ctx, "http://127.0.0.1:1/")
	if st.Code != model.StatusUnreachable || st.Err == nil {
		t.Errorf("got %+v", st)
	}
}

// TestClassify tests the status boundary.
func TestClassify(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		code    int
		healthy bool
	}{
		{200, true},
		{204, true},
		{301, true},
		{399, true},
		{400, false},
		{404, false},
		{500, false},
	}
	for _, tc := range testCases {
		if got := Classify(tc.code); got.Healthy != tc.healthy || got.Code != tc.code {
			t.Errorf("Classify(%d) = %+v", tc.code, got)
		}
	}
}
