package linkcheck

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/nadyarudie/Web-Crawler/internal/model"
)

// DefaultTimeout bounds a single probe, including redirects.
const DefaultTimeout = 3 * time.Second

// Status is the outcome of a liveness probe.
type Status struct {
	// Code is the final HTTP status, or model.StatusUnreachable when the
	// probe got no response.
	Code int

	// Healthy is true for 2xx and 3xx final statuses.
	Healthy bool

	// Err is the transport error for unreachable links, nil otherwise.
	Err error
}

// Checker probes links with HEAD requests. It is safe for concurrent use.
type Checker struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
	limiter   *rate.Limiter
	logger    *slog.Logger

	group singleflight.Group
}

// Option configures a Checker.
type Option func(*Checker)

// WithTimeout sets the per-probe timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Checker) {
		c.timeout = d
	}
}

// WithUserAgent sets the User-Agent header of probes.
func WithUserAgent(ua string) Option {
	return func(c *Checker) {
		c.userAgent = ua
	}
}

// WithRate limits probes to perSecond requests per second with a burst of
// one second's worth. Zero or negative means unlimited.
func WithRate(perSecond float64) Option {
	return func(c *Checker) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), max(1, int(perSecond)))
	}
}

// WithLogger sets the logger used for probe diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Checker) {
		c.logger = logger
	}
}

// NewChecker creates a Checker on top of client. A nil client gets a
// dedicated one. The client's redirect policy is respected, so the default
// policy of following up to 10 redirects applies.
func NewChecker(client *http.Client, opts ...Option) *Checker {
	if client == nil {
		client = &http.Client{}
	}
	c := &Checker{
		client:  client,
		timeout: DefaultTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	return c
}

// Check probes link and classifies the outcome.
// It never fails: every problem is expressed in the returned Status.
//
// Overlapping probes of the same URL share one request. The shared request
// is detached from every caller's cancellation and bounded only by the probe
// timeout, so a caller that gives up never poisons the result the others
// receive. A caller whose ctx ends while waiting gets an unreachable Status
// carrying ctx.Err().
func (c *Checker) Check(ctx context.Context, link string) Status {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return unreachable(fmt.Errorf("rate limiter: %w", err))
		}
	}

	ch := c.group.DoChan(link, func() (any, error) {
		return c.probe(context.WithoutCancel(ctx), link), nil
	})
	select {
	case res := <-ch:
		st, _ := res.Val.(Status)
		if res.Shared {
			c.logger.Debug("shared link probe", "url", link, "status", st.Code)
		}
		return st
	case <-ctx.Done():
		return unreachable(ctx.Err())
	}
}

// probe performs a single HEAD request.
func (c *Checker) probe(ctx context.Context, link string) Status {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, link, nil)
	if err != nil {
		return unreachable(fmt.Errorf("build request: %w", err))
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Debug("link probe failed", "url", link, "error", err)
		return unreachable(err)
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	_ = resp.Body.Close()

	return Classify(resp.StatusCode)
}

// Classify maps a final HTTP status to a probe outcome.
func Classify(code int) Status {
	return Status{Code: code, Healthy: code < http.StatusBadRequest}
}

func unreachable(err error) Status {
	return Status{Code: model.StatusUnreachable, Err: err}
}
