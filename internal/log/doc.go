// Package log provides secure logging functionality with automatic sanitization
// of sensitive information, built on top of the standard slog package.
//
// The crawler handles exactly the kind of data it reports on: page markup with
// leaked passwords and tokens, per-site cookies and headers, and URLs that may
// embed credentials. The SecureHandler makes sure none of it reaches the logs:
//   - HTTP headers (Authorization, Cookie, Set-Cookie, X-Api-Key)
//   - Values that look like secrets (JWTs, bearer tokens, key assignments)
//   - URL userinfo passwords and sensitive query parameters
//   - Attribute keys containing any configured dangerous keyword
//
// Even in verbose mode, sensitive values are masked to prevent accidental
// exposure of secrets in logs that may be shared or stored.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, true,
//	    log.WithSensitiveKeywords(cfg.SensitiveKeywords...))
//
//	logger.Debug("fetching page",
//	    "cookie", "session=abc123",                 // masked
//	    "url", "https://user:pw@example.com/?token=1", // password and token masked
//	)
//
//	slog.SetDefault(logger)
package log
