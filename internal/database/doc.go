// Package database provides SQLite-based storage for crawl results.
//
// This package implements the CrawlDB, which archives every completed
// crawl report so that later runs of the same seed can be compared:
// which broken links were fixed, which findings are new.
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. Sufficient performance for our use case
// 4. WAL mode provides good concurrent read performance
//
// The archive is write-once history. It is never read to resume or seed a
// crawl; every crawl starts from an empty frontier.
package database
