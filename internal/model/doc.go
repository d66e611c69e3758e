// Package model defines the core data structures shared by the crawler,
// the content scanner, the report writers and the result archive.
//
// This package contains the following main types:
//   - Finding: One instance of sensitive-looking content on a page
//   - BrokenLink: A discovered URL whose probe failed or returned an error status
//   - Event: A progress or result record of the crawl event stream
//   - Result: The accumulated broken-link and sensitive-info reports
//   - ScanReport: A Result with scan metadata, used for rendering and storage
//
// Design decision: We keep models in their own package so that crawler,
// scanner, report and database can all depend on them without import cycles.
// All types serialize to the same JSON that the event stream carries.
package model
