// Package pipeline provides a framework for executing crawl steps in sequence.
//
// Every seed URL is processed by its own Pipeline: the crawl itself, then
// optional CSV export, then optional archiving of the result. Each stage is
// implemented as a Step that receives the current report and can modify it.
//
// Design decision: We use a pipeline pattern instead of direct function calls
// because:
// 1. The CLI and the HTTP shell assemble different step lists from the same parts
// 2. It provides consistent error handling and logging across steps
// 3. It supports cancellation via context between steps
//
// The pipeline supports both individual crawls and batch processing with
// concurrency control using errgroup.
package pipeline
