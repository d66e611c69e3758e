package report

import (
	"encoding/json"
	"io"
	"sync"

	"github.com/nadyarudie/Web-Crawler/internal/model"
)

// flusher is implemented by http.ResponseWriter and similar streaming sinks.
type flusher interface {
	Flush()
}

// NDJSONWriter writes crawl events as newline-delimited JSON, one event per line.
// It is safe for concurrent use, so a batch of crawls can share one output.
//
// When the output can be flushed (an http.ResponseWriter), every line is
// flushed as soon as it is written so clients see progress live.
type NDJSONWriter struct {
	mu     sync.Mutex
	output io.Writer
	flush  func()
}

// NewNDJSONWriter creates an NDJSONWriter that outputs to the given writer.
func NewNDJSONWriter(output io.Writer) *NDJSONWriter {
	w := &NDJSONWriter{output: output, flush: func() {}}
	if f, ok := output.(flusher); ok {
		w.flush = f.Flush
	}
	return w
}

// Emit writes one event line. Its signature matches crawler.EmitFunc.
func (w *NDJSONWriter) Emit(e model.Event) error {
	_, err := w.writeLine(e)
	return err
}

// Write outputs the report as a single result event line.
func (w *NDJSONWriter) Write(report *model.ScanReport) (int, error) {
	return w.writeLine(model.NewResultEvent(report.Result))
}

// writeLine marshals v, appends a newline and flushes.
func (w *NDJSONWriter) writeLine(v any) (int, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return 0, err
	}
	data = append(data, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()
	n, err := w.output.Write(data)
	if err != nil {
		return n, err
	}
	w.flush()
	return n, nil
}
