package model

import (
	"encoding/json"
	"fmt"
)

// CrawlRequest is the input of a crawl: a single start URL.
// The transport shell validates it before invoking the crawler.
type CrawlRequest struct {
	// URL is the seed the crawl starts from.
	URL string `json:"url"`
}

// EventType discriminates the records of the crawl event stream.
type EventType string

const (
	// EventProgress is emitted once per visited page, before the page is fetched.
	EventProgress EventType = "progress"

	// EventResult is emitted exactly once, last, and terminates the stream.
	EventResult EventType = "result"
)

// ProgressEvent reports that a page is about to be crawled.
type ProgressEvent struct {
	// CrawledURL is the page being visited.
	CrawledURL string `json:"crawled_url"`

	// Progress is an estimate in the range 0-99. 100 is never reported
	// so consumers can tell "still running" from "done".
	Progress int `json:"progress"`
}

// Event is one record of the crawl event stream. Exactly one of Progress and
// Result is set, matching Type.
//
// Design decision: We use a single tagged struct with a custom JSON encoding
// instead of an interface so that the stream can be decoded without a type
// registry and so that a zero progress value is never dropped by omitempty.
type Event struct {
	Type     EventType
	Progress *ProgressEvent
	Result   *Result
}

// NewProgressEvent builds a progress event.
func NewProgressEvent(crawledURL string, progress int) Event {
	return Event{
		Type:     EventProgress,
		Progress: &ProgressEvent{CrawledURL: crawledURL, Progress: progress},
	}
}

// NewResultEvent builds the terminal result event.
func NewResultEvent(result *Result) Event {
	if result == nil {
		result = NewResult()
	}
	return Event{Type: EventResult, Result: result}
}

// progressWire and resultWire are the on-the-wire shapes of the two events.
type progressWire struct {
	Type       EventType `json:"type"`
	CrawledURL string    `json:"crawled_url"`
	Progress   int       `json:"progress"`
}

type resultWire struct {
	Type EventType `json:"type"`
	Data *Result   `json:"data"`
}

// MarshalJSON encodes the event in its wire shape.
func (e Event) MarshalJSON() ([]byte, error) {
	switch e.Type {
	case EventProgress:
		if e.Progress == nil {
			return nil, fmt.Errorf("progress event without payload")
		}
		return json.Marshal(progressWire{
			Type:       EventProgress,
			CrawledURL: e.Progress.CrawledURL,
			Progress:   e.Progress.Progress,
		})
	case EventResult:
		result := e.Result
		if result == nil {
			result = NewResult()
		}
		return json.Marshal(resultWire{Type: EventResult, Data: result.normalized()})
	default:
		return nil, fmt.Errorf("unknown event type %q", e.Type)
	}
}

// UnmarshalJSON decodes an event from its wire shape.
func (e *Event) UnmarshalJSON(data []byte) error {
	var head struct {
		Type EventType `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}

	switch head.Type {
	case EventProgress:
		var p progressWire
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		*e = NewProgressEvent(p.CrawledURL, p.Progress)
	case EventResult:
		var r resultWire
		if err := json.Unmarshal(data, &r); err != nil {
			return err
		}
		*e = NewResultEvent(r.Data.normalized())
	default:
		return fmt.Errorf("unknown event type %q", head.Type)
	}
	return nil
}
