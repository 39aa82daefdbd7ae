package types

import "fmt"

// Episode is the acquired source audio plus the metadata the summarizer needs.
type Episode struct {
	SourceURL   string `json:"source_url"`
	Title       string `json:"title"`
	PublishDate string `json:"date"` // "YYYY-MM-DD 00:00:00" or ""
	AudioPath   string `json:"audio_path"`
	DurationMs  int64  `json:"duration_ms,omitempty"`
}

// Segment is one equal-duration slice of an episode. EndMs is exclusive.
type Segment struct {
	Index   int    `json:"index"`
	StartMs int64  `json:"start_ms"`
	EndMs   int64  `json:"end_ms"`
	Path    string `json:"path"`
}

func (s Segment) DurationMs() int64 {
	return s.EndMs - s.StartMs
}

func (s Segment) String() string {
	return fmt.Sprintf("segment %d: [%d,%d)ms", s.Index, s.StartMs, s.EndMs)
}

type EndpointState string

const (
	StateSuspended EndpointState = "suspended"
	StateStarting  EndpointState = "starting"
	StateRunning   EndpointState = "running"
	StateTimedOut  EndpointState = "timed_out"
	StateUnknown   EndpointState = "unknown"
)

// EndpointHandle identifies the remote inference endpoint for one run.
type EndpointHandle struct {
	Namespace string        `json:"namespace"`
	Name      string        `json:"name"`
	BaseURL   string        `json:"base_url"`
	Token     string        `json:"-"`
	State     EndpointState `json:"state"`
}

// TranscriptionResult is the text produced for one segment. Text is empty when
// the segment failed; Err carries the reason for logs and is never serialized.
type TranscriptionResult struct {
	SegmentIndex int    `json:"segment_index"`
	Text         string `json:"text"`
	Err          error  `json:"-"`
}
