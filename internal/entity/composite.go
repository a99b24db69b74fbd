package entity

import "time"

type Flow string

const (
	FlowUpload     Flow = "upload"
	FlowPhotobooth Flow = "photobooth"
)

const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// CompositeResult is what one orchestration call hands back to its caller.
type CompositeResult struct {
	File     []byte  `json:"-"`
	URL      string  `json:"url,omitempty"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	Slots    SlotSet `json:"slots"`
	Strategy string  `json:"strategy"`
}

type Composite struct {
	ID        string     `json:"id"`
	Status    string     `json:"status"`
	Layout    LayoutType `json:"layout"`
	Flow      Flow       `json:"flow"`
	Width     int        `json:"width,omitempty"`
	Height    int        `json:"height,omitempty"`
	Slots     SlotSet    `json:"slots,omitempty"`
	Strategy  string     `json:"strategy,omitempty"`
	Error     string     `json:"error,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// TaskSource points at a stored upload (Path) or a remote image (URL).
type TaskSource struct {
	Path string `json:"path,omitempty"`
	URL  string `json:"url,omitempty"`
}

// CompositeTask is the Kafka message for an asynchronous thumbnail.
type CompositeTask struct {
	CompositeID string       `json:"composite_id"`
	Layout      LayoutType   `json:"layout"`
	Flow        Flow         `json:"flow"`
	Frame       *TaskSource  `json:"frame,omitempty"`
	Photos      []TaskSource `json:"photos"`
}

type CreateResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type CompositeResponse struct {
	ID       string     `json:"id"`
	Status   string     `json:"status"`
	Layout   LayoutType `json:"layout"`
	URL      string     `json:"url,omitempty"`
	Width    int        `json:"width,omitempty"`
	Height   int        `json:"height,omitempty"`
	Slots    SlotSet    `json:"slots,omitempty"`
	Strategy string     `json:"strategy,omitempty"`
	Error    string     `json:"error,omitempty"`
}
