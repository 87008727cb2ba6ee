package domain

import "time"

// ChartDateFormat is the date layout used by the chart site in table cells,
// index links and weekly page URLs.
const ChartDateFormat = "2006/01/02"

// SnapshotDateFormat is the layout used for per-date snapshot file names.
const SnapshotDateFormat = "2006-01-02"

// ViewMode selects between the daily and weekly rendering of a chart page.
type ViewMode string

const (
	ViewDaily  ViewMode = "daily"
	ViewWeekly ViewMode = "weekly"
)

// RowKind distinguishes time-series rows from summary rows mixed into the
// same table (Total, Peak).
type RowKind int

const (
	RowDated RowKind = iota
	RowAggregate
)

// ChartRow is one (date, market) observation extracted from a chart table.
// Streams maps market codes (US, GB, Global, ...) to stream counts; a nil
// value means the site showed no data for that market, which is distinct
// from zero streams.
type ChartRow struct {
	Date    string
	Kind    RowKind
	Streams map[string]*int64
}

// TableSchema is the ordered list of column names read from a table's header
// row. It is rebuilt for every fresh page load; column order and presence
// vary across view modes and countries.
type TableSchema []string

// Index returns the position of the named column, or -1.
func (s TableSchema) Index(name string) int {
	for i, col := range s {
		if col == name {
			return i
		}
	}
	return -1
}

// ChartBatch is the result of one successful page extraction: the schema the
// rows were read against, the accepted rows, and a count of rows dropped for
// having a cell count that disagreed with the header count.
type ChartBatch struct {
	ChartDate   string
	Schema      TableSchema
	Rows        []ChartRow
	DroppedRows int
}

// TrackHistory is the result of a single-track scrape: the chart rows plus
// identity strings picked up from the page chrome.
type TrackHistory struct {
	TrackID    string
	SongName   string
	ArtistName string
	Batch      *ChartBatch
}

// DateWindow is a resolved date range: the caller's bounds plus the concrete
// chart dates published by the site that fall inside them. Immutable once
// resolved for a run.
type DateWindow struct {
	Start time.Time
	End   time.Time
	Dates []time.Time
}

// RangeRow is one row of the aggregated range table.
type RangeRow struct {
	ChartDate string
	Streams   map[string]*int64
}

// RangeTable is the rectangular aggregate produced by a date-range scrape:
// every row carries a value (possibly nil) for every column in Markets.
type RangeTable struct {
	Markets []string
	Rows    []RangeRow
}

// ScrapeAttempt records one retry iteration for diagnostics. It is never
// persisted.
type ScrapeAttempt struct {
	Number  int
	Elapsed time.Duration
	Rows    int
	Err     error
}

// Job status values stored for API status queries.
const (
	JobProcessing = "processing"
	JobCompleted  = "completed"
	JobFailed     = "failed"
)

// TrackScrapeRequest is the API payload for a single-track history scrape.
type TrackScrapeRequest struct {
	Track string `json:"track"` // URL, spotify: URI, or bare track ID
	Force bool   `json:"force"` // bypass the recently-scraped check
}

// RangeScrapeRequest is the API payload for a date-range chart scrape.
type RangeScrapeRequest struct {
	Start string `json:"start"` // YYYY-MM-DD
	End   string `json:"end"`   // YYYY-MM-DD
	Force bool   `json:"force"`
}

// CountryScrapeRequest is the API payload for a per-country chart scrape.
type CountryScrapeRequest struct {
	Country string `json:"country"`
	Mode    string `json:"mode"` // daily or weekly
	Force   bool   `json:"force"`
}

// JobStatusResponse is the API response for a job status query.
type JobStatusResponse struct {
	Key        string    `json:"key"`
	Status     string    `json:"status"`
	FailReason string    `json:"fail_reason,omitempty"`
	Rows       int       `json:"rows"`
	UpdatedAt  time.Time `json:"updated_at"`
}
