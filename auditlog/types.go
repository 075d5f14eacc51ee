package auditlog

import (
	"fmt"
	"time"
)

// LogEntry is a single audit record.
type LogEntry struct {
	// Name is the fully qualified entry name:
	// projects/{project}/logs/{log}/entries/{entry}.
	Name string `json:"name,omitempty"`

	// LogName identifies the log this entry belongs to:
	// projects/{project}/logs/{log}.
	LogName string `json:"logName,omitempty"`

	Timestamp time.Time      `json:"timestamp,omitempty"`
	Severity  string         `json:"severity,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// ListEntriesRequest lists entries under a parent resource.
type ListEntriesRequest struct {
	// Parent is the resource to list from: projects/{project}.
	Parent string `json:"parent"`

	// Filter is an optional server-side filter expression.
	Filter string `json:"filter,omitempty"`

	// OrderBy is an optional sort order; the default is timestamp ascending.
	OrderBy string `json:"orderBy,omitempty"`

	// PageSize caps the number of entries per page. Zero lets the server
	// choose.
	PageSize int32 `json:"pageSize,omitempty"`

	// PageToken resumes a previous listing.
	PageToken string `json:"pageToken,omitempty"`
}

type ListEntriesResponse struct {
	Entries       []*LogEntry `json:"entries,omitempty"`
	NextPageToken string      `json:"nextPageToken,omitempty"`
}

type GetEntryRequest struct {
	// Name is the fully qualified entry name.
	Name string `json:"name"`
}

// WriteEntriesRequest appends entries to a log. Writes are not idempotent:
// replaying one could duplicate entries, so the client never retries it.
type WriteEntriesRequest struct {
	// LogName is the log to append to: projects/{project}/logs/{log}.
	LogName string      `json:"logName"`
	Entries []*LogEntry `json:"entries"`
}

type WriteEntriesResponse struct{}

type ListLogsRequest struct {
	Parent    string `json:"parent"`
	PageSize  int32  `json:"pageSize,omitempty"`
	PageToken string `json:"pageToken,omitempty"`
}

type ListLogsResponse struct {
	// LogNames are fully qualified log names under the parent.
	LogNames      []string `json:"logNames,omitempty"`
	NextPageToken string   `json:"nextPageToken,omitempty"`
}

type DeleteLogRequest struct {
	// Name is the log to delete: projects/{project}/logs/{log}.
	Name string `json:"name"`
}

type DeleteLogResponse struct{}

// ProjectPath formats the parent resource name for a project.
func ProjectPath(project string) string {
	return fmt.Sprintf("projects/%s", project)
}

// LogPath formats the resource name for a log within a project.
func LogPath(project, logID string) string {
	return fmt.Sprintf("projects/%s/logs/%s", project, logID)
}
