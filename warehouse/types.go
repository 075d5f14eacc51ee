package warehouse

import (
	"fmt"
	"time"
)

// Dataset is a named collection of tables within a project.
type Dataset struct {
	// Name is the fully qualified dataset name:
	// projects/{project}/datasets/{dataset}.
	Name        string    `json:"name,omitempty"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	CreateTime  time.Time `json:"createTime,omitempty"`
}

// Table is a single table within a dataset.
type Table struct {
	// Name is the fully qualified table name:
	// projects/{project}/datasets/{dataset}/tables/{table}.
	Name     string `json:"name,omitempty"`
	NumRows  int64  `json:"numRows,omitempty"`
	NumBytes int64  `json:"numBytes,omitempty"`
}

// Row is one record to insert. Keys are column names.
type Row map[string]any

type ListDatasetsRequest struct {
	// Parent is the project to list from: projects/{project}.
	Parent    string `json:"parent"`
	PageSize  int32  `json:"pageSize,omitempty"`
	PageToken string `json:"pageToken,omitempty"`
}

type ListDatasetsResponse struct {
	Datasets      []*Dataset `json:"datasets,omitempty"`
	NextPageToken string     `json:"nextPageToken,omitempty"`
}

type GetDatasetRequest struct {
	Name string `json:"name"`
}

type ListTablesRequest struct {
	// Parent is the dataset to list from:
	// projects/{project}/datasets/{dataset}.
	Parent    string `json:"parent"`
	PageSize  int32  `json:"pageSize,omitempty"`
	PageToken string `json:"pageToken,omitempty"`
}

type ListTablesResponse struct {
	Tables        []*Table `json:"tables,omitempty"`
	NextPageToken string   `json:"nextPageToken,omitempty"`
}

type GetTableRequest struct {
	Name string `json:"name"`
}

// InsertRowsRequest appends rows to a table. Inserts are not idempotent
// unless every row carries an InsertID the server can deduplicate on, so the
// client never retries them automatically.
type InsertRowsRequest struct {
	// Table is the fully qualified table name.
	Table string `json:"table"`
	Rows  []Row  `json:"rows"`

	// InsertIDs, when set, must be parallel to Rows and lets the server
	// deduplicate replays.
	InsertIDs []string `json:"insertIds,omitempty"`
}

type InsertRowsResponse struct {
	InsertedRows int64 `json:"insertedRows,omitempty"`
}

// ExportTableRequest starts a long-running export job.
type ExportTableRequest struct {
	// Table is the fully qualified table name to export.
	Table string `json:"table"`

	// DestinationURI is where the exported data lands.
	DestinationURI string `json:"destinationUri"`

	// Format is the export format; the server default is "jsonl".
	Format string `json:"format,omitempty"`
}

// JobStatus is the server-side state of a long-running job.
type JobStatus struct {
	// Name is the fully qualified job name:
	// projects/{project}/jobs/{job}.
	Name string `json:"name,omitempty"`

	// Done reports whether the job reached a terminal state.
	Done bool `json:"done,omitempty"`

	// Error carries the failure message for jobs that ended badly.
	Error string `json:"error,omitempty"`
}

type GetJobRequest struct {
	Name string `json:"name"`
}

// ProjectPath formats the parent resource name for a project.
func ProjectPath(project string) string {
	return fmt.Sprintf("projects/%s", project)
}

// DatasetPath formats the resource name for a dataset.
func DatasetPath(project, dataset string) string {
	return fmt.Sprintf("projects/%s/datasets/%s", project, dataset)
}

// TablePath formats the resource name for a table.
func TablePath(project, dataset, table string) string {
	return fmt.Sprintf("projects/%s/datasets/%s/tables/%s", project, dataset, table)
}
