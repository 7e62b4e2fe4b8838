package query

import (
	"encoding/json"

	"github.com/kailas-cloud/kdbai-mcp/internal/domain/search/result"
)

// Envelope statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Envelope is the uniform response of the query and search operations.
// Records and RecordsCount are only serialized on success, Message only on error.
type Envelope struct {
	Status   string
	Database string
	Table    string
	Records  []result.Record
	Message  string
}

// Success builds a success envelope.
func Success(database, table string, records []result.Record) Envelope {
	if records == nil {
		records = []result.Record{}
	}
	return Envelope{Status: StatusSuccess, Database: database, Table: table, Records: records}
}

// Failure builds an error envelope.
func Failure(database, table string, err error) Envelope {
	return Envelope{Status: StatusError, Database: database, Table: table, Message: err.Error()}
}

// OK reports whether the operation succeeded.
func (e Envelope) OK() bool { return e.Status == StatusSuccess }

// RecordsCount returns the number of records.
func (e Envelope) RecordsCount() int { return len(e.Records) }

type successJSON struct {
	Status       string          `json:"status"`
	Database     string          `json:"database"`
	Table        string          `json:"table"`
	RecordsCount int             `json:"recordsCount"`
	Records      []result.Record `json:"records"`
}

type errorJSON struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Database string `json:"database"`
	Table    string `json:"table"`
}

// MarshalJSON implements json.Marshaler.
func (e Envelope) MarshalJSON() ([]byte, error) {
	if !e.OK() {
		return json.Marshal(errorJSON{Status: e.Status, Message: e.Message, Database: e.Database, Table: e.Table})
	}
	records := e.Records
	if records == nil {
		records = []result.Record{}
	}
	return json.Marshal(successJSON{
		Status:       e.Status,
		Database:     e.Database,
		Table:        e.Table,
		RecordsCount: len(records),
		Records:      records,
	})
}
