package models

import (
	"fmt"
	"strings"
)

// JobStatus is the lifecycle marker carried by a log row.
type JobStatus string

const (
	StatusStart JobStatus = "START"
	StatusEnd   JobStatus = "END"
)

// Row is one already-split, whitespace-trimmed line of the job log:
// timestamp, description, status, identifier.
type Row struct {
	Timestamp   string    `json:"timestamp"`
	Description string    `json:"description"`
	Status      JobStatus `json:"status"`
	PID         string    `json:"pid"`
}

// Fields returns the row in column order.
func (r Row) Fields() []string {
	return []string{r.Timestamp, r.Description, string(r.Status), r.PID}
}

// String renders the row as a quoted field list, e.g.
// ["00:00:00" "JobA" "START" "42"].
func (r Row) String() string {
	quoted := make([]string, 0, 4)
	for _, f := range r.Fields() {
		quoted = append(quoted, fmt.Sprintf("%q", f))
	}
	return "[" + strings.Join(quoted, " ") + "]"
}
