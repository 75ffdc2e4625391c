// Package export serializes assignment history for reporting. The CSV layout
// matches what dispatch operations imports into their BI tooling.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"time"

	"github.com/fieldserve/dispatch/core/model"
)

// WriteJSON writes the assignment history to w in JSON format.
func WriteJSON(w io.Writer, assignments []model.Assignment) error {
	enc := json.NewEncoder(w)
	return enc.Encode(assignments)
}

// WriteCSV writes the assignment history to w as CSV with a header row.
// Zero timestamps are emitted as empty cells.
func WriteCSV(w io.Writer, assignments []model.Assignment) error {
	cw := csv.NewWriter(w)
	header := []string{"assignment_id", "job_id", "contractor_id", "dispatcher_id", "status", "assigned_at", "accepted_at", "started_at", "completed_at"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, a := range assignments {
		rec := []string{
			a.ID,
			a.JobID,
			a.ContractorID,
			a.DispatcherID,
			a.Status.String(),
			formatTime(a.AssignedAt),
			formatTime(a.AcceptedAt),
			formatTime(a.StartedAt),
			formatTime(a.CompletedAt),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
