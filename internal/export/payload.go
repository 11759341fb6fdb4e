// Export payload serialization. The redemption endpoint hands the verified
// owner's event list to these helpers; the formats are deliberately flat so
// the files open cleanly in spreadsheets and scripts.
package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/tbourn/go-calendar-backend/internal/domain"
)

// Record is one exported event row with predictable keys, shared by the JSON
// and CSV formats.
type Record struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Details  string `json:"details"`
	IsPublic bool   `json:"is_public"`
	OwnerID  int64  `json:"owner_id"`
}

// Records converts events to export rows, preserving the given order.
func Records(events []domain.Event) []Record {
	out := make([]Record, 0, len(events))
	for _, ev := range events {
		out = append(out, Record{
			ID:       ev.ID,
			Title:    ev.Title,
			Date:     ev.Date,
			Time:     ev.Time,
			Details:  ev.Details,
			IsPublic: ev.IsPublic,
			OwnerID:  ev.OwnerID,
		})
	}
	return out
}

// csvHeader is the fixed column order of the CSV format.
var csvHeader = []string{"id", "title", "date", "time", "details", "is_public", "owner_id"}

// WriteCSV streams the records as CSV, header first.
func WriteCSV(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			r.ID,
			r.Title,
			r.Date,
			r.Time,
			r.Details,
			strconv.FormatBool(r.IsPublic),
			strconv.FormatInt(r.OwnerID, 10),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
