package pdf

import (
	"fmt"
	"io"
	"time"
)

// ScheduleRow is one event line in a schedule export.
type ScheduleRow struct {
	Start    time.Time
	End      time.Time
	AllDay   bool
	Type     string
	Title    string
	Patient  string
	Facility string
	Assignee string
}

type ScheduleDoc struct {
	Organization string
	From, To     time.Time
	// Rows must already be ordered by Start.
	Rows []ScheduleRow
}

var scheduleCols = []struct {
	title string
	width float64
}{
	{"Time", 28},
	{"Type", 26},
	{"Title", 64},
	{"Patient", 50},
	{"Facility", 55},
	{"Assignee", 44},
}

// Schedule writes a landscape list grouped by calendar day.
func (r *Renderer) Schedule(w io.Writer, doc ScheduleDoc) error {
	d := r.newDocument("Schedule", "L")
	d.AddPage()

	d.heading(fmt.Sprintf("%s schedule", doc.Organization))
	d.font("", 10)
	d.CellFormat(0, lineHeight, d.tr(fmt.Sprintf("%s - %s  (%d events)",
		doc.From.In(r.loc).Format("2006-01-02"), doc.To.In(r.loc).Format("2006-01-02"), len(doc.Rows))),
		"", 1, "L", false, 0, "")
	d.Ln(2)

	if len(doc.Rows) == 0 {
		d.CellFormat(0, lineHeight, d.tr("No events in this period."), "", 1, "L", false, 0, "")
		return d.finish(w)
	}

	var day string
	for _, row := range doc.Rows {
		start := row.Start.In(r.loc)
		if key := start.Format("2006-01-02"); key != day {
			day = key
			d.Ln(2)
			d.font("B", 11)
			d.CellFormat(0, 7, d.tr(start.Format("2006-01-02 (Mon)")), "B", 1, "L", false, 0, "")
			d.tableHeader()
		}

		d.font("", 9)
		cells := []string{
			timeRange(row, r.loc), typeLabel(row.Type), row.Title,
			row.Patient, row.Facility, row.Assignee,
		}
		for i, c := range cells {
			d.CellFormat(scheduleCols[i].width, lineHeight, d.tr(fit(c, scheduleCols[i].width)), "1", 0, "L", false, 0, "")
		}
		d.Ln(-1)
	}

	return d.finish(w)
}

func (d *document) tableHeader() {
	d.font("B", 9)
	d.SetFillColor(230, 240, 238)
	for _, c := range scheduleCols {
		d.CellFormat(c.width, lineHeight, d.tr(c.title), "1", 0, "L", true, 0, "")
	}
	d.Ln(-1)
}

func timeRange(row ScheduleRow, loc *time.Location) string {
	if row.AllDay {
		return "All day"
	}
	return row.Start.In(loc).Format("15:04") + "-" + row.End.In(loc).Format("15:04")
}

func typeLabel(t string) string {
	switch t {
	case "visit":
		return "Visit"
	case "prescription":
		return "Prescription"
	case "both":
		return "Visit+Rx"
	}
	return t
}

// fit truncates s to roughly the characters a column of width mm can hold at 9pt.
func fit(s string, width float64) string {
	max := int(width / 2)
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-2]) + ".."
}
