package pdf

import (
	"fmt"
	"io"
	"strings"
	"time"
)

type HistoryEntry struct {
	At      time.Time
	By      string
	Content string
}

// SummaryDoc is a patient profile with the current handover summary.
type SummaryDoc struct {
	Organization string
	PatientName  string
	NameKana     string
	BirthDate    *time.Time
	Gender       string
	Facility     string
	RoomNumber   string
	Address      string
	Phone        string
	Notes        string

	Summary          string
	SummaryUpdatedAt *time.Time
	SummaryUpdatedBy string

	History []HistoryEntry
}

// PatientSummary writes a portrait report: profile table, summary, history.
func (r *Renderer) PatientSummary(w io.Writer, doc SummaryDoc) error {
	d := r.newDocument("Patient summary: "+doc.PatientName, "P")
	d.AddPage()

	d.heading(doc.PatientName)
	if doc.Organization != "" {
		d.font("", 10)
		d.CellFormat(0, lineHeight, d.tr(doc.Organization), "", 1, "L", false, 0, "")
	}
	d.Ln(3)

	profile := [][2]string{
		{"Name (kana)", doc.NameKana},
		{"Birth date", formatDate(doc.BirthDate, r.loc)},
		{"Gender", doc.Gender},
		{"Facility", doc.Facility},
		{"Room", doc.RoomNumber},
		{"Address", doc.Address},
		{"Phone", doc.Phone},
	}
	for _, kv := range profile {
		if kv[1] == "" {
			continue
		}
		d.font("B", 10)
		d.CellFormat(35, lineHeight, d.tr(kv[0]), "1", 0, "L", false, 0, "")
		d.font("", 10)
		d.CellFormat(0, lineHeight, d.tr(kv[1]), "1", 1, "L", false, 0, "")
	}
	if doc.Notes != "" {
		d.Ln(2)
		d.font("B", 10)
		d.CellFormat(0, lineHeight, d.tr("Notes"), "", 1, "L", false, 0, "")
		d.font("", 10)
		d.MultiCell(0, lineHeight, d.tr(doc.Notes), "", "L", false)
	}

	d.Ln(4)
	d.heading("Summary")
	d.font("", 10)
	if strings.TrimSpace(doc.Summary) == "" {
		d.MultiCell(0, lineHeight, d.tr("No summary recorded."), "", "L", false)
	} else {
		d.MultiCell(0, lineHeight, d.tr(doc.Summary), "1", "L", false)
		if doc.SummaryUpdatedAt != nil {
			d.font("", 8)
			d.CellFormat(0, 5, d.tr(fmt.Sprintf("Updated %s by %s",
				doc.SummaryUpdatedAt.In(r.loc).Format("2006-01-02 15:04"), doc.SummaryUpdatedBy)), "", 1, "R", false, 0, "")
		}
	}

	if len(doc.History) > 0 {
		d.Ln(4)
		d.heading("History")
		for _, h := range doc.History {
			d.font("B", 9)
			d.CellFormat(0, 5, d.tr(fmt.Sprintf("%s  %s", h.At.In(r.loc).Format("2006-01-02 15:04"), h.By)), "", 1, "L", false, 0, "")
			d.font("", 9)
			d.MultiCell(0, 5, d.tr(h.Content), "L", "L", false)
			d.Ln(1)
		}
	}

	return d.finish(w)
}

func formatDate(t *time.Time, loc *time.Location) string {
	if t == nil {
		return ""
	}
	return t.In(loc).Format("2006-01-02")
}
