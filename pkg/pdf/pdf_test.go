package pdf

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleRenders(t *testing.T) {
	r := New("", time.UTC, "")
	base := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

	var buf bytes.Buffer
	err := r.Schedule(&buf, ScheduleDoc{
		Organization: "Sakura",
		From:         base,
		To:           base.AddDate(0, 0, 7),
		Rows: []ScheduleRow{
			{Start: base, End: base.Add(time.Hour), Type: "visit", Title: "Morning visit", Patient: "Tanaka", Facility: "Green House"},
			{Start: base.Add(2 * time.Hour), End: base.Add(3 * time.Hour), Type: "prescription", Title: "Refill 山田", Assignee: "Sato"},
			{Start: base.AddDate(0, 0, 1), End: base.AddDate(0, 0, 1), AllDay: true, Type: "both", Title: "Round"},
		},
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestScheduleEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New("", nil, "").Schedule(&buf, ScheduleDoc{}))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestPatientSummaryRenders(t *testing.T) {
	r := New("/nonexistent/font.ttf", time.UTC, "CareVisit")
	birth := time.Date(1940, 3, 4, 0, 0, 0, 0, time.UTC)
	updated := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	var buf bytes.Buffer
	err := r.PatientSummary(&buf, SummaryDoc{
		PatientName:      "Tanaka Ichiro",
		BirthDate:        &birth,
		Facility:         "Green House",
		Summary:          "Stable. Continue current medication.",
		SummaryUpdatedAt: &updated,
		SummaryUpdatedBy: "Nurse Sato",
		History: []HistoryEntry{
			{At: updated.AddDate(0, 0, -7), By: "Nurse Sato", Content: "Mild fever."},
		},
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestLatin1AndFit(t *testing.T) {
	assert.Equal(t, "ab?c", latin1("ab山c"))
	assert.Equal(t, "caf\xe9", latin1("café"))
	assert.Equal(t, "short", fit("short", 40))
	assert.Equal(t, 20, len([]rune(fit("abcdefghijklmnopqrstuvwxyz", 40))))
}
