package ical

import (
	"strings"
	"testing"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeParsesBack(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	start := time.Date(2025, 5, 1, 10, 0, 0, 0, tokyo)
	feed := Feed{
		Name:            "Sakura Home Care",
		Domain:          "carevisit.test",
		Location:        tokyo,
		RefreshInterval: time.Hour,
		Entries: []Entry{
			{
				ID:          "evt-1",
				Summary:     "Visit: 山田 花子",
				Description: "Bring BP cuff; check meds",
				Location:    "1-2-3 Shibuya",
				Start:       start,
				End:         start.Add(90 * time.Minute),
				Categories:  []string{"visit"},
			},
			{
				ID:      "evt-2",
				Summary: "Prescription",
				// 00:30 Tokyo is the previous day in UTC
				Start:  time.Date(2025, 5, 2, 0, 30, 0, 0, tokyo),
				End:    time.Date(2025, 5, 2, 0, 30, 0, 0, tokyo),
				AllDay: true,
			},
		},
	}

	out := Encode(feed, time.Date(2025, 4, 30, 0, 0, 0, 0, time.UTC))
	assert.True(t, strings.HasPrefix(out, "BEGIN:VCALENDAR"))
	assert.Contains(t, out, "X-WR-CALNAME:Sakura Home Care")
	assert.Contains(t, out, "REFRESH-INTERVAL")
	assert.Contains(t, out, "\r\n", "lines must be CRLF terminated")

	cal, err := ics.ParseCalendar(strings.NewReader(out))
	require.NoError(t, err)

	events := cal.Events()
	require.Len(t, events, 2)

	assert.Equal(t, "evt-1@carevisit.test", events[0].Id())
	gotStart, err := events[0].GetStartAt()
	require.NoError(t, err)
	assert.True(t, gotStart.Equal(start), "start %v != %v", gotStart, start)
	gotEnd, err := events[0].GetEndAt()
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, gotEnd.Sub(gotStart))
	assert.Equal(t, "Visit: 山田 花子", events[0].GetProperty(ics.ComponentPropertySummary).Value)

	dtstart := events[1].GetProperty(ics.ComponentPropertyDtStart)
	require.NotNil(t, dtstart)
	assert.Equal(t, "20250502", dtstart.Value)
	dtend := events[1].GetProperty(ics.ComponentPropertyDtEnd)
	require.NotNil(t, dtend)
	assert.Equal(t, "20250503", dtend.Value)
}

func TestEncodeEmptyFeed(t *testing.T) {
	out := Encode(Feed{}, time.Now())
	cal, err := ics.ParseCalendar(strings.NewReader(out))
	require.NoError(t, err)
	assert.Empty(t, cal.Events())
	assert.Contains(t, out, "X-WR-TIMEZONE:UTC")
}

func TestEndBeforeStartIsClamped(t *testing.T) {
	s := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	out := Encode(Feed{Entries: []Entry{{ID: "x", Summary: "x", Start: s, End: s.Add(-time.Hour)}}}, s)
	cal, err := ics.ParseCalendar(strings.NewReader(out))
	require.NoError(t, err)
	end, err := cal.Events()[0].GetEndAt()
	require.NoError(t, err)
	assert.True(t, end.Equal(s))
}
