package event

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/carevisit_backend/internal/schema"
)

func facilityOf(name string) *schema.Facility {
	f := &schema.Facility{Name: name}
	f.ID = uuid.New()
	return f
}

func patientAt(name string, f *schema.Facility) *schema.Patient {
	p := &schema.Patient{Name: name, Facility: f}
	p.ID = uuid.New()
	if f != nil {
		p.FacilityID = &f.ID
	}
	return p
}

func ev(start time.Time, p *schema.Patient, f *schema.Facility) schema.Event {
	e := schema.Event{Patient: p, Facility: f, StartAt: start, EndAt: start.Add(time.Hour), Type: schema.EventTypeVisit}
	e.ID = uuid.New()
	return e
}

func at(day, hour int) time.Time {
	return time.Date(2026, 6, day, hour, 0, 0, 0, time.UTC)
}

func TestGroupCalendarBuckets(t *testing.T) {
	hills := facilityOf("Green Hills")
	oak := facilityOf("Oak House")

	events := []schema.Event{
		ev(at(1, 10), patientAt("Ito", hills), nil),
		ev(at(1, 9), patientAt("Abe", hills), nil),
		ev(at(1, 9), patientAt("Sato", nil), nil),
		ev(at(1, 14), nil, oak),
		ev(at(2, 9), patientAt("Kato", hills), nil),
		ev(at(1, 11), patientAt("Ueda", oak), nil),
	}

	items := GroupCalendar(events, time.UTC)
	require.Len(t, items, 4)

	// June 1, 09:00: the Green Hills bucket (earliest 09:00) and Sato tie on start; name breaks it.
	assert.Equal(t, KindGroupedFacility, items[0].Kind)
	assert.Equal(t, "2026-06-01", items[0].Date)
	assert.Equal(t, "Green Hills", items[0].FacilityName)
	require.Len(t, items[0].Events, 2)
	assert.Equal(t, "Abe", items[0].Events[0].Patient.Name)
	assert.Equal(t, "Ito", items[0].Events[1].Patient.Name)

	assert.Equal(t, KindIndividual, items[1].Kind)
	assert.Equal(t, "Sato", items[1].Event.Patient.Name)

	// Oak House holds a facility-only event and a resident's event on the same day
	assert.Equal(t, KindGroupedFacility, items[2].Kind)
	assert.Equal(t, "Oak House", items[2].FacilityName)
	assert.Len(t, items[2].Events, 2)
	assert.Equal(t, at(1, 11), items[2].StartAt)

	// a lone event at a facility stays individual
	assert.Equal(t, KindIndividual, items[3].Kind)
	assert.Equal(t, "2026-06-02", items[3].Date)
}

func TestGroupCalendarUsesLocalDay(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Skip("zoneinfo unavailable")
	}
	hills := facilityOf("Green Hills")

	// 23:00 and 16:00 UTC on June 1 are both June 2 in Tokyo
	events := []schema.Event{
		ev(time.Date(2026, 6, 1, 23, 0, 0, 0, time.UTC), patientAt("A", hills), nil),
		ev(time.Date(2026, 6, 1, 16, 0, 0, 0, time.UTC), patientAt("B", hills), nil),
	}

	items := GroupCalendar(events, tokyo)
	require.Len(t, items, 1)
	assert.Equal(t, "2026-06-02", items[0].Date)
	assert.Equal(t, "B", items[0].Events[0].Patient.Name)
}

func TestGroupCalendarSingleEventStaysIndividual(t *testing.T) {
	hills := facilityOf("Green Hills")
	lone := ev(at(3, 9), nil, hills)

	items := GroupCalendar([]schema.Event{lone}, time.UTC)
	require.Len(t, items, 1)
	assert.Equal(t, KindIndividual, items[0].Kind)
	assert.Nil(t, items[0].FacilityID)
	assert.Empty(t, items[0].Events)
	require.NotNil(t, items[0].Event)
	assert.Equal(t, lone.ID, items[0].Event.ID)
}

func TestGroupCalendarKeysByFacilityNotName(t *testing.T) {
	// two branches sharing a display name are separate buckets
	east, west := facilityOf("Sakura Home"), facilityOf("Sakura Home")
	events := []schema.Event{
		ev(at(4, 9), nil, east),
		ev(at(4, 10), nil, east),
		ev(at(4, 11), nil, west),
	}

	items := GroupCalendar(events, time.UTC)
	require.Len(t, items, 2)
	assert.Equal(t, KindGroupedFacility, items[0].Kind)
	assert.Equal(t, east.ID, *items[0].FacilityID)
	assert.Len(t, items[0].Events, 2)
	assert.Equal(t, KindIndividual, items[1].Kind)
}

func TestGroupCalendarEmpty(t *testing.T) {
	assert.Empty(t, GroupCalendar(nil, nil))
}

func TestDisplayNameAndTypeLabel(t *testing.T) {
	hills := facilityOf("Green Hills")
	e := ev(at(1, 9), nil, hills)
	assert.Equal(t, "Green Hills", DisplayName(&e))

	e.Facility = nil
	e.Title = "Team meeting"
	assert.Equal(t, "Team meeting", DisplayName(&e))

	assert.Equal(t, "Visit + Prescription", TypeLabel(schema.EventTypeBoth))
}
