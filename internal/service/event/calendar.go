package event

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/Alijeyrad/carevisit_backend/internal/schema"
)

type ItemKind string

const (
	KindGroupedFacility ItemKind = "grouped_facility"
	KindIndividual      ItemKind = "individual"
)

// CalendarItem is one renderable calendar cell: either several events at the
// same facility on the same day, or a single event.
type CalendarItem struct {
	Kind         ItemKind       `json:"kind"`
	Date         string         `json:"date"`
	StartAt      time.Time      `json:"start_at"`
	FacilityID   *uuid.UUID     `json:"facility_id,omitempty"`
	FacilityName string         `json:"facility_name,omitempty"`
	Events       []schema.Event `json:"events,omitempty"`
	Event        *schema.Event  `json:"event,omitempty"`
}

func (c CalendarItem) name() string {
	if c.Kind == KindGroupedFacility {
		return c.FacilityName
	}
	return DisplayName(c.Event)
}

type bucketKey struct {
	date       string
	facilityID uuid.UUID
}

// GroupCalendar partitions events into facility buckets per local day.
// A bucket holding two or more events becomes a grouped_facility item; every
// other event is individual. Items are ordered by date, earliest start, then
// name. Events need their Facility and Patient.Facility preloaded.
func GroupCalendar(events []schema.Event, loc *time.Location) []CalendarItem {
	if loc == nil {
		loc = time.UTC
	}

	atFacility, loose := lo.FilterReject(events, func(e schema.Event, _ int) bool {
		return e.FacilityRef() != nil
	})
	buckets := lo.GroupBy(atFacility, func(e schema.Event) bucketKey {
		return bucketKey{date: localDate(e.StartAt, loc), facilityID: e.FacilityRef().ID}
	})

	items := make([]CalendarItem, 0, len(events))
	for key, group := range buckets {
		sortEvents(group)
		// a facility with a single event that day is shown as the event itself
		if len(group) == 1 {
			loose = append(loose, group[0])
			continue
		}
		f := group[0].FacilityRef()
		id := key.facilityID
		items = append(items, CalendarItem{
			Kind:         KindGroupedFacility,
			Date:         key.date,
			StartAt:      group[0].StartAt,
			FacilityID:   &id,
			FacilityName: f.Name,
			Events:       group,
		})
	}
	for i := range loose {
		ev := loose[i]
		items = append(items, CalendarItem{
			Kind:    KindIndividual,
			Date:    localDate(ev.StartAt, loc),
			StartAt: ev.StartAt,
			Event:   &ev,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if !a.StartAt.Equal(b.StartAt) {
			return a.StartAt.Before(b.StartAt)
		}
		if a.name() != b.name() {
			return a.name() < b.name()
		}
		return itemID(a) < itemID(b)
	})
	return items
}

// DisplayName is the label of an event: its patient, else its facility,
// else its title.
func DisplayName(e *schema.Event) string {
	if e == nil {
		return ""
	}
	if e.Patient != nil && e.Patient.Name != "" {
		return e.Patient.Name
	}
	if f := e.FacilityRef(); f != nil && f.Name != "" {
		return f.Name
	}
	return e.Title
}

// TypeLabel is the human label for an event type.
func TypeLabel(t schema.EventType) string {
	switch t {
	case schema.EventTypeVisit:
		return "Visit"
	case schema.EventTypePrescription:
		return "Prescription"
	case schema.EventTypeBoth:
		return "Visit + Prescription"
	}
	return string(t)
}

func sortEvents(evs []schema.Event) {
	sort.SliceStable(evs, func(i, j int) bool {
		if !evs[i].StartAt.Equal(evs[j].StartAt) {
			return evs[i].StartAt.Before(evs[j].StartAt)
		}
		return DisplayName(&evs[i]) < DisplayName(&evs[j])
	})
}

func itemID(c CalendarItem) string {
	if c.Event != nil {
		return c.Event.ID.String()
	}
	if c.FacilityID != nil {
		return c.FacilityID.String()
	}
	return ""
}

func localDate(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(time.DateOnly)
}
