// Package ical renders calendar subscription feeds (RFC 5545).
package ical

import (
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
)

const ContentType = "text/calendar; charset=utf-8"

// Entry is one VEVENT.
type Entry struct {
	ID          string
	Summary     string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	AllDay      bool
	Updated     time.Time
	Categories  []string
}

// Feed describes a whole calendar.
type Feed struct {
	Name     string
	Domain   string // UID suffix, e.g. carevisit.example.com
	Location *time.Location
	// RefreshInterval is advertised to subscribing clients.
	RefreshInterval time.Duration
	Entries         []Entry
}

// Encode renders f. Timed events are written in UTC; all-day events use the
// calendar date in f.Location with an exclusive end date.
func Encode(f Feed, now time.Time) string {
	loc := f.Location
	if loc == nil {
		loc = time.UTC
	}
	domain := f.Domain
	if domain == "" {
		domain = "carevisit"
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//CareVisit//Schedule Feed//EN")
	cal.SetCalscale("GREGORIAN")
	if f.Name != "" {
		cal.SetName(f.Name)
		cal.SetXWRCalName(f.Name)
	}
	cal.SetXWRTimezone(loc.String())
	if f.RefreshInterval > 0 {
		iso := isoDuration(f.RefreshInterval)
		cal.SetRefreshInterval(iso)
		cal.SetXPublishedTTL(iso)
	}

	for _, e := range f.Entries {
		ev := cal.AddEvent(fmt.Sprintf("%s@%s", e.ID, domain))
		ev.SetDtStampTime(now.UTC())
		if !e.Updated.IsZero() {
			ev.SetModifiedAt(e.Updated.UTC())
		}
		if e.AllDay {
			start := dateIn(e.Start, loc)
			end := dateIn(e.End, loc)
			if !end.After(start) {
				end = start
			}
			ev.SetAllDayStartAt(start)
			ev.SetAllDayEndAt(end.AddDate(0, 0, 1))
		} else {
			ev.SetStartAt(e.Start.UTC())
			end := e.End
			if end.Before(e.Start) {
				end = e.Start
			}
			ev.SetEndAt(end.UTC())
		}
		ev.SetSummary(e.Summary)
		if e.Description != "" {
			ev.SetDescription(e.Description)
		}
		if e.Location != "" {
			ev.SetLocation(e.Location)
		}
		if len(e.Categories) > 0 {
			ev.AddProperty(ics.ComponentPropertyCategories, strings.Join(e.Categories, ","))
		}
	}

	return cal.Serialize()
}

// dateIn returns midnight of t's calendar date in loc, expressed as a UTC
// timestamp with that date so VALUE=DATE formatting is zone independent.
func dateIn(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func isoDuration(d time.Duration) string {
	if d%time.Hour == 0 {
		return fmt.Sprintf("PT%dH", int(d/time.Hour))
	}
	return fmt.Sprintf("PT%dM", int(d/time.Minute))
}
