package event

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"gorm.io/gorm"

	"github.com/Alijeyrad/carevisit_backend/config"
	"github.com/Alijeyrad/carevisit_backend/internal/schema"
	"github.com/Alijeyrad/carevisit_backend/internal/tenant"
)

// MaxListRange bounds List and Calendar queries.
const MaxListRange = 366 * 24 * time.Hour

// maxBulkCopy bounds the rows one BulkCopy call may insert.
const maxBulkCopy = 2000

// ----- DTOs -----

type ListRequest struct {
	From            time.Time
	To              time.Time
	PatientID       *uuid.UUID
	FacilityID      *uuid.UUID
	AssigneeID      *uuid.UUID
	Type            string
	IncludeInactive bool
}

type CreateRequest struct {
	PatientID  *uuid.UUID
	FacilityID *uuid.UUID
	AssigneeID *uuid.UUID
	Title      string
	Type       string
	StartAt    time.Time
	EndAt      *time.Time
	AllDay     bool
	Notes      string
	Recurrence *Recurrence
}

// UpdateRequest changes one occurrence. Clear* flags null the reference and
// win over the matching id.
type UpdateRequest struct {
	PatientID     *uuid.UUID
	ClearPatient  bool
	FacilityID    *uuid.UUID
	ClearFacility bool
	AssigneeID    *uuid.UUID
	ClearAssignee bool
	Title         *string
	Type          *string
	StartAt       *time.Time
	EndAt         *time.Time
	AllDay        *bool
	Notes         *string
}

type BulkCopyRequest struct {
	EventIDs   []uuid.UUID
	Recurrence Recurrence
}

// ----- Service -----

type Service interface {
	List(ctx context.Context, scope tenant.Scope, req ListRequest) ([]schema.Event, error)
	Calendar(ctx context.Context, scope tenant.Scope, req ListRequest) ([]CalendarItem, error)
	Get(ctx context.Context, scope tenant.Scope, id uuid.UUID) (*schema.Event, error)
	// Create returns the base event followed by its generated occurrences.
	Create(ctx context.Context, scope tenant.Scope, req CreateRequest) ([]schema.Event, error)
	BulkCopy(ctx context.Context, scope tenant.Scope, req BulkCopyRequest) ([]schema.Event, error)
	Update(ctx context.Context, scope tenant.Scope, id uuid.UUID, req UpdateRequest) (*schema.Event, error)
	// Delete deactivates one event, or with series the rest of its recurrence
	// group from this occurrence on. It reports how many rows were hidden.
	Delete(ctx context.Context, scope tenant.Scope, id uuid.UUID, series bool) (int64, error)
}

type eventService struct {
	db              *gorm.DB
	loc             *time.Location
	maxOccurrences  int
	defaultDuration time.Duration
}

func New(db *gorm.DB, cfg config.SchedulingConfig) Service {
	return newService(db, cfg)
}

func newService(db *gorm.DB, cfg config.SchedulingConfig) *eventService {
	minutes := cfg.DefaultEventMinutes
	if minutes <= 0 {
		minutes = 60
	}
	return &eventService{
		db:              db,
		loc:             cfg.Location(),
		maxOccurrences:  cfg.MaxOccurrences,
		defaultDuration: time.Duration(minutes) * time.Minute,
	}
}

func (s *eventService) List(ctx context.Context, scope tenant.Scope, req ListRequest) ([]schema.Event, error) {
	if req.From.IsZero() || req.To.IsZero() || !req.To.After(req.From) || req.To.Sub(req.From) > MaxListRange {
		return nil, ErrInvalidRange
	}

	q := scope.Apply(s.db.WithContext(ctx), "events.organization_id").
		Preload("Patient.Facility").
		Preload("Facility").
		Preload("Assignee").
		Where("events.start_at < ? AND events.end_at >= ?", req.To, req.From)
	if !req.IncludeInactive {
		q = q.Where("events.is_active = ?", true)
	}
	if req.PatientID != nil {
		q = q.Where("events.patient_id = ?", *req.PatientID)
	}
	if req.FacilityID != nil {
		// an event belongs to a facility directly or through its patient
		q = q.Where("events.facility_id = ? OR events.patient_id IN (?)", *req.FacilityID,
			s.db.Model(&schema.Patient{}).Select("id").Where("facility_id = ?", *req.FacilityID))
	}
	if req.AssigneeID != nil {
		q = q.Where("events.assignee_id = ?", *req.AssigneeID)
	}
	if req.Type != "" {
		if !schema.EventType(req.Type).IsValid() {
			return nil, ErrInvalidType
		}
		q = q.Where("events.type = ?", req.Type)
	}

	var events []schema.Event
	if err := q.Order("events.start_at ASC, events.id ASC").Find(&events).Error; err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

func (s *eventService) Calendar(ctx context.Context, scope tenant.Scope, req ListRequest) ([]CalendarItem, error) {
	events, err := s.List(ctx, scope, req)
	if err != nil {
		return nil, err
	}
	return GroupCalendar(events, s.loc), nil
}

func (s *eventService) Get(ctx context.Context, scope tenant.Scope, id uuid.UUID) (*schema.Event, error) {
	var ev schema.Event
	err := scope.Apply(s.db.WithContext(ctx), "events.organization_id").
		Preload("Patient.Facility").
		Preload("Facility").
		Preload("Assignee").
		First(&ev, "events.id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return &ev, nil
}

func (s *eventService) Create(ctx context.Context, scope tenant.Scope, req CreateRequest) ([]schema.Event, error) {
	orgID, err := scope.RequireOrganization()
	if err != nil {
		return nil, err
	}

	base := schema.Event{
		PatientID:  req.PatientID,
		FacilityID: req.FacilityID,
		AssigneeID: req.AssigneeID,
		Title:      strings.TrimSpace(req.Title),
		Type:       schema.EventType(req.Type),
		AllDay:     req.AllDay,
		Notes:      req.Notes,
	}
	base.OrganizationID = orgID
	base.IsActive = true
	if scope.Principal != nil {
		base.CreatedByID = scope.Principal.UserID
	}
	if base.StartAt, base.EndAt, err = s.normalizeTimes(req.StartAt, req.EndAt, req.AllDay); err != nil {
		return nil, err
	}
	if err := s.validate(ctx, &base); err != nil {
		return nil, err
	}

	events := []schema.Event{base}
	if req.Recurrence != nil {
		dates, err := GenerateDates(base.StartAt, *req.Recurrence, s.loc, s.maxOccurrences)
		if err != nil {
			return nil, err
		}
		if len(dates) == 0 {
			return nil, ErrNoOccurrences
		}
		group, err := uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("generate recurrence group: %w", err)
		}
		events[0].IsRecurring = true
		events[0].RecurrenceGroupID = &group
		events = append(events, occurrences(events[0], dates)...)
	}

	if err := s.db.WithContext(ctx).Create(&events).Error; err != nil {
		return nil, fmt.Errorf("create events: %w", err)
	}
	return events, nil
}

// BulkCopy copies every source event to each date generated from its own
// start. Copies keep time of day and duration and are standalone events.
func (s *eventService) BulkCopy(ctx context.Context, scope tenant.Scope, req BulkCopyRequest) ([]schema.Event, error) {
	orgID, err := scope.RequireOrganization()
	if err != nil {
		return nil, err
	}
	ids := lo.Uniq(req.EventIDs)
	if len(ids) == 0 {
		return nil, ErrNoSourceEvents
	}
	if err := req.Recurrence.Validate(s.maxOccurrences); err != nil {
		return nil, err
	}

	var sources []schema.Event
	err = s.db.WithContext(ctx).
		Where("id IN ? AND organization_id = ? AND is_active = ?", ids, orgID, true).
		Find(&sources).Error
	if err != nil {
		return nil, fmt.Errorf("load source events: %w", err)
	}
	if len(sources) != len(ids) {
		return nil, ErrEventNotFound
	}
	byID := lo.KeyBy(sources, func(e schema.Event) uuid.UUID { return e.ID })

	var copies []schema.Event
	for _, id := range ids {
		src := byID[id]
		dates, err := GenerateDates(src.StartAt, req.Recurrence, s.loc, s.maxOccurrences)
		if err != nil {
			return nil, err
		}
		tpl := src
		tpl.IsRecurring = false
		tpl.RecurrenceGroupID = nil
		if scope.Principal != nil {
			tpl.CreatedByID = scope.Principal.UserID
		}
		copies = append(copies, occurrences(tpl, dates)...)
		if len(copies) > maxBulkCopy {
			return nil, fmt.Errorf("%w: at most %d copies", ErrTooManyOccurrences, maxBulkCopy)
		}
	}
	if len(copies) == 0 {
		return nil, ErrNoOccurrences
	}

	if err := s.db.WithContext(ctx).Create(&copies).Error; err != nil {
		return nil, fmt.Errorf("copy events: %w", err)
	}
	return copies, nil
}

func (s *eventService) Update(ctx context.Context, scope tenant.Scope, id uuid.UUID, req UpdateRequest) (*schema.Event, error) {
	ev, err := s.Get(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	next, err := s.merge(*ev, req)
	if err != nil {
		return nil, err
	}
	if err := s.validate(ctx, &next); err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Model(&schema.Event{}).Where("id = ?", ev.ID).Updates(map[string]any{
		"patient_id":  next.PatientID,
		"facility_id": next.FacilityID,
		"assignee_id": next.AssigneeID,
		"title":       next.Title,
		"type":        next.Type,
		"start_at":    next.StartAt,
		"end_at":      next.EndAt,
		"all_day":     next.AllDay,
		"notes":       next.Notes,
	}).Error
	if err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}
	return s.Get(ctx, scope, id)
}

func (s *eventService) Delete(ctx context.Context, scope tenant.Scope, id uuid.UUID, series bool) (int64, error) {
	ev, err := s.Get(ctx, scope, id)
	if err != nil {
		return 0, err
	}

	q := s.db.WithContext(ctx).Model(&schema.Event{}).Where("organization_id = ?", ev.OrganizationID)
	if series && ev.RecurrenceGroupID != nil {
		q = q.Where("recurrence_group_id = ? AND start_at >= ? AND is_active = ?", *ev.RecurrenceGroupID, ev.StartAt, true)
	} else {
		q = q.Where("id = ?", ev.ID)
	}

	res := q.Update("is_active", false)
	if res.Error != nil {
		return 0, fmt.Errorf("delete event: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// normalizeTimes applies the default duration and all-day rules.
// All-day events start at local midnight; EndAt is their last day.
func (s *eventService) normalizeTimes(start time.Time, end *time.Time, allDay bool) (time.Time, time.Time, error) {
	if start.IsZero() {
		return time.Time{}, time.Time{}, ErrStartRequired
	}
	if allDay {
		st := dateOf(start, s.loc)
		en := st
		if end != nil && !end.IsZero() {
			en = dateOf(*end, s.loc)
		}
		if en.Before(st) {
			return time.Time{}, time.Time{}, ErrInvalidTimeRange
		}
		return st, en, nil
	}
	if end == nil || end.IsZero() {
		return start, start.Add(s.defaultDuration), nil
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, ErrInvalidTimeRange
	}
	return start, *end, nil
}

// validate checks the event's own fields and that every referenced row is an
// active member of the event's organization.
func (s *eventService) validate(ctx context.Context, ev *schema.Event) error {
	if ev.PatientID == nil && ev.FacilityID == nil {
		return ErrTargetRequired
	}
	if !ev.Type.IsValid() {
		return ErrInvalidType
	}
	if ev.PatientID != nil {
		if err := s.member(ctx, &schema.Patient{}, *ev.PatientID, ev.OrganizationID, ErrPatientNotFound); err != nil {
			return err
		}
	}
	if ev.FacilityID != nil {
		if err := s.member(ctx, &schema.Facility{}, *ev.FacilityID, ev.OrganizationID, ErrFacilityNotFound); err != nil {
			return err
		}
	}
	if ev.AssigneeID != nil {
		if err := s.member(ctx, &schema.User{}, *ev.AssigneeID, ev.OrganizationID, ErrAssigneeNotFound); err != nil {
			return err
		}
	}
	return nil
}

func (s *eventService) member(ctx context.Context, model any, id, orgID uuid.UUID, notFound error) error {
	var n int64
	err := s.db.WithContext(ctx).Model(model).
		Where("id = ? AND organization_id = ? AND is_active = ?", id, orgID, true).
		Count(&n).Error
	if err != nil {
		return fmt.Errorf("check reference: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

// merge applies req to a copy of ev. Moving the start without a new end keeps
// the duration.
func (s *eventService) merge(next schema.Event, req UpdateRequest) (schema.Event, error) {
	switch {
	case req.ClearPatient:
		next.PatientID = nil
	case req.PatientID != nil:
		next.PatientID = req.PatientID
	}
	switch {
	case req.ClearFacility:
		next.FacilityID = nil
	case req.FacilityID != nil:
		next.FacilityID = req.FacilityID
	}
	switch {
	case req.ClearAssignee:
		next.AssigneeID = nil
	case req.AssigneeID != nil:
		next.AssigneeID = req.AssigneeID
	}
	if req.Title != nil {
		next.Title = strings.TrimSpace(*req.Title)
	}
	if req.Type != nil {
		next.Type = schema.EventType(*req.Type)
	}
	if req.Notes != nil {
		next.Notes = *req.Notes
	}
	if req.AllDay != nil {
		next.AllDay = *req.AllDay
	}

	start := next.StartAt
	if req.StartAt != nil {
		start = *req.StartAt
	}
	end := &next.EndAt
	if req.EndAt != nil {
		end = req.EndAt
	} else if req.StartAt != nil {
		// moving the start keeps the duration
		e := start.Add(next.EndAt.Sub(next.StartAt))
		end = &e
	}
	var err error
	if next.StartAt, next.EndAt, err = s.normalizeTimes(start, end, next.AllDay); err != nil {
		return schema.Event{}, err
	}

	next.Patient, next.Facility, next.Assignee = nil, nil, nil
	return next, nil
}

// occurrences clones tpl onto each date, keeping its duration. All-day
// events keep their length in calendar days instead.
func occurrences(tpl schema.Event, dates []time.Time) []schema.Event {
	d := tpl.EndAt.Sub(tpl.StartAt)
	days := int(math.Round(d.Hours() / 24))
	return lo.Map(dates, func(start time.Time, _ int) schema.Event {
		ev := tpl
		ev.ID = uuid.Nil
		ev.CreatedAt, ev.UpdatedAt = time.Time{}, time.Time{}
		ev.Patient, ev.Facility, ev.Assignee = nil, nil, nil
		ev.IsActive = true
		ev.StartAt = start
		if tpl.AllDay {
			ev.EndAt = start.AddDate(0, 0, days)
		} else {
			ev.EndAt = start.Add(d)
		}
		return ev
	})
}
