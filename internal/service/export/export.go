// Package export renders schedules and patient summaries as PDF documents.
package export

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/Alijeyrad/carevisit_backend/internal/schema"
	"github.com/Alijeyrad/carevisit_backend/internal/service/event"
	"github.com/Alijeyrad/carevisit_backend/internal/service/organization"
	"github.com/Alijeyrad/carevisit_backend/internal/service/page"
	"github.com/Alijeyrad/carevisit_backend/internal/service/patient"
	"github.com/Alijeyrad/carevisit_backend/internal/service/summary"
	"github.com/Alijeyrad/carevisit_backend/internal/tenant"
	"github.com/Alijeyrad/carevisit_backend/pkg/pdf"
)

// HistoryEntries is how many archived summaries a patient report shows.
const HistoryEntries = 10

type ScheduleRequest struct {
	From       time.Time
	To         time.Time
	FacilityID *uuid.UUID
	AssigneeID *uuid.UUID
}

type Service interface {
	Schedule(ctx context.Context, scope tenant.Scope, req ScheduleRequest, w io.Writer) error
	PatientSummary(ctx context.Context, scope tenant.Scope, patientID uuid.UUID, w io.Writer) error
}

type exportService struct {
	events    event.Service
	patients  patient.Service
	summaries summary.Service
	orgs      organization.Service
	renderer  *pdf.Renderer
}

func New(events event.Service, patients patient.Service, summaries summary.Service, orgs organization.Service, renderer *pdf.Renderer) Service {
	return &exportService{
		events:    events,
		patients:  patients,
		summaries: summaries,
		orgs:      orgs,
		renderer:  renderer,
	}
}

func (s *exportService) Schedule(ctx context.Context, scope tenant.Scope, req ScheduleRequest, w io.Writer) error {
	orgName, err := s.organizationName(ctx, scope)
	if err != nil {
		return err
	}
	evs, err := s.events.List(ctx, scope, event.ListRequest{
		From:       req.From,
		To:         req.To,
		FacilityID: req.FacilityID,
		AssigneeID: req.AssigneeID,
	})
	if err != nil {
		return err
	}

	doc := pdf.ScheduleDoc{
		Organization: orgName,
		From:         req.From,
		To:           req.To,
		Rows:         make([]pdf.ScheduleRow, 0, len(evs)),
	}
	for i := range evs {
		doc.Rows = append(doc.Rows, scheduleRow(&evs[i]))
	}
	if err := s.renderer.Schedule(w, doc); err != nil {
		return fmt.Errorf("render schedule: %w", err)
	}
	return nil
}

func scheduleRow(ev *schema.Event) pdf.ScheduleRow {
	row := pdf.ScheduleRow{
		Start:  ev.StartAt,
		End:    ev.EndAt,
		AllDay: ev.AllDay,
		Type:   string(ev.Type),
		Title:  ev.Title,
	}
	if ev.Patient != nil {
		row.Patient = ev.Patient.Name
	}
	if f := ev.FacilityRef(); f != nil {
		row.Facility = f.Name
	}
	if ev.Assignee != nil {
		row.Assignee = ev.Assignee.Name
	}
	return row
}

func (s *exportService) PatientSummary(ctx context.Context, scope tenant.Scope, patientID uuid.UUID, w io.Writer) error {
	p, err := s.patients.Get(ctx, scope, patientID)
	if err != nil {
		return err
	}
	sum, err := s.summaries.Get(ctx, scope, patientID)
	if err != nil {
		return err
	}
	hist, err := s.summaries.History(ctx, scope, patientID, page.Request{Page: 1, PerPage: HistoryEntries})
	if err != nil {
		return err
	}
	orgName, err := s.organizationName(ctx, scope)
	if err != nil {
		return err
	}

	doc := pdf.SummaryDoc{
		Organization: orgName,
		PatientName:  p.Name,
		NameKana:     p.NameKana,
		BirthDate:    p.BirthDate,
		Gender:       string(p.Gender),
		RoomNumber:   p.RoomNumber,
		Address:      p.Address,
		Phone:        p.Phone,
		Notes:        p.Notes,
		Summary:      sum.Content,
	}
	if p.Facility != nil {
		doc.Facility = p.Facility.Name
	}
	if sum.ID != uuid.Nil {
		at := sum.UpdatedAt
		doc.SummaryUpdatedAt = &at
	}
	if sum.UpdatedBy != nil {
		doc.SummaryUpdatedBy = sum.UpdatedBy.Name
	}
	for _, h := range hist.Data {
		e := pdf.HistoryEntry{At: h.CreatedAt, Content: h.Content}
		if h.EditedBy != nil {
			e.By = h.EditedBy.Name
		}
		doc.History = append(doc.History, e)
	}

	if err := s.renderer.PatientSummary(w, doc); err != nil {
		return fmt.Errorf("render patient summary: %w", err)
	}
	return nil
}

func (s *exportService) organizationName(ctx context.Context, scope tenant.Scope) (string, error) {
	orgID, err := scope.RequireOrganization()
	if err != nil {
		return "", err
	}
	org, err := s.orgs.Get(ctx, scope, orgID)
	if err != nil {
		return "", err
	}
	return org.Name, nil
}
