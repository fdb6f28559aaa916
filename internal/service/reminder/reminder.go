// Package reminder stores one-shot reminders and delivers them in the
// background: a Dispatcher publishes due reminders on NATS and a Notifier
// consumes them and sends mail.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Alijeyrad/carevisit_backend/internal/schema"
	"github.com/Alijeyrad/carevisit_backend/internal/service/page"
	"github.com/Alijeyrad/carevisit_backend/internal/tenant"
)

// MaxLeadMinutes is one week.
const MaxLeadMinutes = 7 * 24 * 60

type Status string

const (
	StatusPending Status = "pending"
	StatusSent    Status = "sent"
	StatusAll     Status = "all"
)

type ListRequest struct {
	page.Request
	Status    Status
	PatientID *uuid.UUID
	EventID   *uuid.UUID
}

type CreateRequest struct {
	PatientID *uuid.UUID
	EventID   *uuid.UUID
	UserID    *uuid.UUID
	Title     string
	Message   string
	RemindAt  time.Time
}

type UpdateRequest struct {
	PatientID      *uuid.UUID
	ClearPatient   bool
	EventID        *uuid.UUID
	ClearEvent     bool
	UserID         *uuid.UUID
	ClearRecipient bool
	Title          *string
	Message        *string
	RemindAt       *time.Time
}

type SettingUpdate struct {
	Enabled     *bool
	LeadMinutes *int
	SendEmail   *bool
}

type Service interface {
	List(ctx context.Context, scope tenant.Scope, req ListRequest) (*page.Result[schema.Reminder], error)
	Get(ctx context.Context, scope tenant.Scope, id uuid.UUID) (*schema.Reminder, error)
	Create(ctx context.Context, scope tenant.Scope, req CreateRequest) (*schema.Reminder, error)
	Update(ctx context.Context, scope tenant.Scope, id uuid.UUID, req UpdateRequest) (*schema.Reminder, error)
	Delete(ctx context.Context, scope tenant.Scope, id uuid.UUID) error

	GetSetting(ctx context.Context, scope tenant.Scope) (*schema.ReminderSetting, error)
	UpdateSetting(ctx context.Context, scope tenant.Scope, req SettingUpdate) (*schema.ReminderSetting, error)
}

type reminderService struct {
	db *gorm.DB
}

func New(db *gorm.DB) Service {
	return &reminderService{db: db}
}

// ---------------------------------------------------------------------------
// Reminders
// ---------------------------------------------------------------------------

func (s *reminderService) List(ctx context.Context, scope tenant.Scope, req ListRequest) (*page.Result[schema.Reminder], error) {
	q := scope.Apply(s.db.Model(&schema.Reminder{}), "").Where("is_active = ?", true)

	switch req.Status {
	case StatusPending, "":
		q = q.Where("is_sent = ?", false)
	case StatusSent:
		q = q.Where("is_sent = ?", true)
	case StatusAll:
	default:
		return nil, ErrInvalidStatus
	}
	if req.PatientID != nil {
		q = q.Where("patient_id = ?", *req.PatientID)
	}
	if req.EventID != nil {
		q = q.Where("event_id = ?", *req.EventID)
	}

	res, err := page.Find[schema.Reminder](ctx, q, req.Request, "remind_at ASC, id ASC")
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	return res, nil
}

func (s *reminderService) Get(ctx context.Context, scope tenant.Scope, id uuid.UUID) (*schema.Reminder, error) {
	var r schema.Reminder
	if err := scope.Apply(s.db.WithContext(ctx), "").First(&r, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReminderNotFound
		}
		return nil, fmt.Errorf("get reminder: %w", err)
	}
	return &r, nil
}

func (s *reminderService) Create(ctx context.Context, scope tenant.Scope, req CreateRequest) (*schema.Reminder, error) {
	orgID, err := scope.RequireOrganization()
	if err != nil {
		return nil, err
	}

	r := &schema.Reminder{
		PatientID: req.PatientID,
		EventID:   req.EventID,
		UserID:    req.UserID,
		Title:     strings.TrimSpace(req.Title),
		Message:   req.Message,
		RemindAt:  req.RemindAt,
	}
	r.OrganizationID = orgID
	r.IsActive = true
	if r.Title == "" {
		return nil, ErrTitleRequired
	}
	if r.RemindAt.IsZero() {
		return nil, ErrRemindAtRequired
	}
	if err := s.checkRefs(ctx, r); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		return nil, fmt.Errorf("create reminder: %w", err)
	}
	return r, nil
}

// Update edits a pending reminder. Moving remind_at does not resend a sent one.
func (s *reminderService) Update(ctx context.Context, scope tenant.Scope, id uuid.UUID, req UpdateRequest) (*schema.Reminder, error) {
	r, err := s.Get(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if r.IsSent {
		return nil, ErrAlreadySent
	}

	updates := map[string]any{}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, ErrTitleRequired
		}
		updates["title"] = title
		r.Title = title
	}
	if req.Message != nil {
		updates["message"] = *req.Message
	}
	if req.RemindAt != nil {
		if req.RemindAt.IsZero() {
			return nil, ErrRemindAtRequired
		}
		updates["remind_at"] = *req.RemindAt
	}

	switch {
	case req.ClearPatient:
		updates["patient_id"] = nil
		r.PatientID = nil
	case req.PatientID != nil:
		updates["patient_id"] = *req.PatientID
		r.PatientID = req.PatientID
	}
	switch {
	case req.ClearEvent:
		updates["event_id"] = nil
		r.EventID = nil
	case req.EventID != nil:
		updates["event_id"] = *req.EventID
		r.EventID = req.EventID
	}
	switch {
	case req.ClearRecipient:
		updates["user_id"] = nil
		r.UserID = nil
	case req.UserID != nil:
		updates["user_id"] = *req.UserID
		r.UserID = req.UserID
	}
	if len(updates) == 0 {
		return r, nil
	}
	if err := s.checkRefs(ctx, r); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(&schema.Reminder{}).Where("id = ?", r.ID).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("update reminder: %w", err)
	}
	return s.Get(ctx, scope, id)
}

func (s *reminderService) Delete(ctx context.Context, scope tenant.Scope, id uuid.UUID) error {
	res := scope.Apply(s.db.WithContext(ctx).Model(&schema.Reminder{}), "").
		Where("id = ?", id).
		Update("is_active", false)
	if res.Error != nil {
		return fmt.Errorf("delete reminder: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrReminderNotFound
	}
	return nil
}

func (s *reminderService) checkRefs(ctx context.Context, r *schema.Reminder) error {
	if r.PatientID != nil {
		if err := s.member(ctx, &schema.Patient{}, *r.PatientID, r.OrganizationID, ErrPatientNotFound); err != nil {
			return err
		}
	}
	if r.EventID != nil {
		if err := s.member(ctx, &schema.Event{}, *r.EventID, r.OrganizationID, ErrEventNotFound); err != nil {
			return err
		}
	}
	if r.UserID != nil {
		if err := s.member(ctx, &schema.User{}, *r.UserID, r.OrganizationID, ErrRecipientNotFound); err != nil {
			return err
		}
	}
	return nil
}

func (s *reminderService) member(ctx context.Context, model any, id, orgID uuid.UUID, notFound error) error {
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

// ---------------------------------------------------------------------------
// Settings
// ---------------------------------------------------------------------------

// GetSetting returns the organization's setting, creating the default row for
// organizations that predate it.
func (s *reminderService) GetSetting(ctx context.Context, scope tenant.Scope) (*schema.ReminderSetting, error) {
	orgID, err := scope.RequireOrganization()
	if err != nil {
		return nil, err
	}
	return s.setting(ctx, orgID)
}

func (s *reminderService) UpdateSetting(ctx context.Context, scope tenant.Scope, req SettingUpdate) (*schema.ReminderSetting, error) {
	orgID, err := scope.RequireOrganization()
	if err != nil {
		return nil, err
	}
	if req.LeadMinutes != nil && (*req.LeadMinutes < 0 || *req.LeadMinutes > MaxLeadMinutes) {
		return nil, ErrInvalidLead
	}

	set, err := s.setting(ctx, orgID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if req.Enabled != nil {
		updates["enabled"] = *req.Enabled
		set.Enabled = *req.Enabled
	}
	if req.LeadMinutes != nil {
		updates["lead_minutes"] = *req.LeadMinutes
		set.LeadMinutes = *req.LeadMinutes
	}
	if req.SendEmail != nil {
		updates["send_email"] = *req.SendEmail
		set.SendEmail = *req.SendEmail
	}
	if len(updates) == 0 {
		return set, nil
	}
	if err := s.db.WithContext(ctx).Model(&schema.ReminderSetting{}).Where("id = ?", set.ID).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("update reminder setting: %w", err)
	}
	return set, nil
}

func (s *reminderService) setting(ctx context.Context, orgID uuid.UUID) (*schema.ReminderSetting, error) {
	db := s.db.WithContext(ctx)
	var set schema.ReminderSetting
	err := db.Where("organization_id = ?", orgID).Take(&set).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		set = *schema.DefaultReminderSetting(orgID)
		if err := db.Create(&set).Error; err != nil {
			return nil, fmt.Errorf("create reminder setting: %w", err)
		}
		return &set, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get reminder setting: %w", err)
	}
	return &set, nil
}
