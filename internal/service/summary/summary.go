// Package summary keeps the handover note of each patient together with an
// append-only history of overwritten versions.
package summary

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Alijeyrad/carevisit_backend/internal/schema"
	"github.com/Alijeyrad/carevisit_backend/internal/service/page"
	"github.com/Alijeyrad/carevisit_backend/internal/tenant"
)

// MaxContentLength is counted in characters.
const MaxContentLength = 20000

type Service interface {
	// Get returns the current summary; a patient without one gets an empty,
	// unsaved summary.
	Get(ctx context.Context, scope tenant.Scope, patientID uuid.UUID) (*schema.PatientSummary, error)
	Upsert(ctx context.Context, scope tenant.Scope, patientID uuid.UUID, content string) (*schema.PatientSummary, error)
	History(ctx context.Context, scope tenant.Scope, patientID uuid.UUID, req page.Request) (*page.Result[schema.PatientSummaryHistory], error)
}

type summaryService struct {
	db *gorm.DB
}

func New(db *gorm.DB) Service {
	return &summaryService{db: db}
}

func (s *summaryService) Get(ctx context.Context, scope tenant.Scope, patientID uuid.UUID) (*schema.PatientSummary, error) {
	p, err := s.patient(ctx, scope, patientID)
	if err != nil {
		return nil, err
	}

	var sum schema.PatientSummary
	err = s.db.WithContext(ctx).Preload("UpdatedBy").
		Where("patient_id = ?", patientID).
		Take(&sum).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		empty := &schema.PatientSummary{PatientID: patientID}
		empty.OrganizationID = p.OrganizationID
		return empty, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get summary: %w", err)
	}
	return &sum, nil
}

// Upsert replaces the summary. The previous content, if any and different,
// is archived in the same transaction.
func (s *summaryService) Upsert(ctx context.Context, scope tenant.Scope, patientID uuid.UUID, content string) (*schema.PatientSummary, error) {
	if utf8.RuneCountInString(content) > MaxContentLength {
		return nil, ErrContentTooLong
	}
	p, err := s.patient(ctx, scope, patientID)
	if err != nil {
		return nil, err
	}
	var editor *uuid.UUID
	if scope.Principal != nil {
		id := scope.Principal.UserID
		editor = &id
	}

	var out schema.PatientSummary
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cur schema.PatientSummary
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("patient_id = ?", patientID).
			Take(&cur).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			out = schema.PatientSummary{PatientID: patientID, Content: content, UpdatedByID: editor}
			out.OrganizationID = p.OrganizationID
			if err := tx.Create(&out).Error; err != nil {
				return fmt.Errorf("create summary: %w", err)
			}
			return nil
		case err != nil:
			return fmt.Errorf("lock summary: %w", err)
		}

		if cur.Content == content {
			out = cur
			return nil
		}
		hist := &schema.PatientSummaryHistory{
			ID:             schema.NewID(),
			CreatedAt:      time.Now(),
			OrganizationID: cur.OrganizationID,
			SummaryID:      cur.ID,
			PatientID:      cur.PatientID,
			Content:        cur.Content,
			EditedByID:     cur.UpdatedByID,
		}
		if err := tx.Create(hist).Error; err != nil {
			return fmt.Errorf("archive summary: %w", err)
		}
		if err := tx.Model(&cur).Updates(map[string]any{"content": content, "updated_by_id": editor}).Error; err != nil {
			return fmt.Errorf("update summary: %w", err)
		}
		cur.Content = content
		cur.UpdatedByID = editor
		out = cur
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *summaryService) History(ctx context.Context, scope tenant.Scope, patientID uuid.UUID, req page.Request) (*page.Result[schema.PatientSummaryHistory], error) {
	if _, err := s.patient(ctx, scope, patientID); err != nil {
		return nil, err
	}
	q := s.db.Model(&schema.PatientSummaryHistory{}).Where("patient_id = ?", patientID)
	res, err := page.Find[schema.PatientSummaryHistory](ctx, q, req, "created_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("list summary history: %w", err)
	}
	if err := s.attachEditors(ctx, res.Data); err != nil {
		return nil, err
	}
	return res, nil
}

// attachEditors fills EditedBy with one query per page.
func (s *summaryService) attachEditors(ctx context.Context, rows []schema.PatientSummaryHistory) error {
	ids := lo.Uniq(lo.FilterMap(rows, func(h schema.PatientSummaryHistory, _ int) (uuid.UUID, bool) {
		if h.EditedByID == nil {
			return uuid.Nil, false
		}
		return *h.EditedByID, true
	}))
	if len(ids) == 0 {
		return nil
	}

	var users []schema.User
	if err := s.db.WithContext(ctx).Select("id", "name", "email").Where("id IN ?", ids).Find(&users).Error; err != nil {
		return fmt.Errorf("load summary editors: %w", err)
	}
	byID := lo.KeyBy(users, func(u schema.User) uuid.UUID { return u.ID })
	for i := range rows {
		if rows[i].EditedByID == nil {
			continue
		}
		if u, ok := byID[*rows[i].EditedByID]; ok {
			rows[i].EditedBy = &u
		}
	}
	return nil
}

func (s *summaryService) patient(ctx context.Context, scope tenant.Scope, id uuid.UUID) (*schema.Patient, error) {
	var p schema.Patient
	err := scope.Apply(s.db.WithContext(ctx), "").
		Select("id", "organization_id").
		Take(&p, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("get patient: %w", err)
	}
	return &p, nil
}
