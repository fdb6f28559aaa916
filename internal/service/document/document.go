package document

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Alijeyrad/carevisit_backend/config"
	"github.com/Alijeyrad/carevisit_backend/internal/schema"
	"github.com/Alijeyrad/carevisit_backend/internal/tenant"
	s3pkg "github.com/Alijeyrad/carevisit_backend/pkg/s3"
)

const defaultMaxSizeMB = 20

var defaultContentTypes = []string{
	"application/pdf",
	"image/jpeg",
	"image/png",
	"image/heic",
	"text/plain",
}

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type UploadRequest struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type Download struct {
	Document *schema.PatientDocument
	URL      string
}

// ---------------------------------------------------------------------------
// Service interface
// ---------------------------------------------------------------------------

type Service interface {
	Upload(ctx context.Context, scope tenant.Scope, patientID uuid.UUID, req UploadRequest) (*schema.PatientDocument, error)
	List(ctx context.Context, scope tenant.Scope, patientID uuid.UUID) ([]schema.PatientDocument, error)
	Download(ctx context.Context, scope tenant.Scope, patientID, id uuid.UUID) (*Download, error)
	Delete(ctx context.Context, scope tenant.Scope, patientID, id uuid.UUID) error
	MaxSize() int64
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type documentService struct {
	db      *gorm.DB
	storage s3pkg.Storage
	maxSize int64
	allowed []string
}

func New(db *gorm.DB, storage s3pkg.Storage, cfg config.DocumentsConfig) Service {
	mb := cfg.MaxSizeMB
	if mb <= 0 {
		mb = defaultMaxSizeMB
	}
	allowed := cfg.AllowedContentTypes
	if len(allowed) == 0 {
		allowed = defaultContentTypes
	}
	return &documentService{
		db:      db,
		storage: storage,
		maxSize: int64(mb) << 20,
		allowed: allowed,
	}
}

func (s *documentService) MaxSize() int64 { return s.maxSize }

func (s *documentService) Upload(ctx context.Context, scope tenant.Scope, patientID uuid.UUID, req UploadRequest) (*schema.PatientDocument, error) {
	if req.Body == nil || req.Size <= 0 || strings.TrimSpace(req.FileName) == "" {
		return nil, ErrFileRequired
	}
	if req.Size > s.maxSize {
		return nil, ErrFileTooLarge
	}
	ct := s.contentType(req.FileName, req.ContentType)
	if !slices.Contains(s.allowed, ct) {
		return nil, fmt.Errorf("%w: %s", ErrContentTypeNotAllowed, ct)
	}

	p, err := s.patient(ctx, scope, patientID)
	if err != nil {
		return nil, err
	}

	name := filepath.Base(strings.TrimSpace(req.FileName))
	key := s3pkg.DocumentKey(p.OrganizationID, p.ID, name)
	if err := s.storage.Upload(ctx, key, ct, name, io.LimitReader(req.Body, s.maxSize), req.Size); err != nil {
		return nil, fmt.Errorf("s3 upload: %w", err)
	}

	doc := &schema.PatientDocument{
		PatientID:   p.ID,
		FileName:    name,
		ObjectKey:   key,
		ContentType: ct,
		SizeBytes:   req.Size,
	}
	doc.OrganizationID = p.OrganizationID
	doc.IsActive = true
	if scope.Principal != nil {
		doc.UploadedByID = scope.Principal.UserID
	}

	if err := s.db.WithContext(ctx).Create(doc).Error; err != nil {
		if delErr := s.storage.Delete(ctx, key); delErr != nil {
			slog.Warn("orphaned document object", "key", key, "error", delErr)
		}
		return nil, fmt.Errorf("create document: %w", err)
	}
	return doc, nil
}

func (s *documentService) List(ctx context.Context, scope tenant.Scope, patientID uuid.UUID) ([]schema.PatientDocument, error) {
	if _, err := s.patient(ctx, scope, patientID); err != nil {
		return nil, err
	}
	var docs []schema.PatientDocument
	err := s.db.WithContext(ctx).
		Where("patient_id = ? AND is_active = ?", patientID, true).
		Order("created_at DESC").
		Find(&docs).Error
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

func (s *documentService) Download(ctx context.Context, scope tenant.Scope, patientID, id uuid.UUID) (*Download, error) {
	doc, err := s.find(ctx, scope, patientID, id)
	if err != nil {
		return nil, err
	}
	url, err := s.storage.PresignDownload(ctx, doc.ObjectKey)
	if err != nil {
		return nil, fmt.Errorf("presign: %w", err)
	}
	return &Download{Document: doc, URL: url}, nil
}

// Delete hides the document and removes the object. A failed object delete
// is logged, not returned.
func (s *documentService) Delete(ctx context.Context, scope tenant.Scope, patientID, id uuid.UUID) error {
	doc, err := s.find(ctx, scope, patientID, id)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Model(doc).Update("is_active", false).Error; err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if err := s.storage.Delete(ctx, doc.ObjectKey); err != nil {
		slog.Warn("failed to delete document object", "document_id", doc.ID, "key", doc.ObjectKey, "error", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (s *documentService) contentType(name, declared string) string {
	ct, _, err := mime.ParseMediaType(declared)
	if err != nil || ct == "" || ct == "application/octet-stream" {
		if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); byExt != "" {
			ct, _, _ = mime.ParseMediaType(byExt)
		}
	}
	if ct == "" {
		ct = "application/octet-stream"
	}
	return strings.ToLower(ct)
}

func (s *documentService) patient(ctx context.Context, scope tenant.Scope, id uuid.UUID) (*schema.Patient, error) {
	var p schema.Patient
	err := scope.Apply(s.db.WithContext(ctx), "").
		Select("id", "organization_id").
		Where("is_active = ?", true).
		Take(&p, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("get patient: %w", err)
	}
	return &p, nil
}

func (s *documentService) find(ctx context.Context, scope tenant.Scope, patientID, id uuid.UUID) (*schema.PatientDocument, error) {
	var doc schema.PatientDocument
	err := scope.Apply(s.db.WithContext(ctx), "").
		Where("patient_id = ? AND is_active = ?", patientID, true).
		Take(&doc, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	return &doc, nil
}
