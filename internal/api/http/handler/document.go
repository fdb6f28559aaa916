package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/carevisit_backend/internal/service/document"
)

type DocumentHandler struct {
	svc document.Service
}

func NewDocumentHandler(svc document.Service) *DocumentHandler {
	return &DocumentHandler{svc: svc}
}

func mapDocumentError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, document.ErrDocumentNotFound),
		errors.Is(err, document.ErrPatientNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, document.ErrFileTooLarge):
		return tooLarge(c, err.Error())
	case errors.Is(err, document.ErrFileRequired),
		errors.Is(err, document.ErrContentTypeNotAllowed):
		return badRequest(c, err.Error())
	default:
		return mapCommonError(c, err)
	}
}

// GET /api/v1/patients/:id/documents
func (h *DocumentHandler) List(c fiber.Ctx) error {
	patientID, valid := paramID(c, "id")
	if !valid {
		return badRequest(c, "invalid patient id")
	}
	docs, err := h.svc.List(c.Context(), scopeOf(c), patientID)
	if err != nil {
		return mapDocumentError(c, err)
	}
	return ok(c, docs)
}

// POST /api/v1/patients/:id/documents
// Multipart upload with a single "file" field.
func (h *DocumentHandler) Upload(c fiber.Ctx) error {
	patientID, valid := paramID(c, "id")
	if !valid {
		return badRequest(c, "invalid patient id")
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "file field is required")
	}
	if fh.Size > h.svc.MaxSize() {
		return tooLarge(c, document.ErrFileTooLarge.Error())
	}
	f, err := fh.Open()
	if err != nil {
		return badRequest(c, "could not read upload")
	}
	defer f.Close()

	doc, err := h.svc.Upload(c.Context(), scopeOf(c), patientID, document.UploadRequest{
		FileName:    fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Size:        fh.Size,
		Body:        f,
	})
	if err != nil {
		return mapDocumentError(c, err)
	}
	return created(c, doc)
}

// GET /api/v1/patients/:id/documents/:docID/download
// Returns the document with a short-lived presigned URL.
func (h *DocumentHandler) Download(c fiber.Ctx) error {
	patientID, valid := paramID(c, "id")
	if !valid {
		return badRequest(c, "invalid patient id")
	}
	docID, valid := paramID(c, "docID")
	if !valid {
		return badRequest(c, "invalid document id")
	}

	dl, err := h.svc.Download(c.Context(), scopeOf(c), patientID, docID)
	if err != nil {
		return mapDocumentError(c, err)
	}
	return ok(c, fiber.Map{"document": dl.Document, "url": dl.URL})
}

// DELETE /api/v1/patients/:id/documents/:docID
func (h *DocumentHandler) Delete(c fiber.Ctx) error {
	patientID, valid := paramID(c, "id")
	if !valid {
		return badRequest(c, "invalid patient id")
	}
	docID, valid := paramID(c, "docID")
	if !valid {
		return badRequest(c, "invalid document id")
	}
	if err := h.svc.Delete(c.Context(), scopeOf(c), patientID, docID); err != nil {
		return mapDocumentError(c, err)
	}
	return noContent(c)
}
