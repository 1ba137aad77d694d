package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"protv/internal/intake"
	"protv/pkg/types"
)

const (
	multipartMemoryBytes = 32 << 20
	idempotencyHeader    = "Idempotency-Key"
	applicationDataField = "application_data"
)

type rootResponse struct {
	Message string `json:"message"`
}

type healthResponse struct {
	Status      string `json:"status"`
	Database    string `json:"database"`
	GoogleDrive string `json:"google_drive"`
	Timestamp   string `json:"timestamp"`
}

func (s *Service) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, rootResponse{Message: "PROTV Application System API"})
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, err := s.store.ListCollections(ctx); err != nil {
		s.logger.WithError(err).Error("health check failed")
		s.writeDetail(w, http.StatusInternalServerError, fmt.Sprintf("Health check failed: %s", err))
		return
	}

	resp := healthResponse{
		Status:      "healthy",
		Database:    "connected",
		GoogleDrive: "connected",
		Timestamp:   time.Now().UTC().Format(time.RFC3339Nano),
	}

	if err := s.storage.Ping(ctx); err != nil {
		s.logger.WithError(err).Warn("file storage unreachable")
		resp.Status = "degraded"
		resp.GoogleDrive = "disconnected"
	}

	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Service) handleSubmitApplication(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadMB<<20)

	if err := r.ParseMultipartForm(multipartMemoryBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeDetail(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("Upload exceeds %d MB", s.config.MaxUploadMB))
			return
		}
		s.logger.WithError(err).Error("failed to parse multipart form")
		s.writeDetail(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	if _, ok := r.MultipartForm.Value[applicationDataField]; !ok {
		s.writeDetail(w, http.StatusUnprocessableEntity, "application_data is required")
		return
	}

	var submitForm = new(types.SubmitForm)
	if err := decoder.Decode(submitForm, r.MultipartForm.Value); err != nil {
		s.logger.WithError(err).Error("failed to decode form")
		s.writeDetail(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	idempotencyKey := strings.TrimSpace(r.Header.Get(idempotencyHeader))
	if idempotencyKey == "" {
		idempotencyKey = strings.TrimSpace(submitForm.IdempotencyKey)
	}

	sub := &intake.Submission{
		ApplicationData: submitForm.ApplicationData,
		Files:           make(map[types.FileSlot]*intake.File),
		IdempotencyKey:  idempotencyKey,
	}

	for _, slot := range types.FileSlots {
		headers := r.MultipartForm.File[string(slot)]
		if len(headers) == 0 {
			continue
		}

		fh := headers[0]
		sub.Files[slot] = &intake.File{
			Name:     fh.Filename,
			MimeType: fh.Header.Get("Content-Type"),
			Size:     fh.Size,
			Open: func() (io.ReadCloser, error) {
				return fh.Open()
			},
		}
	}

	result, err := s.intake.Submit(r.Context(), sub)
	if err != nil {
		if errors.Is(err, intake.ErrBadInput) {
			s.writeDetail(w, http.StatusBadRequest, "Invalid application data format")
			return
		}

		s.logger.WithError(err).Error("application submission failed")
		s.writeDetail(w, http.StatusInternalServerError, fmt.Sprintf("Application submission failed: %s", err))
		return
	}

	s.writeJSON(w, http.StatusOK, result.Confirmation)
}
