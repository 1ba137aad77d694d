package intake

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"protv/internal/metrics"
	"protv/pkg/types"

	"github.com/sirupsen/logrus"
	"github.com/xeipuuv/gojsonschema"
)

const (
	confirmationMessage = "Application submitted successfully to PROTV!"
	unknownApplicant    = "Unknown"
	defaultMimeType     = "application/octet-stream"
)

var (
	ErrBadInput      = errors.New("invalid application data format")
	ErrContainer     = errors.New("create storage container")
	ErrInvalidRecord = errors.New("invalid application record")
	ErrPersist       = errors.New("persist application")
)

// Storage is the file storage provider the workflow uploads to.
type Storage interface {
	CreateContainer(ctx context.Context, ownerID, ownerName string) (ref string, link string, err error)
	Upload(ctx context.Context, encoded, fileName, containerRef, mimeType string) (*types.FileDescriptor, error)
}

// Store persists application records.
type Store interface {
	Insert(ctx context.Context, app *types.Application) error
	ApplicationBySubmissionID(ctx context.Context, submissionID string) (*types.Application, error)
}

// Publisher announces persisted applications. Failures never fail a submission.
type Publisher interface {
	PublishSubmitted(ctx context.Context, app *types.Application) error
}

// File is one uploaded part of a submission.
type File struct {
	Name     string
	MimeType string
	Size     int64
	Open     func() (io.ReadCloser, error)
}

// Submission is one inbound application with its optional files.
type Submission struct {
	ApplicationData string
	Files           map[types.FileSlot]*File
	IdempotencyKey  string
}

// Result is what Submit hands back on success. Outcomes covers every slot,
// including the ones that never appear in Application.Files.
type Result struct {
	Confirmation types.Confirmation
	Application  *types.Application
	Outcomes     map[types.FileSlot]types.SlotOutcome
	Replayed     bool
}

type Service struct {
	logger    *logrus.Logger
	storage   Storage
	store     Store
	publisher Publisher
	schema    *gojsonschema.Schema

	now func() time.Time
}

func New(logger *logrus.Logger, storage Storage, store Store, publisher Publisher) (*Service, error) {
	schema, err := compileRecordSchema()
	if err != nil {
		return nil, err
	}

	return &Service{
		logger:    logger,
		storage:   storage,
		store:     store,
		publisher: publisher,
		schema:    schema,
		now:       time.Now,
	}, nil
}

// Submit runs one submission end to end: parse, provision the applicant
// folder, upload each present file, assemble and persist the record.
// A failed upload drops its slot and never aborts the submission. No step
// is retried and uploads are not rolled back when a later step fails.
func (s *Service) Submit(ctx context.Context, sub *Submission) (*Result, error) {
	started := s.now()

	result, err := s.submit(ctx, sub)

	label := metrics.ResultSubmitted
	switch {
	case errors.Is(err, ErrBadInput):
		label = metrics.ResultBadInput
	case err != nil:
		label = metrics.ResultFailed
	case result.Replayed:
		label = metrics.ResultReplayed
	}
	metrics.SubmissionsTotal.WithLabelValues(label).Inc()
	metrics.SubmissionDuration.WithLabelValues(label).Observe(time.Since(started).Seconds())

	return result, err
}

func (s *Service) submit(ctx context.Context, sub *Submission) (*Result, error) {
	input, err := parseInput(sub.ApplicationData)
	if err != nil {
		s.logger.WithError(err).Error("invalid application data")
		return nil, err
	}

	now := s.now().UTC()
	applicationID := NewApplicationID(now)
	submissionID := NewSubmissionID(sub.IdempotencyKey)

	if sub.IdempotencyKey != "" {
		existing, err := s.store.ApplicationBySubmissionID(ctx, submissionID)
		switch {
		case err == nil:
			s.logger.WithFields(logrus.Fields{
				"application_id": existing.ApplicationID,
				"submission_id":  existing.SubmissionID,
			}).Info("replaying submission for idempotency key")
			return replayResult(existing), nil
		case !errors.Is(err, types.ErrApplicationNotFound):
			return nil, fmt.Errorf("look up idempotent submission: %w", err)
		}
	}

	entry := s.logger.WithFields(logrus.Fields{
		"application_id": applicationID,
		"submission_id":  submissionID,
	})
	entry.Info("processing application")

	ownerName := input.FullName
	if ownerName == "" {
		ownerName = unknownApplicant
	}

	folderRef, folderLink, err := s.storage.CreateContainer(ctx, applicationID, ownerName)
	if err != nil {
		entry.WithError(err).Error("failed to create applicant folder")
		return nil, fmt.Errorf("%w: %v", ErrContainer, err)
	}

	files, outcomes := s.uploadFiles(ctx, entry, folderRef, sub.Files)

	app := &types.Application{
		SubmissionID:  submissionID,
		ApplicationID: applicationID,
		FullName:      input.FullName,
		Nationality:   input.Nationality,
		DateOfBirth:   input.DateOfBirth,
		Email:         input.Email,
		ContactInfo: types.ContactInfo{
			CountryCode: input.CountryCode,
			PhoneNumber: input.PhoneNumber,
		},
		HasQatarResidence: input.HasQatarResidence,
		WorkExperience: types.WorkExperience{
			WorkedWithProtv:    input.WorkedWithProtv,
			LastProjectName:    input.LastProjectName,
			PreferredWorkTypes: input.PreferredWorkTypes,
			Position:           input.Position,
		},
		Files:                files,
		SubmissionDate:       s.now().UTC(),
		Status:               types.ApplicationStatusSubmitted,
		GoogleDriveFolderURL: folderLink,
	}
	app.SetResidence(types.ResidenceFromInput(input))

	if err := validateRecord(s.schema, app); err != nil {
		entry.WithError(err).Error("application record failed validation")
		return nil, err
	}

	if err := s.store.Insert(ctx, app); err != nil {
		if sub.IdempotencyKey != "" && errors.Is(err, types.ErrDuplicateApplication) {
			return s.replayConcurrent(ctx, entry, submissionID, err)
		}
		entry.WithError(err).Error("failed to save application")
		return nil, fmt.Errorf("%w: %v", ErrPersist, err)
	}

	entry.WithField("files", len(files)).Info("application submitted successfully")

	if s.publisher != nil {
		if err := s.publisher.PublishSubmitted(ctx, app); err != nil {
			entry.WithError(err).Warn("failed to publish submission event")
		}
	}

	return &Result{
		Confirmation: confirmationFor(app),
		Application:  app,
		Outcomes:     outcomes,
	}, nil
}

// replayConcurrent handles a retry that raced the first attempt for the same
// idempotency key: the first insert won, so its record is the answer. Files
// uploaded by this attempt stay in storage unreferenced.
func (s *Service) replayConcurrent(ctx context.Context, entry *logrus.Entry, submissionID string, insertErr error) (*Result, error) {
	existing, err := s.store.ApplicationBySubmissionID(ctx, submissionID)
	if err != nil {
		entry.WithError(err).Error("failed to load application after duplicate insert")
		return nil, fmt.Errorf("%w: %v", ErrPersist, insertErr)
	}

	entry.WithField("stored_application_id", existing.ApplicationID).
		Warn("concurrent submission for idempotency key, replaying stored record")
	return replayResult(existing), nil
}

// uploadFiles walks the slots in fixed order. Each slot is independent: a
// failure is logged, counted and leaves the slot out of the returned map.
func (s *Service) uploadFiles(ctx context.Context, entry *logrus.Entry, folderRef string, parts map[types.FileSlot]*File) (map[types.FileSlot]*types.FileDescriptor, map[types.FileSlot]types.SlotOutcome) {
	files := make(map[types.FileSlot]*types.FileDescriptor)
	outcomes := make(map[types.FileSlot]types.SlotOutcome, len(types.FileSlots))

	for _, slot := range types.FileSlots {
		part, ok := parts[slot]
		if !ok || part == nil || part.Size <= 0 {
			outcomes[slot] = types.SlotNotAttempted
			metrics.UploadOutcomes.WithLabelValues(string(slot), string(types.SlotNotAttempted)).Inc()
			continue
		}

		descriptor, err := s.uploadFile(ctx, folderRef, part)
		if err != nil {
			entry.WithError(err).WithFields(logrus.Fields{
				"slot":      slot,
				"file_name": part.Name,
			}).Error("failed to upload file")
			outcomes[slot] = types.SlotFailed
			metrics.UploadOutcomes.WithLabelValues(string(slot), string(types.SlotFailed)).Inc()
			continue
		}

		files[slot] = descriptor
		outcomes[slot] = types.SlotSucceeded
		metrics.UploadOutcomes.WithLabelValues(string(slot), string(types.SlotSucceeded)).Inc()
		entry.WithFields(logrus.Fields{
			"slot":      slot,
			"file_name": part.Name,
		}).Info("uploaded file")
	}

	return files, outcomes
}

func (s *Service) uploadFile(ctx context.Context, folderRef string, part *File) (*types.FileDescriptor, error) {
	if part.Open == nil {
		return nil, errors.New("file has no content")
	}

	rc, err := part.Open()
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer rc.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(rc); err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	mimeType := part.MimeType
	if mimeType == "" {
		mimeType = defaultMimeType
	}

	encoded := base64.StdEncoding.EncodeToString(buf.Bytes())

	descriptor, err := s.storage.Upload(ctx, encoded, part.Name, folderRef, mimeType)
	if err != nil {
		return nil, fmt.Errorf("upload file: %w", err)
	}
	if descriptor == nil {
		return nil, errors.New("upload returned no file descriptor")
	}

	return descriptor, nil
}

// parseInput rejects payloads that are not JSON at all as bad input. A JSON
// value that is not an application object is an invalid record instead.
func parseInput(data string) (*types.ApplicationInput, error) {
	raw := bytes.TrimSpace([]byte(data))
	if !json.Valid(raw) {
		return nil, ErrBadInput
	}

	if len(raw) == 0 || raw[0] != '{' {
		return nil, fmt.Errorf("%w: application data must be a JSON object", ErrInvalidRecord)
	}

	input := new(types.ApplicationInput)
	if err := json.Unmarshal(raw, input); err != nil {
		return nil, fmt.Errorf("%w: decode application data: %v", ErrInvalidRecord, err)
	}

	if input.PreferredWorkTypes == nil {
		input.PreferredWorkTypes = []string{}
	}

	return input, nil
}

func confirmationFor(app *types.Application) types.Confirmation {
	return types.Confirmation{
		Success:       true,
		Message:       confirmationMessage,
		ApplicationID: app.ApplicationID,
		SubmissionID:  app.SubmissionID,
	}
}

func replayResult(app *types.Application) *Result {
	outcomes := make(map[types.FileSlot]types.SlotOutcome, len(types.FileSlots))
	for _, slot := range types.FileSlots {
		outcomes[slot] = types.SlotNotAttempted
	}

	return &Result{
		Confirmation: confirmationFor(app),
		Application:  app,
		Outcomes:     outcomes,
		Replayed:     true,
	}
}
