package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/deens-academy/timetable-api/internal/models"
	appErrors "github.com/deens-academy/timetable-api/pkg/errors"
)

type timetableRepository interface {
	ListBySection(ctx context.Context, classSection string) ([]models.TimetableCellDetail, error)
	FindBySlot(ctx context.Context, classSection string, day, period int) (*models.TimetableCell, error)
	Create(ctx context.Context, cell *models.TimetableCell) error
	UpdateSubject(ctx context.Context, id, subjectID string) error
	Delete(ctx context.Context, id string) error
	DeleteBySection(ctx context.Context, classSection string) error
	CreateBatch(ctx context.Context, cells []models.TimetableCell) error
}

type subjectReader interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
	ListBySection(ctx context.Context, classSection string) ([]models.Subject, error)
}

type changeRecorder interface {
	CreateChange(ctx context.Context, change *models.TimetableChange) error
	Enqueue(ctx context.Context, notification *models.EmailNotification) error
}

// SetCellRequest assigns a subject to one slot.
type SetCellRequest struct {
	Day       int    `json:"day" validate:"required,min=1,max=5"`
	Period    int    `json:"period" validate:"required,min=1,max=8"`
	SubjectID string `json:"subject_id" validate:"required"`
}

// SlotAssignment is one non-empty cell of a bulk save payload.
type SlotAssignment struct {
	Day       int    `json:"day" validate:"required,min=1,max=5"`
	Period    int    `json:"period" validate:"required,min=1,max=8"`
	SubjectID string `json:"subject_id" validate:"required"`
}

// BulkSaveRequest replaces a section's whole grid.
type BulkSaveRequest struct {
	Cells []SlotAssignment `json:"cells" validate:"dive"`
}

// TimetableService manages the weekly day x period grid of one class
// section. Slot occupancy is enforced by check-before-write, so
// concurrent writers to one slot race under last-writer-wins.
type TimetableService struct {
	repo      timetableRepository
	subjects  subjectReader
	changes   changeRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTimetableService constructs TimetableService.
func NewTimetableService(repo timetableRepository, subjects subjectReader, changes changeRecorder, validate *validator.Validate, logger *zap.Logger) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableService{repo: repo, subjects: subjects, changes: changes, validator: validate, logger: logger}
}

// GetGrid builds the day -> period -> subject mapping for a class
// section. Built fresh on every read; absent keys are empty slots.
func (s *TimetableService) GetGrid(ctx context.Context, classSection string) (models.Grid, error) {
	cells, err := s.repo.ListBySection(ctx, classSection)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}

	grid := make(models.Grid)
	for _, cell := range cells {
		grid.Set(cell.Day, cell.Period, models.GridEntry{
			SubjectID:   cell.SubjectID,
			SubjectName: cell.SubjectName,
		})
	}
	return grid, nil
}

// SetCell assigns a subject to a slot: update when the slot is occupied,
// insert when it is empty. Writes to the same slot are last-writer-wins.
func (s *TimetableService) SetCell(ctx context.Context, classSection string, req SetCellRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid cell payload")
	}

	subject, err := s.loadOwnedSubject(ctx, classSection, req.SubjectID)
	if err != nil {
		return err
	}

	existing, err := s.repo.FindBySlot(ctx, classSection, req.Day, req.Period)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check slot")
	}

	var oldSubjectID *string
	if existing != nil {
		if existing.SubjectID == req.SubjectID {
			return nil // idempotent: same subject already in the slot
		}
		old := existing.SubjectID
		oldSubjectID = &old
		if err := s.repo.UpdateSubject(ctx, existing.ID, req.SubjectID); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update slot")
		}
	} else {
		cell := &models.TimetableCell{
			ClassSection: classSection,
			Day:          req.Day,
			Period:       req.Period,
			SubjectID:    req.SubjectID,
		}
		if err := s.repo.Create(ctx, cell); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fill slot")
		}
	}

	newSubjectID := req.SubjectID
	s.recordChange(ctx, &models.TimetableChange{
		ClassSection: classSection,
		Day:          req.Day,
		Period:       req.Period,
		OldSubjectID: oldSubjectID,
		NewSubjectID: &newSubjectID,
	}, fmt.Sprintf("%s period %d is now %s", models.WeekdayName(req.Day), req.Period, subject.Name))

	return nil
}

// ClearCell empties a slot. Clearing an already-empty slot is a no-op.
func (s *TimetableService) ClearCell(ctx context.Context, classSection string, day, period int) error {
	if !models.ValidSlot(day, period) {
		return appErrors.Clone(appErrors.ErrValidation, "day must be 1-5 and period 1-8")
	}

	existing, err := s.repo.FindBySlot(ctx, classSection, day, period)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check slot")
	}

	if err := s.repo.Delete(ctx, existing.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear slot")
	}

	old := existing.SubjectID
	s.recordChange(ctx, &models.TimetableChange{
		ClassSection: classSection,
		Day:          day,
		Period:       period,
		OldSubjectID: &old,
	}, fmt.Sprintf("%s period %d was cleared", models.WeekdayName(day), period))

	return nil
}

// BulkSave replaces the whole grid of a class section: delete everything,
// then insert the non-empty set. The two steps are deliberately separate
// statements with no surrounding transaction; if the insert fails the
// section's timetable is left empty and the error says so.
func (s *TimetableService) BulkSave(ctx context.Context, classSection string, req BulkSaveRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable payload")
	}

	owned, err := s.subjects.ListBySection(ctx, classSection)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subjects")
	}
	ownedByID := make(map[string]struct{}, len(owned))
	for _, subject := range owned {
		ownedByID[subject.ID] = struct{}{}
	}

	// Last assignment per slot wins within one payload.
	bySlot := make(map[[2]int]SlotAssignment, len(req.Cells))
	for _, cell := range req.Cells {
		if !models.ValidSlot(cell.Day, cell.Period) {
			return appErrors.Clone(appErrors.ErrValidation, "day must be 1-5 and period 1-8")
		}
		if _, ok := ownedByID[cell.SubjectID]; !ok {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("subject %s does not belong to %s", cell.SubjectID, classSection))
		}
		bySlot[[2]int{cell.Day, cell.Period}] = cell
	}

	before, err := s.repo.ListBySection(ctx, classSection)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}

	if err := s.repo.DeleteBySection(ctx, classSection); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear timetable")
	}

	cells := make([]models.TimetableCell, 0, len(bySlot))
	for _, assignment := range bySlot {
		cells = append(cells, models.TimetableCell{
			ClassSection: classSection,
			Day:          assignment.Day,
			Period:       assignment.Period,
			SubjectID:    assignment.SubjectID,
		})
	}
	if err := s.repo.CreateBatch(ctx, cells); err != nil {
		s.logger.Error("bulk save insert failed after delete; timetable left empty",
			zap.String("class_section", classSection), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save timetable; the previous timetable was already removed")
	}

	s.recordBulkDiff(ctx, classSection, before, bySlot)
	return nil
}

func (s *TimetableService) loadOwnedSubject(ctx context.Context, classSection, subjectID string) (*models.Subject, error) {
	subject, err := s.subjects.FindByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	if subject.ClassSection != classSection {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "subject belongs to another class")
	}
	return subject, nil
}

// recordChange appends a change-log row and queues one email
// notification. Recording failures are logged, never surfaced: the grid
// write already succeeded.
func (s *TimetableService) recordChange(ctx context.Context, change *models.TimetableChange, summary string) {
	if err := s.changes.CreateChange(ctx, change); err != nil {
		s.logger.Warn("failed to record timetable change", zap.Error(err))
	}
	if err := s.changes.Enqueue(ctx, &models.EmailNotification{
		ClassSection:     change.ClassSection,
		ChangeSummary:    summary,
		NotificationLink: "View timetable in student dashboard",
	}); err != nil {
		s.logger.Warn("failed to queue change notification", zap.Error(err))
	}
}

// recordBulkDiff diffs the pre-save grid against the saved set and
// records one change row per touched slot plus a single queued
// notification for the batch.
func (s *TimetableService) recordBulkDiff(ctx context.Context, classSection string, before []models.TimetableCellDetail, after map[[2]int]SlotAssignment) {
	oldBySlot := make(map[[2]int]string, len(before))
	for _, cell := range before {
		oldBySlot[[2]int{cell.Day, cell.Period}] = cell.SubjectID
	}

	touched := 0
	for slot, assignment := range after {
		oldID, had := oldBySlot[slot]
		if had && oldID == assignment.SubjectID {
			continue
		}
		newID := assignment.SubjectID
		change := &models.TimetableChange{
			ClassSection: classSection,
			Day:          slot[0],
			Period:       slot[1],
			NewSubjectID: &newID,
		}
		if had {
			old := oldID
			change.OldSubjectID = &old
		}
		if err := s.changes.CreateChange(ctx, change); err != nil {
			s.logger.Warn("failed to record timetable change", zap.Error(err))
		}
		touched++
	}
	for slot, oldID := range oldBySlot {
		if _, still := after[slot]; still {
			continue
		}
		old := oldID
		if err := s.changes.CreateChange(ctx, &models.TimetableChange{
			ClassSection: classSection,
			Day:          slot[0],
			Period:       slot[1],
			OldSubjectID: &old,
		}); err != nil {
			s.logger.Warn("failed to record timetable change", zap.Error(err))
		}
		touched++
	}

	if touched == 0 {
		return
	}
	if err := s.changes.Enqueue(ctx, &models.EmailNotification{
		ClassSection:     classSection,
		ChangeSummary:    "Timetable has been updated",
		NotificationLink: "View timetable in student dashboard",
	}); err != nil {
		s.logger.Warn("failed to queue change notification", zap.Error(err))
	}
}
