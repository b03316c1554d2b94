package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	blocksrepo "gymsched/internal/blocks/repository"
	reservationserrors "gymsched/internal/reservations/errors"
	"gymsched/internal/reservations/repository"
	"gymsched/internal/reservations/validator"
	trainerserrors "gymsched/internal/trainers/errors"
	trainersrepo "gymsched/internal/trainers/repository"
	"gymsched/pkg/config"
	apperrors "gymsched/pkg/errors"
	"gymsched/pkg/model"
	"gymsched/pkg/notifier"
	"gymsched/pkg/sanitizer"
	"gymsched/pkg/schedule"

	"go.mongodb.org/mongo-driver/mongo"
)

// ValidationResult reports the outcome of the conflict pipeline. The
// weekly usage ceiling is advisory: exceeding it sets CapExceeded and a
// warning, never a rejection.
type ValidationResult struct {
	Valid          bool     `json:"valid"`
	WeeklyUsageMin int      `json:"weekly_usage_min"`
	WeeklyCapMin   int      `json:"weekly_cap_min"`
	CapExceeded    bool     `json:"cap_exceeded"`
	Warnings       []string `json:"warnings,omitempty"`
}

type ReservationService interface {
	Validate(ctx context.Context, reservation *model.Reservation) (*ValidationResult, error)
	Create(ctx context.Context, reservation *model.Reservation) (*ValidationResult, error)
	GetByID(ctx context.Context, id string) (*model.Reservation, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Reservation, int64, error)
	Search(ctx context.Context, trainerID, date string) ([]*model.Reservation, error)
	Reschedule(ctx context.Context, id string, payload *model.Reschedule) (*model.Reservation, *ValidationResult, error)
	UpdateStatus(ctx context.Context, id string, update *model.StatusUpdate) error
	BulkUpdateStatus(ctx context.Context, update *model.BulkStatusUpdate) (int64, error)
}

type reservationService struct {
	repo        repository.ReservationRepository
	lockRepo    repository.SlotLockRepository
	trainerRepo trainersrepo.TrainerRepository
	blockRepo   blocksrepo.BlockRepository
	validator   *validator.ReservationValidator
	resolver    *schedule.Resolver
	notify      notifier.Notifier
	cfg         *config.Config
	now         func() time.Time
}

func NewReservationService(
	repo repository.ReservationRepository,
	lockRepo repository.SlotLockRepository,
	trainerRepo trainersrepo.TrainerRepository,
	blockRepo blocksrepo.BlockRepository,
	resValidator *validator.ReservationValidator,
	resolver *schedule.Resolver,
	notify notifier.Notifier,
	cfg *config.Config,
) ReservationService {
	return &reservationService{
		repo:        repo,
		lockRepo:    lockRepo,
		trainerRepo: trainerRepo,
		blockRepo:   blockRepo,
		validator:   resValidator,
		resolver:    resolver,
		notify:      notify,
		cfg:         cfg,
		now:         time.Now,
	}
}

func (s *reservationService) Validate(ctx context.Context, reservation *model.Reservation) (*ValidationResult, error) {
	s.applyDefaults(reservation)
	s.sanitize(reservation)
	if err := s.validateStruct(reservation); err != nil {
		return nil, err
	}
	if err := s.checkSlot(ctx, reservation, ""); err != nil {
		return nil, err
	}
	return s.weeklyUsage(ctx, reservation, "")
}

func (s *reservationService) Create(ctx context.Context, reservation *model.Reservation) (*ValidationResult, error) {
	result, err := s.Validate(ctx, reservation)
	if err != nil {
		return nil, err
	}

	lockID, err := s.acquireSlotLock(ctx, reservation.TrainerID, reservation.Date)
	if err != nil {
		return nil, err
	}
	defer func() {
		if releaseErr := s.releaseSlotLock(ctx, lockID); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release slot lock", "lock_id", lockID, "error", releaseErr)
		}
	}()

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		// Re-check inside the transaction: another commit may have won
		// the slot between validation and lock acquisition.
		if err := s.checkConflicts(sessCtx, reservation, ""); err != nil {
			return err
		}
		if err := s.repo.Create(sessCtx, reservation); err != nil {
			return apperrors.Internal("Failed to create reservation", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create reservation", "error", err)
		return nil, err
	}

	s.cfg.Log.Info("Reservation created successfully",
		"id", reservation.ID,
		"user_id", reservation.UserID,
		"trainer_id", reservation.TrainerID,
		"date", reservation.Date,
		"start", reservation.Start,
	)

	s.notify.Notify(ctx, notifier.Event{
		Kind:          notifier.EventReservationCreated,
		UserID:        reservation.UserID,
		TrainerID:     reservation.TrainerID,
		ReservationID: reservation.ID,
		Date:          reservation.Date,
		Start:         reservation.Start,
		End:           reservation.End,
	})

	return result, nil
}

func (s *reservationService) GetByID(ctx context.Context, id string) (*model.Reservation, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Reservation ID cannot be empty")
	}

	reservation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, reservationserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Reservation", id)
		}
		if errors.Is(err, reservationserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid reservation ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve reservation", err)
	}

	return reservation, nil
}

func (s *reservationService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Reservation, int64, error) {
	var (
		count        int64
		reservations []*model.Reservation
		errCount     error
		errFind      error
		wg           sync.WaitGroup
	)
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count reservations", "error", errCount)
			errCount = apperrors.Internal("Failed to count reservations", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		reservations, errFind = s.repo.FindAll(ctx, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list reservations", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve reservations", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return reservations, count, nil
}

func (s *reservationService) Search(ctx context.Context, trainerID, date string) ([]*model.Reservation, error) {
	if trainerID == "" || date == "" {
		return nil, apperrors.InvalidInput("Both trainer_id and date are required")
	}

	reservations, err := s.repo.FindByTrainerAndDate(ctx, trainerID, date, nil)
	if err != nil {
		s.cfg.Log.Error("Failed to search reservations",
			"trainer_id", trainerID,
			"date", date,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to search reservations", err)
	}

	return reservations, nil
}

func (s *reservationService) Reschedule(ctx context.Context, id string, payload *model.Reschedule) (*model.Reservation, *ValidationResult, error) {
	if id == "" {
		return nil, nil, apperrors.InvalidInput("Reservation ID cannot be empty")
	}
	if err := s.validator.ValidateReschedule(payload); err != nil {
		s.cfg.Log.Warn("Reschedule validation failed", "id", id, "error", err)
		return nil, nil, apperrors.Validation("Invalid reschedule input", map[string]any{"error": err.Error()})
	}

	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if existing.Status != model.StatusConfirmed {
		return nil, nil, apperrors.Conflict(fmt.Sprintf("Only confirmed reservations can be rescheduled, current status: %s", existing.Status))
	}

	candidate := *existing
	candidate.Date = payload.Date
	candidate.Start = payload.Start
	candidate.End = payload.End
	if payload.TrainerID != "" {
		candidate.TrainerID = payload.TrainerID
	}

	if err := s.checkSlot(ctx, &candidate, id); err != nil {
		return nil, nil, err
	}
	// Project the member's weekly load at the new coordinates; the moved
	// reservation's old slot is excluded so it is not counted twice.
	result, err := s.weeklyUsage(ctx, &candidate, id)
	if err != nil {
		return nil, nil, err
	}

	lockID, err := s.acquireSlotLock(ctx, candidate.TrainerID, candidate.Date)
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		if releaseErr := s.releaseSlotLock(ctx, lockID); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release slot lock", "lock_id", lockID, "error", releaseErr)
		}
	}()

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.checkConflicts(sessCtx, &candidate, id); err != nil {
			return err
		}
		if err := s.repo.UpdateSlot(sessCtx, id, &candidate); err != nil {
			if errors.Is(err, reservationserrors.ErrNotFound) {
				return apperrors.NotFoundWithID("Reservation", id)
			}
			return apperrors.Internal("Failed to reschedule reservation", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to reschedule reservation", "id", id, "error", err)
		return nil, nil, err
	}

	s.cfg.Log.Info("Reservation rescheduled successfully",
		"id", id,
		"trainer_id", candidate.TrainerID,
		"date", candidate.Date,
		"start", candidate.Start,
	)

	s.notify.Notify(ctx, notifier.Event{
		Kind:          notifier.EventReservationRescheduled,
		UserID:        candidate.UserID,
		TrainerID:     candidate.TrainerID,
		ReservationID: id,
		Date:          candidate.Date,
		Start:         candidate.Start,
		End:           candidate.End,
	})

	return &candidate, result, nil
}

func (s *reservationService) UpdateStatus(ctx context.Context, id string, update *model.StatusUpdate) error {
	if id == "" {
		return apperrors.InvalidInput("Reservation ID cannot be empty")
	}
	if err := s.validator.ValidateStatusUpdate(update); err != nil {
		s.cfg.Log.Warn("Status update validation failed", "id", id, "error", err)
		return apperrors.Validation("Invalid status update input", map[string]any{"error": err.Error()})
	}

	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := checkTransition(existing.Status, update.Status); err != nil {
		return err
	}

	if err := s.repo.UpdateStatus(ctx, id, update.Status); err != nil {
		if errors.Is(err, reservationserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Reservation", id)
		}
		return apperrors.Internal("Failed to update reservation status", err)
	}

	s.cfg.Log.Info("Reservation status updated", "id", id, "from", existing.Status, "to", update.Status)

	kind := notifier.EventReservationCompleted
	if update.Status == model.StatusCancelled {
		kind = notifier.EventReservationCancelled
	}
	s.notify.Notify(ctx, notifier.Event{
		Kind:          kind,
		UserID:        existing.UserID,
		TrainerID:     existing.TrainerID,
		ReservationID: id,
		Date:          existing.Date,
		Start:         existing.Start,
		End:           existing.End,
	})

	return nil
}

func (s *reservationService) BulkUpdateStatus(ctx context.Context, update *model.BulkStatusUpdate) (int64, error) {
	if err := s.validator.ValidateBulkStatusUpdate(update); err != nil {
		s.cfg.Log.Warn("Bulk status update validation failed", "error", err)
		return 0, apperrors.Validation("Invalid bulk status update input", map[string]any{"error": err.Error()})
	}

	// Only confirmed reservations are eligible; others are skipped
	// silently so a batch is never all-or-nothing.
	fromStatuses := []string{model.StatusConfirmed}
	if update.Status == model.StatusCancelled {
		fromStatuses = append(fromStatuses, model.StatusBlocked)
	}

	modified, err := s.repo.UpdateStatusMany(ctx, update.IDs, fromStatuses, update.Status)
	if err != nil {
		if errors.Is(err, reservationserrors.ErrInvalidID) {
			return 0, apperrors.InvalidInput("Invalid reservation ID in bulk update")
		}
		s.cfg.Log.Error("Failed to bulk update reservation status", "error", err)
		return 0, apperrors.Internal("Failed to bulk update reservation status", err)
	}

	s.cfg.Log.Info("Bulk status update applied",
		"requested", len(update.IDs),
		"modified", modified,
		"status", update.Status,
	)
	return modified, nil
}

// --- Helpers ---

func (s *reservationService) applyDefaults(r *model.Reservation) {
	if r.Status == "" {
		r.Status = model.StatusConfirmed
	}
}

func (s *reservationService) sanitize(r *model.Reservation) {
	r.ClassType = sanitizer.NormalizeLabel(r.ClassType)
}

func (s *reservationService) validateStruct(r *model.Reservation) error {
	if err := s.validator.Validate(r); err != nil {
		s.cfg.Log.Warn("Reservation validation failed", "error", err)
		return apperrors.Validation("Reservation validation failed", map[string]any{"error": err.Error()})
	}
	return nil
}

// checkSlot runs the full conflict pipeline for a candidate slot:
// interval shape, minimum duration, trainer existence and shift
// containment, then stored conflicts (reservations and blocks).
func (s *reservationService) checkSlot(ctx context.Context, r *model.Reservation, excludeID string) error {
	iv, err := r.Interval()
	if err != nil {
		return apperrors.InvalidInterval(fmt.Sprintf("Invalid time window %s-%s", r.Start, r.End))
	}

	// Off-grid starts are allowed; only the minimum length is enforced
	// so overlap detection still runs for unaligned proposals.
	step := s.cfg.SlotStepMinutes
	if iv.DurationMin() < step {
		return apperrors.InvalidDuration(fmt.Sprintf(
			"Reservation must last at least %d minutes", step,
		))
	}

	trainer, err := s.trainerRepo.FindByID(ctx, r.TrainerID)
	if err != nil {
		if errors.Is(err, trainerserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Trainer", r.TrainerID)
		}
		if errors.Is(err, trainerserrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid trainer ID format")
		}
		return apperrors.Internal("Failed to look up trainer", err)
	}
	if trainer.Status != model.TrainerActive {
		return apperrors.TrainerUnavailable("Trainer is not active")
	}

	shift, source := s.resolver.Resolve(trainer.ShiftType, trainer.ShiftOverride())
	if source == schedule.SourceFallback {
		s.cfg.Log.Warn("Trainer has a malformed working-hours override, using shift template",
			"trainer_id", trainer.ID,
			"shift_type", trainer.ShiftType,
		)
	}

	if !shift.ContainsInterval(iv) {
		return apperrors.TrainerUnavailable(fmt.Sprintf(
			"Requested window %s is outside the trainer's working hours %s",
			iv, shift.Work,
		))
	}
	if shift.BreakIntersects(iv) {
		return apperrors.BreakTimeConflict(fmt.Sprintf(
			"Requested window %s overlaps the trainer's break %s",
			iv, shift.Break,
		))
	}

	return s.checkConflicts(ctx, r, excludeID)
}

// checkConflicts checks stored state only. It runs once during
// validation and again inside the commit transaction under the slot lock.
// Blocked reservations count as conflicts too: they still own their
// window and may be restored when the covering block lifts.
func (s *reservationService) checkConflicts(ctx context.Context, r *model.Reservation, excludeID string) error {
	existing, err := s.repo.FindOverlapping(ctx, r.TrainerID, r.Date, r.Start, r.End, []string{model.StatusConfirmed, model.StatusBlocked})
	if err != nil {
		return apperrors.Internal("Failed to check existing reservations", err)
	}
	for _, e := range existing {
		if e.ID == excludeID {
			continue
		}
		return apperrors.DoubleBooking(fmt.Sprintf(
			"Time window conflicts with an existing reservation (%s-%s)",
			e.Start, e.End,
		))
	}

	blocks, err := s.blockRepo.FindOverlapping(ctx, r.TrainerID, r.Date, r.Start, r.End)
	if err != nil {
		return apperrors.Internal("Failed to check trainer blocks", err)
	}
	if len(blocks) > 0 {
		b := blocks[0]
		return apperrors.TrainerUnavailable(fmt.Sprintf(
			"Trainer is blocked during %s-%s (%s)",
			b.Start, b.End, b.Reason,
		))
	}

	return nil
}

// weeklyUsage sums the user's confirmed reservation minutes in the ISO
// week of the candidate date, candidate included.
func (s *reservationService) weeklyUsage(ctx context.Context, r *model.Reservation, excludeID string) (*ValidationResult, error) {
	day, err := time.Parse(time.DateOnly, r.Date)
	if err != nil {
		return nil, apperrors.InvalidInput(fmt.Sprintf("Invalid date: %s", r.Date))
	}

	monday := startOfISOWeek(day)
	sunday := monday.AddDate(0, 0, 6)

	reservations, err := s.repo.FindByUserAndDateRange(
		ctx,
		r.UserID,
		monday.Format(time.DateOnly),
		sunday.Format(time.DateOnly),
		[]string{model.StatusConfirmed},
	)
	if err != nil {
		return nil, apperrors.Internal("Failed to compute weekly usage", err)
	}

	usage := 0
	for _, e := range reservations {
		if e.ID == excludeID {
			continue
		}
		if iv, err := e.Interval(); err == nil {
			usage += iv.DurationMin()
		}
	}

	candidate, _ := r.Interval()
	usage += candidate.DurationMin()

	result := &ValidationResult{
		Valid:          true,
		WeeklyUsageMin: usage,
		WeeklyCapMin:   s.cfg.WeeklyCapHours * 60,
	}
	if usage > result.WeeklyCapMin {
		result.CapExceeded = true
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"Weekly training time %dm exceeds the recommended cap of %dh",
			usage, s.cfg.WeeklyCapHours,
		))
		s.cfg.Log.Warn("Weekly cap exceeded",
			"user_id", r.UserID,
			"usage_min", usage,
			"cap_hours", s.cfg.WeeklyCapHours,
		)
	}

	return result, nil
}

func startOfISOWeek(day time.Time) time.Time {
	weekday := int(day.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	return day.AddDate(0, 0, 1-weekday)
}

func checkTransition(from, to string) error {
	switch from {
	case model.StatusConfirmed:
		return nil
	case model.StatusBlocked:
		if to == model.StatusCancelled {
			return nil
		}
	}
	return apperrors.Conflict(fmt.Sprintf("Cannot transition reservation from %s to %s", from, to))
}

// acquireSlotLock serializes booking commits per (trainer, date).
// Returns conflict if another commit holds the lock.
func (s *reservationService) acquireSlotLock(ctx context.Context, trainerID, date string) (string, error) {
	lockID := repository.SlotLockID(trainerID, date)

	lock := &model.SlotLock{
		ID:        lockID,
		ExpiresAt: time.Now().Add(s.cfg.SlotLockTTL),
	}

	_, err := s.lockRepo.Create(ctx, lock)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", apperrors.Conflict("This trainer's schedule is currently being modified by another request. Please try again.")
		}
		return "", apperrors.Internal("Failed to acquire slot lock", err)
	}

	return lockID, nil
}

func (s *reservationService) releaseSlotLock(ctx context.Context, lockID string) error {
	return s.lockRepo.Delete(ctx, lockID)
}
