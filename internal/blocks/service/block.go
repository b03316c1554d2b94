package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	blockserrors "gymsched/internal/blocks/errors"
	"gymsched/internal/blocks/repository"
	"gymsched/internal/blocks/validator"
	reservationsrepo "gymsched/internal/reservations/repository"
	trainerserrors "gymsched/internal/trainers/errors"
	trainersrepo "gymsched/internal/trainers/repository"
	"gymsched/pkg/config"
	apperrors "gymsched/pkg/errors"
	"gymsched/pkg/model"
	"gymsched/pkg/notifier"
	"gymsched/pkg/sanitizer"

	"go.mongodb.org/mongo-driver/mongo"
)

// CreateResult reports a block insertion and how many confirmed
// reservations its cascade moved to blocked.
type CreateResult struct {
	Block   *model.Block `json:"block"`
	Blocked int          `json:"blocked_reservations"`
}

// RemoveResult reports a block deletion and how many of its blocked
// reservations were restored to confirmed.
type RemoveResult struct {
	Restored int `json:"restored_reservations"`
}

type BlockService interface {
	Create(ctx context.Context, block *model.Block) (*CreateResult, error)
	Remove(ctx context.Context, id string) (*RemoveResult, error)
	BulkRemove(ctx context.Context, payload *model.BulkRemove) (int64, error)
	List(ctx context.Context, trainerID, date string, limit int, offset int64) ([]*model.Block, int64, error)
}

type blockService struct {
	repo            repository.BlockRepository
	reservationRepo reservationsrepo.ReservationRepository
	lockRepo        reservationsrepo.SlotLockRepository
	trainerRepo     trainersrepo.TrainerRepository
	validator       *validator.BlockValidator
	notify          notifier.Notifier
	cfg             *config.Config
}

func NewBlockService(
	repo repository.BlockRepository,
	reservationRepo reservationsrepo.ReservationRepository,
	lockRepo reservationsrepo.SlotLockRepository,
	trainerRepo trainersrepo.TrainerRepository,
	blockValidator *validator.BlockValidator,
	notify notifier.Notifier,
	cfg *config.Config,
) BlockService {
	return &blockService{
		repo:            repo,
		reservationRepo: reservationRepo,
		lockRepo:        lockRepo,
		trainerRepo:     trainerRepo,
		validator:       blockValidator,
		notify:          notify,
		cfg:             cfg,
	}
}

func (s *blockService) Create(ctx context.Context, block *model.Block) (*CreateResult, error) {
	s.applyDefaults(block)
	s.sanitize(block)

	if err := s.validator.Validate(block); err != nil {
		s.cfg.Log.Warn("Block validation failed", "error", err)
		return nil, apperrors.Validation("Block validation failed", map[string]any{"error": err.Error()})
	}
	if _, err := block.Interval(); err != nil {
		return nil, apperrors.InvalidInterval(fmt.Sprintf("Invalid time window %s-%s", block.Start, block.End))
	}

	if _, err := s.trainerRepo.FindByID(ctx, block.TrainerID); err != nil {
		if errors.Is(err, trainerserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Trainer", block.TrainerID)
		}
		if errors.Is(err, trainerserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid trainer ID format")
		}
		return nil, apperrors.Internal("Failed to look up trainer", err)
	}

	lockID, err := s.acquireSlotLock(ctx, block.TrainerID, block.Date)
	if err != nil {
		return nil, err
	}
	defer func() {
		if releaseErr := s.lockRepo.Delete(ctx, lockID); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release slot lock", "lock_id", lockID, "error", releaseErr)
		}
	}()

	var cascaded []*model.Reservation
	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.checkDuplicate(sessCtx, block); err != nil {
			return err
		}
		if err := s.repo.Create(sessCtx, block); err != nil {
			return apperrors.Internal("Failed to create block", err)
		}

		// Cascade: every confirmed reservation covered by the new block
		// is parked as blocked until the block is lifted.
		overlapping, err := s.reservationRepo.FindOverlapping(
			sessCtx, block.TrainerID, block.Date, block.Start, block.End,
			[]string{model.StatusConfirmed},
		)
		if err != nil {
			return apperrors.Internal("Failed to find reservations covered by block", err)
		}

		for _, reservation := range overlapping {
			if err := s.reservationRepo.UpdateStatus(sessCtx, reservation.ID, model.StatusBlocked); err != nil {
				return apperrors.Internal("Failed to block covered reservation", err)
			}
			cascaded = append(cascaded, reservation)
		}

		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create block", "error", err)
		return nil, err
	}

	s.cfg.Log.Info("Block created successfully",
		"id", block.ID,
		"trainer_id", block.TrainerID,
		"date", block.Date,
		"start", block.Start,
		"end", block.End,
		"blocked_reservations", len(cascaded),
	)

	for _, reservation := range cascaded {
		s.notify.Notify(ctx, notifier.Event{
			Kind:          notifier.EventReservationBlocked,
			UserID:        reservation.UserID,
			TrainerID:     reservation.TrainerID,
			ReservationID: reservation.ID,
			Date:          reservation.Date,
			Start:         reservation.Start,
			End:           reservation.End,
			Reason:        block.Reason,
		})
	}

	return &CreateResult{Block: block, Blocked: len(cascaded)}, nil
}

// Remove deletes a block and restores the reservations it parked,
// unless another block still covers them. Removing an already-removed
// block reports not found.
func (s *blockService) Remove(ctx context.Context, id string) (*RemoveResult, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Block ID cannot be empty")
	}

	block, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, blockserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Block", id)
		}
		if errors.Is(err, blockserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid block ID format")
		}
		return nil, apperrors.Internal("Failed to look up block", err)
	}

	lockID, err := s.acquireSlotLock(ctx, block.TrainerID, block.Date)
	if err != nil {
		return nil, err
	}
	defer func() {
		if releaseErr := s.lockRepo.Delete(ctx, lockID); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release slot lock", "lock_id", lockID, "error", releaseErr)
		}
	}()

	var restored []*model.Reservation
	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.repo.Delete(sessCtx, id); err != nil {
			if errors.Is(err, blockserrors.ErrNotFound) {
				return apperrors.NotFoundWithID("Block", id)
			}
			return apperrors.Internal("Failed to delete block", err)
		}

		parked, err := s.reservationRepo.FindOverlapping(
			sessCtx, block.TrainerID, block.Date, block.Start, block.End,
			[]string{model.StatusBlocked},
		)
		if err != nil {
			return apperrors.Internal("Failed to find reservations parked by block", err)
		}

		for _, reservation := range parked {
			// Restore only when no remaining block still covers the
			// reservation; overlapping blocks are allowed to coexist.
			remaining, err := s.repo.FindOverlapping(
				sessCtx, reservation.TrainerID, reservation.Date, reservation.Start, reservation.End,
			)
			if err != nil {
				return apperrors.Internal("Failed to re-scan remaining blocks", err)
			}
			if len(remaining) > 0 {
				continue
			}

			if err := s.reservationRepo.UpdateStatus(sessCtx, reservation.ID, model.StatusConfirmed); err != nil {
				return apperrors.Internal("Failed to restore reservation", err)
			}
			restored = append(restored, reservation)
		}

		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to remove block", "id", id, "error", err)
		return nil, err
	}

	s.cfg.Log.Info("Block removed successfully",
		"id", id,
		"trainer_id", block.TrainerID,
		"date", block.Date,
		"restored_reservations", len(restored),
	)

	for _, reservation := range restored {
		s.notify.Notify(ctx, notifier.Event{
			Kind:          notifier.EventReservationRestored,
			UserID:        reservation.UserID,
			TrainerID:     reservation.TrainerID,
			ReservationID: reservation.ID,
			Date:          reservation.Date,
			Start:         reservation.Start,
			End:           reservation.End,
		})
	}

	return &RemoveResult{Restored: len(restored)}, nil
}

// BulkRemove deletes blocks without restoring parked reservations; bulk
// cleanup is an administrative sweep, affected reservations stay parked
// until handled individually.
func (s *blockService) BulkRemove(ctx context.Context, payload *model.BulkRemove) (int64, error) {
	if err := s.validator.ValidateBulkRemove(payload); err != nil {
		s.cfg.Log.Warn("Bulk remove validation failed", "error", err)
		return 0, apperrors.Validation("Invalid bulk remove input", map[string]any{"error": err.Error()})
	}

	deleted, err := s.repo.DeleteMany(ctx, payload.IDs)
	if err != nil {
		if errors.Is(err, blockserrors.ErrInvalidID) {
			return 0, apperrors.InvalidInput("Invalid block ID in bulk remove")
		}
		s.cfg.Log.Error("Failed to bulk remove blocks", "error", err)
		return 0, apperrors.Internal("Failed to bulk remove blocks", err)
	}

	s.cfg.Log.Info("Blocks bulk removed",
		"requested", len(payload.IDs),
		"deleted", deleted,
	)
	return deleted, nil
}

func (s *blockService) List(ctx context.Context, trainerID, date string, limit int, offset int64) ([]*model.Block, int64, error) {
	var (
		count    int64
		blocks   []*model.Block
		errCount error
		errFind  error
		wg       sync.WaitGroup
	)
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.CountFiltered(ctx, trainerID, date)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count blocks", "error", errCount)
			errCount = apperrors.Internal("Failed to count blocks", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		blocks, errFind = s.repo.List(ctx, trainerID, date, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list blocks", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve blocks", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return blocks, count, nil
}

// --- Helpers ---

func (s *blockService) applyDefaults(b *model.Block) {
	if b.Status == "" {
		b.Status = model.BlockStatusActive
	}
}

func (s *blockService) sanitize(b *model.Block) {
	b.Reason = sanitizer.TrimAndNormalize(b.Reason)
	b.CreatedBy = sanitizer.NormalizeName(b.CreatedBy)
}

func (s *blockService) checkDuplicate(ctx context.Context, block *model.Block) error {
	existing, err := s.repo.FindOverlapping(ctx, block.TrainerID, block.Date, block.Start, block.End)
	if err != nil {
		return apperrors.Internal("Failed to check existing blocks", err)
	}
	for _, e := range existing {
		if e.Start == block.Start && e.End == block.End {
			return apperrors.DuplicateBlock(fmt.Sprintf(
				"An identical block already exists for this trainer (%s %s-%s)",
				block.Date, block.Start, block.End,
			))
		}
	}
	return nil
}

func (s *blockService) acquireSlotLock(ctx context.Context, trainerID, date string) (string, error) {
	lockID := reservationsrepo.SlotLockID(trainerID, date)

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
