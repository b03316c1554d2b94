package service

import (
	"context"
	"testing"
	"time"

	blockserrors "gymsched/internal/blocks/errors"
	"gymsched/internal/blocks/validator"
	"gymsched/pkg/config"
	mongotx "gymsched/pkg/db/mongo"
	apperrors "gymsched/pkg/errors"
	"gymsched/pkg/logger"
	"gymsched/pkg/model"
	"gymsched/pkg/notifier"

	"go.mongodb.org/mongo-driver/mongo"
)

const (
	testTrainerID = "64a1f0c2b3d4e5f601234568"
	testBlockID   = "64a1f0c2b3d4e5f60123456a"
	testResID     = "64a1f0c2b3d4e5f601234569"
	testResID2    = "64a1f0c2b3d4e5f60123456b"
	testUserID    = "64a1f0c2b3d4e5f601234567"
)

// Mock repositories for testing

type mockBlockRepository struct {
	createFunc           func(ctx context.Context, block *model.Block) error
	findByIDFunc         func(ctx context.Context, id string) (*model.Block, error)
	findByTrainerAndDate func(ctx context.Context, trainerID, date string) ([]*model.Block, error)
	findOverlappingFunc  func(ctx context.Context, trainerID, date, start, end string) ([]*model.Block, error)
	listFunc             func(ctx context.Context, trainerID, date string, limit int, offset int64) ([]*model.Block, error)
	countFilteredFunc    func(ctx context.Context, trainerID, date string) (int64, error)
	deleteFunc           func(ctx context.Context, id string) error
	deleteManyFunc       func(ctx context.Context, ids []string) (int64, error)
}

func (m *mockBlockRepository) Create(ctx context.Context, block *model.Block) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, block)
	}
	block.ID = testBlockID
	return nil
}

func (m *mockBlockRepository) FindByID(ctx context.Context, id string) (*model.Block, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, blockserrors.ErrNotFound
}

func (m *mockBlockRepository) FindByTrainerAndDate(ctx context.Context, trainerID, date string) ([]*model.Block, error) {
	if m.findByTrainerAndDate != nil {
		return m.findByTrainerAndDate(ctx, trainerID, date)
	}
	return []*model.Block{}, nil
}

func (m *mockBlockRepository) FindOverlapping(ctx context.Context, trainerID, date, start, end string) ([]*model.Block, error) {
	if m.findOverlappingFunc != nil {
		return m.findOverlappingFunc(ctx, trainerID, date, start, end)
	}
	return []*model.Block{}, nil
}

func (m *mockBlockRepository) List(ctx context.Context, trainerID, date string, limit int, offset int64) ([]*model.Block, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, trainerID, date, limit, offset)
	}
	return []*model.Block{}, nil
}

func (m *mockBlockRepository) CountFiltered(ctx context.Context, trainerID, date string) (int64, error) {
	if m.countFilteredFunc != nil {
		return m.countFilteredFunc(ctx, trainerID, date)
	}
	return 0, nil
}

func (m *mockBlockRepository) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func (m *mockBlockRepository) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	if m.deleteManyFunc != nil {
		return m.deleteManyFunc(ctx, ids)
	}
	return int64(len(ids)), nil
}

func (m *mockBlockRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(mongo.NewSessionContext(ctx, nil))
}

type mockReservationRepository struct {
	findOverlappingFunc func(ctx context.Context, trainerID, date, start, end string, statuses []string) ([]*model.Reservation, error)
	updateStatusFunc    func(ctx context.Context, id, status string) error
}

func (m *mockReservationRepository) Create(ctx context.Context, r *model.Reservation) error {
	return nil
}

func (m *mockReservationRepository) FindByID(ctx context.Context, id string) (*model.Reservation, error) {
	return nil, nil
}

func (m *mockReservationRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Reservation, error) {
	return []*model.Reservation{}, nil
}

func (m *mockReservationRepository) Count(ctx context.Context) (int64, error) {
	return 0, nil
}

func (m *mockReservationRepository) FindByTrainerAndDate(ctx context.Context, trainerID, date string, statuses []string) ([]*model.Reservation, error) {
	return []*model.Reservation{}, nil
}

func (m *mockReservationRepository) FindOverlapping(ctx context.Context, trainerID, date, start, end string, statuses []string) ([]*model.Reservation, error) {
	if m.findOverlappingFunc != nil {
		return m.findOverlappingFunc(ctx, trainerID, date, start, end, statuses)
	}
	return []*model.Reservation{}, nil
}

func (m *mockReservationRepository) FindByUserAndDateRange(ctx context.Context, userID, fromDate, toDate string, statuses []string) ([]*model.Reservation, error) {
	return []*model.Reservation{}, nil
}

func (m *mockReservationRepository) UpdateSlot(ctx context.Context, id string, r *model.Reservation) error {
	return nil
}

func (m *mockReservationRepository) UpdateStatus(ctx context.Context, id, status string) error {
	if m.updateStatusFunc != nil {
		return m.updateStatusFunc(ctx, id, status)
	}
	return nil
}

func (m *mockReservationRepository) UpdateStatusMany(ctx context.Context, ids []string, fromStatuses []string, status string) (int64, error) {
	return int64(len(ids)), nil
}

func (m *mockReservationRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(mongo.NewSessionContext(ctx, nil))
}

type mockSlotLockRepository struct {
	createFunc func(ctx context.Context, lock *model.SlotLock) (*model.SlotLock, error)
	deleteFunc func(ctx context.Context, lockID string) error
}

func (m *mockSlotLockRepository) Create(ctx context.Context, lock *model.SlotLock) (*model.SlotLock, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, lock)
	}
	return lock, nil
}

func (m *mockSlotLockRepository) Delete(ctx context.Context, lockID string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, lockID)
	}
	return nil
}

type mockTrainerRepository struct {
	findByIDFunc func(ctx context.Context, id string) (*model.Trainer, error)
}

func (m *mockTrainerRepository) FindByID(ctx context.Context, id string) (*model.Trainer, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return &model.Trainer{ID: id, Name: "Trainer", Status: model.TrainerActive}, nil
}

func (m *mockTrainerRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Trainer, error) {
	return []*model.Trainer{}, nil
}

func (m *mockTrainerRepository) FindActive(ctx context.Context) ([]*model.Trainer, error) {
	return []*model.Trainer{}, nil
}

func (m *mockTrainerRepository) Count(ctx context.Context) (int64, error) {
	return 0, nil
}

func newTestService(t *testing.T, blockRepo *mockBlockRepository, resRepo *mockReservationRepository) *blockService {
	t.Helper()
	cfg := &config.Config{
		Log: logger.New(logger.Config{
			Level:   "error",
			Format:  logger.JSON,
			Service: "test",
		}),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		SlotLockTTL:  time.Minute,
	}

	if blockRepo == nil {
		blockRepo = &mockBlockRepository{}
	}
	if resRepo == nil {
		resRepo = &mockReservationRepository{}
	}

	return &blockService{
		repo:            blockRepo,
		reservationRepo: resRepo,
		lockRepo:        &mockSlotLockRepository{},
		trainerRepo:     &mockTrainerRepository{},
		validator:       validator.NewBlockValidator(cfg.Log),
		notify:          notifier.NewNoopNotifier(),
		cfg:             cfg,
	}
}

func validBlock() *model.Block {
	return &model.Block{
		TrainerID: testTrainerID,
		Date:      "2026-09-07",
		Start:     "10:00",
		End:       "12:00",
		Reason:    "equipment maintenance",
		CreatedBy: "front desk",
	}
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %s, got nil", code)
	}
	appErr := apperrors.AsAppError(err)
	if appErr == nil {
		t.Fatalf("expected AppError with code %s, got %v", code, err)
	}
	if appErr.Code != code {
		t.Errorf("expected code %s, got %s (%s)", code, appErr.Code, appErr.Message)
	}
}

func TestCreate_CascadesConfirmedReservations(t *testing.T) {
	flipped := map[string]string{}
	resRepo := &mockReservationRepository{
		findOverlappingFunc: func(ctx context.Context, trainerID, date, start, end string, statuses []string) ([]*model.Reservation, error) {
			return []*model.Reservation{
				{ID: testResID, UserID: testUserID, TrainerID: trainerID, Date: date, Start: "10:00", End: "11:00", Status: model.StatusConfirmed},
				{ID: testResID2, UserID: testUserID, TrainerID: trainerID, Date: date, Start: "11:00", End: "12:00", Status: model.StatusConfirmed},
			}, nil
		},
		updateStatusFunc: func(ctx context.Context, id, status string) error {
			flipped[id] = status
			return nil
		},
	}
	svc := newTestService(t, nil, resRepo)

	result, err := svc.Create(context.Background(), validBlock())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Blocked != 2 {
		t.Errorf("expected 2 blocked reservations, got %d", result.Blocked)
	}
	if flipped[testResID] != model.StatusBlocked || flipped[testResID2] != model.StatusBlocked {
		t.Errorf("expected both reservations flipped to blocked, got %v", flipped)
	}
}

func TestCreate_DuplicateRejected(t *testing.T) {
	blockRepo := &mockBlockRepository{
		findOverlappingFunc: func(ctx context.Context, trainerID, date, start, end string) ([]*model.Block, error) {
			return []*model.Block{
				{ID: testBlockID, TrainerID: trainerID, Date: date, Start: "10:00", End: "12:00"},
			}, nil
		},
	}
	svc := newTestService(t, blockRepo, nil)

	_, err := svc.Create(context.Background(), validBlock())
	assertCode(t, err, apperrors.CodeDuplicateBlock)
}

func TestCreate_OverlappingButNotIdenticalAllowed(t *testing.T) {
	blockRepo := &mockBlockRepository{
		findOverlappingFunc: func(ctx context.Context, trainerID, date, start, end string) ([]*model.Block, error) {
			return []*model.Block{
				{ID: testBlockID, TrainerID: trainerID, Date: date, Start: "11:00", End: "13:00"},
			}, nil
		},
	}
	svc := newTestService(t, blockRepo, nil)

	result, err := svc.Create(context.Background(), validBlock())
	if err != nil {
		t.Fatalf("overlapping blocks must coexist, got error: %v", err)
	}
	if result.Block.Status != model.BlockStatusActive {
		t.Errorf("expected default status %s, got %s", model.BlockStatusActive, result.Block.Status)
	}
}

func TestCreate_InvalidWindow(t *testing.T) {
	svc := newTestService(t, nil, nil)

	b := validBlock()
	b.Start = "12:00"
	b.End = "10:00"

	_, err := svc.Create(context.Background(), b)
	assertCode(t, err, apperrors.CodeValidation)
}

func TestRemove_RestoresUncoveredReservations(t *testing.T) {
	restored := map[string]string{}
	blockRepo := &mockBlockRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Block, error) {
			b := validBlock()
			b.ID = id
			return b, nil
		},
		// After deletion only 11:00-12:00 is still covered by a
		// second block.
		findOverlappingFunc: func(ctx context.Context, trainerID, date, start, end string) ([]*model.Block, error) {
			if start < "12:00" && end > "11:00" {
				return []*model.Block{
					{ID: "64a1f0c2b3d4e5f60123456c", Start: "11:00", End: "13:00"},
				}, nil
			}
			return []*model.Block{}, nil
		},
	}
	resRepo := &mockReservationRepository{
		findOverlappingFunc: func(ctx context.Context, trainerID, date, start, end string, statuses []string) ([]*model.Reservation, error) {
			return []*model.Reservation{
				{ID: testResID, UserID: testUserID, Start: "10:00", End: "11:00", Status: model.StatusBlocked},
				{ID: testResID2, UserID: testUserID, Start: "11:00", End: "12:00", Status: model.StatusBlocked},
			}, nil
		},
		updateStatusFunc: func(ctx context.Context, id, status string) error {
			restored[id] = status
			return nil
		},
	}
	svc := newTestService(t, blockRepo, resRepo)

	result, err := svc.Remove(context.Background(), testBlockID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Restored != 1 {
		t.Errorf("expected 1 restored reservation, got %d", result.Restored)
	}
	if restored[testResID] != model.StatusConfirmed {
		t.Errorf("expected %s restored to confirmed, got %v", testResID, restored)
	}
	if _, touched := restored[testResID2]; touched {
		t.Error("reservation still covered by another block must stay blocked")
	}
}

func TestRemove_NotFound(t *testing.T) {
	svc := newTestService(t, nil, nil)

	_, err := svc.Remove(context.Background(), testBlockID)
	assertCode(t, err, apperrors.CodeNotFound)
}

func TestRemove_SecondRemovalReportsNotFound(t *testing.T) {
	blockRepo := &mockBlockRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Block, error) {
			b := validBlock()
			b.ID = id
			return b, nil
		},
		deleteFunc: func(ctx context.Context, id string) error {
			return blockserrors.ErrNotFound
		},
	}
	svc := newTestService(t, blockRepo, nil)

	_, err := svc.Remove(context.Background(), testBlockID)
	assertCode(t, err, apperrors.CodeNotFound)
}

func TestBulkRemove_NoRestoreCascade(t *testing.T) {
	statusTouched := false
	resRepo := &mockReservationRepository{
		updateStatusFunc: func(ctx context.Context, id, status string) error {
			statusTouched = true
			return nil
		},
	}
	var deletedIDs []string
	blockRepo := &mockBlockRepository{
		deleteManyFunc: func(ctx context.Context, ids []string) (int64, error) {
			deletedIDs = ids
			return int64(len(ids)), nil
		},
	}
	svc := newTestService(t, blockRepo, resRepo)

	deleted, err := svc.BulkRemove(context.Background(), &model.BulkRemove{
		IDs: []string{testBlockID},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != 1 {
		t.Errorf("expected 1 deleted, got %d", deleted)
	}
	if len(deletedIDs) != 1 || deletedIDs[0] != testBlockID {
		t.Errorf("unexpected ids passed to DeleteMany: %v", deletedIDs)
	}
	if statusTouched {
		t.Error("bulk removal must not restore reservations")
	}
}

func TestBulkRemove_EmptyIDs(t *testing.T) {
	svc := newTestService(t, nil, nil)

	_, err := svc.BulkRemove(context.Background(), &model.BulkRemove{IDs: []string{}})
	assertCode(t, err, apperrors.CodeValidation)
}
