package service

import (
	"context"
	"testing"
	"time"

	trainerserrors "gymsched/internal/trainers/errors"
	"gymsched/pkg/config"
	mongotx "gymsched/pkg/db/mongo"
	apperrors "gymsched/pkg/errors"
	"gymsched/pkg/logger"
	"gymsched/pkg/model"
	"gymsched/pkg/schedule"

	"go.mongodb.org/mongo-driver/mongo"
)

const (
	testUserID     = "64a1f0c2b3d4e5f601234567"
	testTrainerID  = "64a1f0c2b3d4e5f601234568"
	testTrainerID2 = "64a1f0c2b3d4e5f60123456c"
)

type mockReservationRepository struct {
	findByTrainerAndDateFunc   func(ctx context.Context, trainerID, date string, statuses []string) ([]*model.Reservation, error)
	findOverlappingFunc        func(ctx context.Context, trainerID, date, start, end string, statuses []string) ([]*model.Reservation, error)
	findByUserAndDateRangeFunc func(ctx context.Context, userID, fromDate, toDate string, statuses []string) ([]*model.Reservation, error)
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
	if m.findByTrainerAndDateFunc != nil {
		return m.findByTrainerAndDateFunc(ctx, trainerID, date, statuses)
	}
	return []*model.Reservation{}, nil
}

func (m *mockReservationRepository) FindOverlapping(ctx context.Context, trainerID, date, start, end string, statuses []string) ([]*model.Reservation, error) {
	if m.findOverlappingFunc != nil {
		return m.findOverlappingFunc(ctx, trainerID, date, start, end, statuses)
	}
	return []*model.Reservation{}, nil
}

func (m *mockReservationRepository) FindByUserAndDateRange(ctx context.Context, userID, fromDate, toDate string, statuses []string) ([]*model.Reservation, error) {
	if m.findByUserAndDateRangeFunc != nil {
		return m.findByUserAndDateRangeFunc(ctx, userID, fromDate, toDate, statuses)
	}
	return []*model.Reservation{}, nil
}

func (m *mockReservationRepository) UpdateSlot(ctx context.Context, id string, r *model.Reservation) error {
	return nil
}

func (m *mockReservationRepository) UpdateStatus(ctx context.Context, id, status string) error {
	return nil
}

func (m *mockReservationRepository) UpdateStatusMany(ctx context.Context, ids []string, fromStatuses []string, status string) (int64, error) {
	return 0, nil
}

func (m *mockReservationRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(mongo.NewSessionContext(ctx, nil))
}

type mockBlockRepository struct {
	findByTrainerAndDate func(ctx context.Context, trainerID, date string) ([]*model.Block, error)
	findOverlappingFunc  func(ctx context.Context, trainerID, date, start, end string) ([]*model.Block, error)
}

func (m *mockBlockRepository) Create(ctx context.Context, block *model.Block) error {
	return nil
}

func (m *mockBlockRepository) FindByID(ctx context.Context, id string) (*model.Block, error) {
	return nil, nil
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
	return []*model.Block{}, nil
}

func (m *mockBlockRepository) CountFiltered(ctx context.Context, trainerID, date string) (int64, error) {
	return 0, nil
}

func (m *mockBlockRepository) Delete(ctx context.Context, id string) error {
	return nil
}

func (m *mockBlockRepository) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	return 0, nil
}

func (m *mockBlockRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(mongo.NewSessionContext(ctx, nil))
}

type mockTrainerRepository struct {
	findByIDFunc   func(ctx context.Context, id string) (*model.Trainer, error)
	findActiveFunc func(ctx context.Context) ([]*model.Trainer, error)
}

func (m *mockTrainerRepository) FindByID(ctx context.Context, id string) (*model.Trainer, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return &model.Trainer{ID: id, Name: "Trainer", ShiftType: schedule.ShiftMorning, Status: model.TrainerActive}, nil
}

func (m *mockTrainerRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Trainer, error) {
	return []*model.Trainer{}, nil
}

func (m *mockTrainerRepository) FindActive(ctx context.Context) ([]*model.Trainer, error) {
	if m.findActiveFunc != nil {
		return m.findActiveFunc(ctx)
	}
	return []*model.Trainer{}, nil
}

func (m *mockTrainerRepository) Count(ctx context.Context) (int64, error) {
	return 0, nil
}

func newTestService(t *testing.T, resRepo *mockReservationRepository, blockRepo *mockBlockRepository, trainerRepo *mockTrainerRepository) *availabilityService {
	t.Helper()
	cfg := &config.Config{
		Log: logger.New(logger.Config{
			Level:   "error",
			Format:  logger.JSON,
			Service: "test",
		}),
		ReadTimeout:     5 * time.Second,
		SlotStepMinutes: 60,
		WeeklyCapHours:  10,
	}
	resolver, err := schedule.NewResolver(schedule.DefaultTemplates())
	if err != nil {
		t.Fatalf("failed to build resolver: %v", err)
	}

	if resRepo == nil {
		resRepo = &mockReservationRepository{}
	}
	if blockRepo == nil {
		blockRepo = &mockBlockRepository{}
	}
	if trainerRepo == nil {
		trainerRepo = &mockTrainerRepository{}
	}

	return &availabilityService{
		reservationRepo: resRepo,
		blockRepo:       blockRepo,
		trainerRepo:     trainerRepo,
		resolver:        resolver,
		cfg:             cfg,
		now: func() time.Time {
			return time.Date(2026, 9, 1, 9, 30, 0, 0, time.UTC)
		},
	}
}

func slotByTime(slots []schedule.Slot, clock string) (schedule.Slot, bool) {
	for _, s := range slots {
		if s.Time == clock {
			return s, true
		}
	}
	return schedule.Slot{}, false
}

func TestDaySchedule_SlotLayout(t *testing.T) {
	resRepo := &mockReservationRepository{
		findByTrainerAndDateFunc: func(ctx context.Context, trainerID, date string, statuses []string) ([]*model.Reservation, error) {
			return []*model.Reservation{
				{ID: "1", Start: "09:00", End: "10:00", Status: model.StatusConfirmed},
			}, nil
		},
	}
	blockRepo := &mockBlockRepository{
		findByTrainerAndDate: func(ctx context.Context, trainerID, date string) ([]*model.Block, error) {
			return []*model.Block{
				{ID: "2", Start: "13:00", End: "14:00", Reason: "maintenance"},
			}, nil
		},
	}
	svc := newTestService(t, resRepo, blockRepo, nil)

	// Future date, so no past-time cutoff applies.
	day, err := svc.DaySchedule(context.Background(), testTrainerID, "2026-09-07", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Morning template is 07:00-15:00 at 60-minute steps: 8 slots.
	if len(day.Slots) != 8 {
		t.Fatalf("expected 8 slots, got %d", len(day.Slots))
	}

	tests := []struct {
		clock string
		want  schedule.SlotStatus
	}{
		{"07:00", schedule.SlotAvailable},
		{"09:00", schedule.SlotBooked},
		{"10:00", schedule.SlotAvailable},
		{"13:00", schedule.SlotUnavailable},
		{"14:00", schedule.SlotAvailable},
	}
	for _, tt := range tests {
		slot, ok := slotByTime(day.Slots, tt.clock)
		if !ok {
			t.Errorf("missing slot %s", tt.clock)
			continue
		}
		if slot.Status != tt.want {
			t.Errorf("slot %s: expected %s, got %s", tt.clock, tt.want, slot.Status)
		}
	}
}

func TestDaySchedule_TodayLapsesPastSlots(t *testing.T) {
	svc := newTestService(t, nil, nil, nil)

	// Fixed clock is 09:30 on 2026-09-01.
	day, err := svc.DaySchedule(context.Background(), testTrainerID, "2026-09-01", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, clock := range []string{"07:00", "08:00", "09:00"} {
		slot, ok := slotByTime(day.Slots, clock)
		if !ok {
			t.Fatalf("missing slot %s", clock)
		}
		if slot.Status != schedule.SlotUnavailable {
			t.Errorf("slot %s should have lapsed, got %s", clock, slot.Status)
		}
	}

	slot, _ := slotByTime(day.Slots, "10:00")
	if slot.Status != schedule.SlotAvailable {
		t.Errorf("slot 10:00 should be available, got %s", slot.Status)
	}
}

func TestDaySchedule_PastDateFullyLapsed(t *testing.T) {
	svc := newTestService(t, nil, nil, nil)

	day, err := svc.DaySchedule(context.Background(), testTrainerID, "2026-08-25", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, slot := range day.Slots {
		if slot.Status != schedule.SlotUnavailable {
			t.Errorf("slot %s on a past date should have lapsed, got %s", slot.Time, slot.Status)
		}
	}
}

func TestDaySchedule_BlockedReservationStillOccupies(t *testing.T) {
	resRepo := &mockReservationRepository{
		findByTrainerAndDateFunc: func(ctx context.Context, trainerID, date string, statuses []string) ([]*model.Reservation, error) {
			return []*model.Reservation{
				{ID: "1", Start: "09:00", End: "10:00", Status: model.StatusBlocked},
			}, nil
		},
	}
	svc := newTestService(t, resRepo, nil, nil)

	day, err := svc.DaySchedule(context.Background(), testTrainerID, "2026-09-07", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	slot, _ := slotByTime(day.Slots, "09:00")
	if slot.Status != schedule.SlotBooked {
		t.Errorf("blocked reservation should still occupy its slot, got %s", slot.Status)
	}
}

func TestDaySchedule_WeeklyUsageAttached(t *testing.T) {
	resRepo := &mockReservationRepository{
		findByUserAndDateRangeFunc: func(ctx context.Context, userID, fromDate, toDate string, statuses []string) ([]*model.Reservation, error) {
			if fromDate != "2026-09-07" || toDate != "2026-09-13" {
				t.Errorf("expected ISO week 2026-09-07..2026-09-13, got %s..%s", fromDate, toDate)
			}
			return []*model.Reservation{
				{Start: "09:00", End: "10:30", Status: model.StatusConfirmed},
			}, nil
		},
	}
	svc := newTestService(t, resRepo, nil, nil)

	day, err := svc.DaySchedule(context.Background(), testTrainerID, "2026-09-09", testUserID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if day.WeeklyUsageMin != 90 {
		t.Errorf("expected 90 minutes of usage, got %d", day.WeeklyUsageMin)
	}
	if day.WeeklyCapMin != 600 {
		t.Errorf("expected 600 minute cap, got %d", day.WeeklyCapMin)
	}
}

func TestDaySchedule_TrainerNotFound(t *testing.T) {
	trainerRepo := &mockTrainerRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Trainer, error) {
			return nil, trainerserrors.ErrNotFound
		},
	}
	svc := newTestService(t, nil, nil, trainerRepo)

	_, err := svc.DaySchedule(context.Background(), testTrainerID, "2026-09-07", "")
	if err == nil {
		t.Fatal("expected error")
	}
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeNotFound {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}

func TestAvailableTrainers_FiltersByShiftAndConflicts(t *testing.T) {
	trainerRepo := &mockTrainerRepository{
		findActiveFunc: func(ctx context.Context) ([]*model.Trainer, error) {
			return []*model.Trainer{
				{ID: testTrainerID, Name: "Morning", ShiftType: schedule.ShiftMorning, Status: model.TrainerActive},
				{ID: testTrainerID2, Name: "Night", ShiftType: schedule.ShiftNight, Status: model.TrainerActive},
			}, nil
		},
	}
	svc := newTestService(t, nil, nil, trainerRepo)

	// 09:00-10:00 fits the morning shift only.
	trainers, err := svc.AvailableTrainers(context.Background(), "2026-09-07", "09:00", "10:00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(trainers) != 1 || trainers[0].ID != testTrainerID {
		t.Fatalf("expected only the morning trainer, got %v", trainers)
	}
}

func TestAvailableTrainers_ExcludesBookedTrainer(t *testing.T) {
	trainerRepo := &mockTrainerRepository{
		findActiveFunc: func(ctx context.Context) ([]*model.Trainer, error) {
			return []*model.Trainer{
				{ID: testTrainerID, Name: "A", ShiftType: schedule.ShiftMorning, Status: model.TrainerActive},
				{ID: testTrainerID2, Name: "B", ShiftType: schedule.ShiftMorning, Status: model.TrainerActive},
			}, nil
		},
	}
	resRepo := &mockReservationRepository{
		findOverlappingFunc: func(ctx context.Context, trainerID, date, start, end string, statuses []string) ([]*model.Reservation, error) {
			if trainerID == testTrainerID {
				return []*model.Reservation{
					{ID: "1", Start: "09:00", End: "10:00", Status: model.StatusConfirmed},
				}, nil
			}
			return []*model.Reservation{}, nil
		},
	}
	svc := newTestService(t, resRepo, nil, trainerRepo)

	trainers, err := svc.AvailableTrainers(context.Background(), "2026-09-07", "09:00", "10:00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(trainers) != 1 || trainers[0].ID != testTrainerID2 {
		t.Fatalf("expected only the free trainer, got %v", trainers)
	}
}

func TestAvailableTrainers_ParkedReservationExcludes(t *testing.T) {
	// A reservation parked blocked still owns its window, so its trainer
	// is not offered for an overlapping slot.
	trainerRepo := &mockTrainerRepository{
		findActiveFunc: func(ctx context.Context) ([]*model.Trainer, error) {
			return []*model.Trainer{
				{ID: testTrainerID, Name: "A", ShiftType: schedule.ShiftMorning, Status: model.TrainerActive},
				{ID: testTrainerID2, Name: "B", ShiftType: schedule.ShiftMorning, Status: model.TrainerActive},
			}, nil
		},
	}
	resRepo := &mockReservationRepository{
		findOverlappingFunc: func(ctx context.Context, trainerID, date, start, end string, statuses []string) ([]*model.Reservation, error) {
			if trainerID != testTrainerID {
				return []*model.Reservation{}, nil
			}
			for _, status := range statuses {
				if status == model.StatusBlocked {
					return []*model.Reservation{
						{ID: "1", Start: "09:30", End: "10:30", Status: model.StatusBlocked},
					}, nil
				}
			}
			return []*model.Reservation{}, nil
		},
	}
	svc := newTestService(t, resRepo, nil, trainerRepo)

	trainers, err := svc.AvailableTrainers(context.Background(), "2026-09-07", "10:00", "11:00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(trainers) != 1 || trainers[0].ID != testTrainerID2 {
		t.Fatalf("expected only the free trainer, got %v", trainers)
	}
}

func TestAvailableTrainers_BreakExcludes(t *testing.T) {
	trainerRepo := &mockTrainerRepository{
		findActiveFunc: func(ctx context.Context) ([]*model.Trainer, error) {
			return []*model.Trainer{
				{
					ID:         testTrainerID,
					Name:       "With break",
					Status:     model.TrainerActive,
					WorkStart:  "08:00",
					WorkEnd:    "16:00",
					BreakStart: "12:00",
					BreakEnd:   "13:00",
				},
			}, nil
		},
	}
	svc := newTestService(t, nil, nil, trainerRepo)

	trainers, err := svc.AvailableTrainers(context.Background(), "2026-09-07", "12:00", "13:00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(trainers) != 0 {
		t.Fatalf("expected no trainers during break, got %v", trainers)
	}
}

func TestAvailableTrainers_InvalidWindow(t *testing.T) {
	svc := newTestService(t, nil, nil, nil)

	_, err := svc.AvailableTrainers(context.Background(), "2026-09-07", "13:00", "12:00")
	if err == nil {
		t.Fatal("expected error for inverted window")
	}
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeInvalidInterval {
		t.Errorf("expected INVALID_INTERVAL, got %v", err)
	}
}
