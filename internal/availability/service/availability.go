package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	blocksrepo "gymsched/internal/blocks/repository"
	reservationsrepo "gymsched/internal/reservations/repository"
	trainerserrors "gymsched/internal/trainers/errors"
	trainersrepo "gymsched/internal/trainers/repository"
	"gymsched/pkg/config"
	apperrors "gymsched/pkg/errors"
	"gymsched/pkg/model"
	"gymsched/pkg/schedule"
)

// DaySchedule is one trainer's slot grid for a single date, with the
// caller's weekly usage attached so the UI can surface the advisory cap.
type DaySchedule struct {
	TrainerID      string          `json:"trainer_id"`
	TrainerName    string          `json:"trainer_name"`
	Date           string          `json:"date"`
	Work           string          `json:"work"`
	Break          string          `json:"break,omitempty"`
	Slots          []schedule.Slot `json:"slots"`
	WeeklyUsageMin int             `json:"weekly_usage_min,omitempty"`
	WeeklyCapMin   int             `json:"weekly_cap_min,omitempty"`
}

type AvailabilityService interface {
	DaySchedule(ctx context.Context, trainerID, date, userID string) (*DaySchedule, error)
	AvailableTrainers(ctx context.Context, date, start, end string) ([]*model.Trainer, error)
}

type availabilityService struct {
	reservationRepo reservationsrepo.ReservationRepository
	blockRepo       blocksrepo.BlockRepository
	trainerRepo     trainersrepo.TrainerRepository
	resolver        *schedule.Resolver
	cfg             *config.Config
	now             func() time.Time
}

func NewAvailabilityService(
	reservationRepo reservationsrepo.ReservationRepository,
	blockRepo blocksrepo.BlockRepository,
	trainerRepo trainersrepo.TrainerRepository,
	resolver *schedule.Resolver,
	cfg *config.Config,
) AvailabilityService {
	return &availabilityService{
		reservationRepo: reservationRepo,
		blockRepo:       blockRepo,
		trainerRepo:     trainerRepo,
		resolver:        resolver,
		cfg:             cfg,
		now:             time.Now,
	}
}

func (s *availabilityService) DaySchedule(ctx context.Context, trainerID, date, userID string) (*DaySchedule, error) {
	day, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return nil, apperrors.InvalidInput(fmt.Sprintf("Invalid date: %s", date))
	}

	trainer, err := s.trainerRepo.FindByID(ctx, trainerID)
	if err != nil {
		if errors.Is(err, trainerserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Trainer", trainerID)
		}
		if errors.Is(err, trainerserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid trainer ID format")
		}
		return nil, apperrors.Internal("Failed to look up trainer", err)
	}

	shift, source := s.resolver.Resolve(trainer.ShiftType, trainer.ShiftOverride())
	if source == schedule.SourceFallback {
		s.cfg.Log.Warn("Trainer has a malformed working-hours override, using shift template",
			"trainer_id", trainer.ID,
			"shift_type", trainer.ShiftType,
		)
	}

	busy, err := s.collectBusy(ctx, trainerID, date)
	if err != nil {
		return nil, err
	}

	result := &DaySchedule{
		TrainerID:   trainer.ID,
		TrainerName: trainer.Name,
		Date:        date,
		Work:        shift.Work.String(),
		Slots:       schedule.GenerateSlots(shift, busy, s.nowMinuteFor(day), s.cfg.SlotStepMinutes),
	}
	if shift.Break != nil {
		result.Break = shift.Break.String()
	}

	if userID != "" {
		usage, err := s.weeklyUsage(ctx, userID, day)
		if err != nil {
			return nil, err
		}
		result.WeeklyUsageMin = usage
		result.WeeklyCapMin = s.cfg.WeeklyCapHours * 60
	}

	return result, nil
}

// AvailableTrainers returns the active trainers who could take the given
// window on the given date: the window fits their shift, misses their
// break, and collides with no occupied reservation or block.
func (s *availabilityService) AvailableTrainers(ctx context.Context, date, start, end string) ([]*model.Trainer, error) {
	if _, err := time.Parse(time.DateOnly, date); err != nil {
		return nil, apperrors.InvalidInput(fmt.Sprintf("Invalid date: %s", date))
	}
	iv, err := schedule.ParseInterval(start, end)
	if err != nil {
		return nil, apperrors.InvalidInterval(fmt.Sprintf("Invalid time window %s-%s", start, end))
	}

	trainers, err := s.trainerRepo.FindActive(ctx)
	if err != nil {
		return nil, apperrors.Internal("Failed to list trainers", err)
	}

	available := make([]*model.Trainer, 0, len(trainers))
	for _, trainer := range trainers {
		shift, _ := s.resolver.Resolve(trainer.ShiftType, trainer.ShiftOverride())
		if !shift.ContainsInterval(iv) || shift.BreakIntersects(iv) {
			continue
		}

		free, err := s.windowFree(ctx, trainer.ID, date, start, end)
		if err != nil {
			return nil, err
		}
		if free {
			available = append(available, trainer)
		}
	}

	return available, nil
}

func (s *availabilityService) windowFree(ctx context.Context, trainerID, date, start, end string) (bool, error) {
	// Blocked reservations keep their window until cancelled or restored,
	// so they exclude a trainer the same way confirmed ones do.
	reservations, err := s.reservationRepo.FindOverlapping(
		ctx, trainerID, date, start, end, []string{model.StatusConfirmed, model.StatusBlocked},
	)
	if err != nil {
		return false, apperrors.Internal("Failed to check existing reservations", err)
	}
	if len(reservations) > 0 {
		return false, nil
	}

	blocks, err := s.blockRepo.FindOverlapping(ctx, trainerID, date, start, end)
	if err != nil {
		return false, apperrors.Internal("Failed to check trainer blocks", err)
	}
	return len(blocks) == 0, nil
}

// collectBusy merges the day's reservations and blocks into the engine's
// busy list. Confirmed and blocked reservations both occupy slots; a
// blocked reservation still holds its window until cancelled or restored.
func (s *availabilityService) collectBusy(ctx context.Context, trainerID, date string) ([]schedule.Busy, error) {
	reservations, err := s.reservationRepo.FindByTrainerAndDate(
		ctx, trainerID, date, []string{model.StatusConfirmed, model.StatusBlocked},
	)
	if err != nil {
		return nil, apperrors.Internal("Failed to load reservations", err)
	}

	blocks, err := s.blockRepo.FindByTrainerAndDate(ctx, trainerID, date)
	if err != nil {
		return nil, apperrors.Internal("Failed to load blocks", err)
	}

	var busy []schedule.Busy
	for _, r := range reservations {
		iv, err := r.Interval()
		if err != nil {
			s.cfg.Log.Warn("Skipping reservation with malformed time window",
				"reservation_id", r.ID, "start", r.Start, "end", r.End)
			continue
		}
		busy = append(busy, schedule.Busy{Interval: iv, Kind: schedule.BusyReservation})
	}
	for _, b := range blocks {
		iv, err := b.Interval()
		if err != nil {
			s.cfg.Log.Warn("Skipping block with malformed time window",
				"block_id", b.ID, "start", b.Start, "end", b.End)
			continue
		}
		busy = append(busy, schedule.Busy{Interval: iv, Kind: schedule.BusyBlock})
	}

	return busy, nil
}

// nowMinuteFor computes the past-time cutoff: for today the current
// minute, for past dates the whole day, for future dates none.
func (s *availabilityService) nowMinuteFor(day time.Time) int {
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	target := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, now.Location())

	switch {
	case target.Equal(today):
		return now.Hour()*60 + now.Minute()
	case target.Before(today):
		return schedule.MinutesPerDay
	default:
		return schedule.NowUnknown
	}
}

func (s *availabilityService) weeklyUsage(ctx context.Context, userID string, day time.Time) (int, error) {
	monday := startOfISOWeek(day)
	sunday := monday.AddDate(0, 0, 6)

	reservations, err := s.reservationRepo.FindByUserAndDateRange(
		ctx,
		userID,
		monday.Format(time.DateOnly),
		sunday.Format(time.DateOnly),
		[]string{model.StatusConfirmed},
	)
	if err != nil {
		return 0, apperrors.Internal("Failed to compute weekly usage", err)
	}

	usage := 0
	for _, r := range reservations {
		if iv, err := r.Interval(); err == nil {
			usage += iv.DurationMin()
		}
	}
	return usage, nil
}

func startOfISOWeek(day time.Time) time.Time {
	weekday := int(day.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	return day.AddDate(0, 0, 1-weekday)
}
