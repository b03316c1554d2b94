package scheduler

import (
	"net/http"
	"testing"

	"gymsched/pkg/model"
	"gymsched/test/integration/testutil"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type createEnvelope struct {
	Data struct {
		Reservation model.Reservation `json:"reservation"`
		Validation  struct {
			Valid          bool     `json:"valid"`
			WeeklyUsageMin int      `json:"weekly_usage_min"`
			CapExceeded    bool     `json:"cap_exceeded"`
			Warnings       []string `json:"warnings"`
		} `json:"validation"`
	} `json:"data"`
}

func newUserID() string {
	return primitive.NewObjectID().Hex()
}

func TestCreateReservation_HappyPath(t *testing.T) {
	env := testutil.NewTestEnv()
	mongo, api := env.Setup(t)
	defer env.Cleanup(t, mongo)

	trainerID := mongo.InsertTrainer(t, testutil.ActiveTrainer())
	reservation := testutil.NewReservationBuilder(newUserID(), trainerID).Build()

	resp, err := api.CreateReservation(reservation)
	testutil.MustCall(t, resp, err)
	testutil.AssertStatusCode(t, resp, http.StatusCreated)

	var created createEnvelope
	if err := resp.DecodeJSON(&created); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}

	if created.Data.Reservation.ID == "" {
		t.Error("expected ID to be set")
	}
	if created.Data.Reservation.Status != model.StatusConfirmed {
		t.Errorf("expected status confirmed, got %s", created.Data.Reservation.Status)
	}
	if !created.Data.Validation.Valid {
		t.Error("expected valid validation result")
	}

	if count := mongo.CountDocuments(t, testutil.ReservationsCollection); count != 1 {
		t.Errorf("expected 1 reservation in DB, got %d", count)
	}
	// The advisory lock must be released after the commit.
	if count := mongo.CountDocuments(t, testutil.SlotLocksCollection); count != 0 {
		t.Errorf("expected no leftover slot locks, got %d", count)
	}
}

func TestCreateReservation_DoubleBookingRejected(t *testing.T) {
	env := testutil.NewTestEnv()
	mongo, api := env.Setup(t)
	defer env.Cleanup(t, mongo)

	trainerID := mongo.InsertTrainer(t, testutil.ActiveTrainer())

	first := testutil.NewReservationBuilder(newUserID(), trainerID).Build()
	resp, err := api.CreateReservation(first)
	testutil.MustCall(t, resp, err)
	testutil.AssertStatusCode(t, resp, http.StatusCreated)

	// A second member wants an overlapping window with the same trainer.
	second := testutil.NewReservationBuilder(newUserID(), trainerID).
		WithWindow("09:00", "11:00").
		Build()
	resp, err = api.CreateReservation(second)
	testutil.MustCall(t, resp, err)
	testutil.AssertStatusCode(t, resp, http.StatusConflict)
	testutil.AssertContains(t, resp, "DOUBLE_BOOKING")

	if count := mongo.CountDocuments(t, testutil.ReservationsCollection); count != 1 {
		t.Errorf("expected 1 reservation in DB, got %d", count)
	}
}

func TestCreateReservation_OffGridOverlapRejected(t *testing.T) {
	env := testutil.NewTestEnv()
	mongo, api := env.Setup(t)
	defer env.Cleanup(t, mongo)

	trainerID := mongo.InsertTrainer(t, testutil.ActiveTrainer())

	first := testutil.NewReservationBuilder(newUserID(), trainerID).Build()
	resp, err := api.CreateReservation(first)
	testutil.MustCall(t, resp, err)
	testutil.AssertStatusCode(t, resp, http.StatusCreated)

	// An unaligned start must still collide with the 09:00-10:00 booking.
	second := testutil.NewReservationBuilder(newUserID(), trainerID).
		WithWindow("08:45", "09:45").
		Build()
	resp, err = api.CreateReservation(second)
	testutil.MustCall(t, resp, err)
	testutil.AssertStatusCode(t, resp, http.StatusConflict)
	testutil.AssertContains(t, resp, "DOUBLE_BOOKING")
}

func TestCreateReservation_BreakRejected(t *testing.T) {
	env := testutil.NewTestEnv()
	mongo, api := env.Setup(t)
	defer env.Cleanup(t, mongo)

	trainerID := mongo.InsertTrainer(t, testutil.TrainerWithBreak())

	reservation := testutil.NewReservationBuilder(newUserID(), trainerID).
		WithWindow("12:00", "13:00").
		Build()
	resp, err := api.CreateReservation(reservation)
	testutil.MustCall(t, resp, err)
	testutil.AssertStatusCode(t, resp, http.StatusConflict)
	testutil.AssertContains(t, resp, "BREAK_TIME_CONFLICT")
}

func TestValidateReservation_DoesNotPersist(t *testing.T) {
	env := testutil.NewTestEnv()
	mongo, api := env.Setup(t)
	defer env.Cleanup(t, mongo)

	trainerID := mongo.InsertTrainer(t, testutil.ActiveTrainer())
	reservation := testutil.NewReservationBuilder(newUserID(), trainerID).Build()

	resp, err := api.ValidateReservation(reservation)
	testutil.MustCall(t, resp, err)
	testutil.AssertStatusCode(t, resp, http.StatusOK)

	if count := mongo.CountDocuments(t, testutil.ReservationsCollection); count != 0 {
		t.Errorf("validation must not persist, found %d reservations", count)
	}
}

func TestRescheduleReservation_MovesSlot(t *testing.T) {
	env := testutil.NewTestEnv()
	mongo, api := env.Setup(t)
	defer env.Cleanup(t, mongo)

	trainerID := mongo.InsertTrainer(t, testutil.ActiveTrainer())
	reservation := testutil.NewReservationBuilder(newUserID(), trainerID).Build()

	resp, err := api.CreateReservation(reservation)
	testutil.MustCall(t, resp, err)
	testutil.AssertStatusCode(t, resp, http.StatusCreated)

	var created createEnvelope
	if err := resp.DecodeJSON(&created); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	id := created.Data.Reservation.ID

	resp, err = api.RescheduleReservation(id, map[string]string{
		"date":  "2026-10-06",
		"start": "10:00",
		"end":   "12:00",
	})
	testutil.MustCall(t, resp, err)
	testutil.AssertStatusCode(t, resp, http.StatusOK)

	var moved createEnvelope
	if err := resp.DecodeJSON(&moved); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if moved.Data.Reservation.Date != "2026-10-06" || moved.Data.Reservation.Start != "10:00" {
		t.Errorf("expected 2026-10-06 10:00, got %s %s", moved.Data.Reservation.Date, moved.Data.Reservation.Start)
	}
	// The weekly projection counts the new two-hour slot, not the old hour.
	if moved.Data.Validation.WeeklyUsageMin != 120 {
		t.Errorf("expected 120 minutes of projected usage, got %d", moved.Data.Validation.WeeklyUsageMin)
	}
}

func TestUpdateStatus_CompletedIsTerminal(t *testing.T) {
	env := testutil.NewTestEnv()
	mongo, api := env.Setup(t)
	defer env.Cleanup(t, mongo)

	trainerID := mongo.InsertTrainer(t, testutil.ActiveTrainer())
	reservation := testutil.NewReservationBuilder(newUserID(), trainerID).Build()

	resp, err := api.CreateReservation(reservation)
	testutil.MustCall(t, resp, err)
	testutil.AssertStatusCode(t, resp, http.StatusCreated)

	var created createEnvelope
	if err := resp.DecodeJSON(&created); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	id := created.Data.Reservation.ID

	resp, err = api.UpdateReservationStatus(id, map[string]string{"status": "completed"})
	testutil.MustCall(t, resp, err)
	testutil.AssertStatusCode(t, resp, http.StatusNoContent)

	resp, err = api.UpdateReservationStatus(id, map[string]string{"status": "cancelled"})
	testutil.MustCall(t, resp, err)
	testutil.AssertStatusCode(t, resp, http.StatusConflict)
}
