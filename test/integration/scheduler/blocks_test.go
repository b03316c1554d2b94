package scheduler

import (
	"net/http"
	"testing"

	"gymsched/pkg/model"
	"gymsched/test/integration/testutil"
)

type blockEnvelope struct {
	Data struct {
		Block   model.Block `json:"block"`
		Blocked int         `json:"blocked_reservations"`
	} `json:"data"`
}

type removeEnvelope struct {
	Data struct {
		Restored int `json:"restored_reservations"`
	} `json:"data"`
}

func TestBlock_CascadeAndRestore(t *testing.T) {
	env := testutil.NewTestEnv()
	mongo, api := env.Setup(t)
	defer env.Cleanup(t, mongo)

	trainerID := mongo.InsertTrainer(t, testutil.ActiveTrainer())
	userID := newUserID()

	reservation := testutil.NewReservationBuilder(userID, trainerID).
		WithWindow("10:00", "11:00").
		Build()
	resp, err := api.CreateReservation(reservation)
	testutil.MustCall(t, resp, err)
	testutil.AssertStatusCode(t, resp, http.StatusCreated)

	var created createEnvelope
	if err := resp.DecodeJSON(&created); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	resID := created.Data.Reservation.ID

	// Blocking the window parks the reservation.
	block := testutil.NewBlockBuilder(trainerID).WithWindow("10:00", "12:00").Build()
	resp, err = api.CreateBlock(block)
	testutil.MustCall(t, resp, err)
	testutil.AssertStatusCode(t, resp, http.StatusCreated)

	var blocked blockEnvelope
	if err := resp.DecodeJSON(&blocked); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if blocked.Data.Blocked != 1 {
		t.Errorf("expected 1 blocked reservation, got %d", blocked.Data.Blocked)
	}

	resp, err = api.GetReservationByID(resID)
	testutil.MustCall(t, resp, err)
	testutil.AssertStatusCode(t, resp, http.StatusOK)
	testutil.AssertContains(t, resp, model.StatusBlocked)

	// Removing the block restores it.
	resp, err = api.RemoveBlock(blocked.Data.Block.ID)
	testutil.MustCall(t, resp, err)
	testutil.AssertStatusCode(t, resp, http.StatusOK)

	var removed removeEnvelope
	if err := resp.DecodeJSON(&removed); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if removed.Data.Restored != 1 {
		t.Errorf("expected 1 restored reservation, got %d", removed.Data.Restored)
	}

	resp, err = api.GetReservationByID(resID)
	testutil.MustCall(t, resp, err)
	testutil.AssertStatusCode(t, resp, http.StatusOK)
	testutil.AssertContains(t, resp, model.StatusConfirmed)
}

func TestBlock_ParkedReservationWindowStaysClosed(t *testing.T) {
	env := testutil.NewTestEnv()
	mongo, api := env.Setup(t)
	defer env.Cleanup(t, mongo)

	trainerID := mongo.InsertTrainer(t, testutil.ActiveTrainer())

	// 09:30-10:30 reservation, then a 09:00-10:00 block parks it. The
	// parked tail 10:00-10:30 must stay unbookable or the restore would
	// produce two overlapping confirmed reservations.
	reservation := testutil.NewReservationBuilder(newUserID(), trainerID).
		WithWindow("09:30", "10:30").
		Build()
	resp, err := api.CreateReservation(reservation)
	testutil.MustCall(t, resp, err)
	testutil.AssertStatusCode(t, resp, http.StatusCreated)

	block := testutil.NewBlockBuilder(trainerID).WithWindow("09:00", "10:00").Build()
	resp, err = api.CreateBlock(block)
	testutil.MustCall(t, resp, err)
	testutil.AssertStatusCode(t, resp, http.StatusCreated)

	candidate := testutil.NewReservationBuilder(newUserID(), trainerID).
		WithWindow("10:00", "11:00").
		Build()
	resp, err = api.CreateReservation(candidate)
	testutil.MustCall(t, resp, err)
	testutil.AssertStatusCode(t, resp, http.StatusConflict)
	testutil.AssertContains(t, resp, "DOUBLE_BOOKING")
}

func TestBlock_DuplicateRejected(t *testing.T) {
	env := testutil.NewTestEnv()
	mongo, api := env.Setup(t)
	defer env.Cleanup(t, mongo)

	trainerID := mongo.InsertTrainer(t, testutil.ActiveTrainer())
	block := testutil.NewBlockBuilder(trainerID).Build()

	resp, err := api.CreateBlock(block)
	testutil.MustCall(t, resp, err)
	testutil.AssertStatusCode(t, resp, http.StatusCreated)

	resp, err = api.CreateBlock(block)
	testutil.MustCall(t, resp, err)
	testutil.AssertStatusCode(t, resp, http.StatusConflict)
	testutil.AssertContains(t, resp, "DUPLICATE_BLOCK")
}

func TestBlock_RemoveTwiceReportsNotFound(t *testing.T) {
	env := testutil.NewTestEnv()
	mongo, api := env.Setup(t)
	defer env.Cleanup(t, mongo)

	trainerID := mongo.InsertTrainer(t, testutil.ActiveTrainer())
	block := testutil.NewBlockBuilder(trainerID).Build()

	resp, err := api.CreateBlock(block)
	testutil.MustCall(t, resp, err)
	testutil.AssertStatusCode(t, resp, http.StatusCreated)

	var blocked blockEnvelope
	if err := resp.DecodeJSON(&blocked); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}

	resp, err = api.RemoveBlock(blocked.Data.Block.ID)
	testutil.MustCall(t, resp, err)
	testutil.AssertStatusCode(t, resp, http.StatusOK)

	resp, err = api.RemoveBlock(blocked.Data.Block.ID)
	testutil.MustCall(t, resp, err)
	testutil.AssertStatusCode(t, resp, http.StatusNotFound)
}

func TestAvailability_ReflectsBookingsAndBlocks(t *testing.T) {
	env := testutil.NewTestEnv()
	mongo, api := env.Setup(t)
	defer env.Cleanup(t, mongo)

	trainerID := mongo.InsertTrainer(t, testutil.ActiveTrainer())
	userID := newUserID()

	reservation := testutil.NewReservationBuilder(userID, trainerID).Build()
	resp, err := api.CreateReservation(reservation)
	testutil.MustCall(t, resp, err)
	testutil.AssertStatusCode(t, resp, http.StatusCreated)

	block := testutil.NewBlockBuilder(trainerID).WithWindow("13:00", "14:00").Build()
	resp, err = api.CreateBlock(block)
	testutil.MustCall(t, resp, err)
	testutil.AssertStatusCode(t, resp, http.StatusCreated)

	resp, err = api.GetAvailability(trainerID, "2026-10-05", "")
	testutil.MustCall(t, resp, err)
	testutil.AssertStatusCode(t, resp, http.StatusOK)

	var day struct {
		Data struct {
			Slots []struct {
				Time   string `json:"time"`
				Status string `json:"status"`
			} `json:"slots"`
		} `json:"data"`
	}
	if err := resp.DecodeJSON(&day); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}

	statuses := map[string]string{}
	for _, slot := range day.Data.Slots {
		statuses[slot.Time] = slot.Status
	}
	if statuses["09:00"] != "booked" {
		t.Errorf("expected 09:00 booked, got %s", statuses["09:00"])
	}
	if statuses["13:00"] != "unavailable" {
		t.Errorf("expected 13:00 unavailable, got %s", statuses["13:00"])
	}
	if statuses["08:00"] != "available" {
		t.Errorf("expected 08:00 available, got %s", statuses["08:00"])
	}
}
