package client

import (
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"gymsched/pkg/model"
)

// SchedulerClient is a thin typed client for the scheduler API, used by
// smoke tooling and by sibling services that need to query availability.
type SchedulerClient struct {
	httpClient *HttpClient
}

func NewSchedulerClient(baseUrl string) *SchedulerClient {
	return &SchedulerClient{
		httpClient: NewHttpClient(baseUrl),
	}
}

// WaitForHealthy blocks until the scheduler's health endpoint answers.
func (c *SchedulerClient) WaitForHealthy(maxWait time.Duration) error {
	return c.httpClient.WaitForHealthy(maxWait)
}

func (c *SchedulerClient) CreateReservation(body any) (*Response, error) {
	return c.httpClient.POST("/api/v1/reservations", body)
}

func (c *SchedulerClient) ValidateReservation(body any) (*Response, error) {
	return c.httpClient.POST("/api/v1/reservations/validate", body)
}

func (c *SchedulerClient) GetReservations(limit int, offset int64) (*Response, error) {
	path := fmt.Sprintf("/api/v1/reservations?limit=%d&offset=%d", limit, offset)
	return c.httpClient.GET(path)
}

func (c *SchedulerClient) SearchReservations(trainerID, date string, limit int, offset int64) (*Response, error) {
	q := url.Values{}
	q.Set("trainer_id", trainerID)
	q.Set("date", date)
	q.Set("limit", fmt.Sprintf("%d", limit))
	q.Set("offset", fmt.Sprintf("%d", offset))

	path := "/api/v1/reservations/search?" + q.Encode()
	return c.httpClient.GET(path)
}

func (c *SchedulerClient) GetReservationByID(id string) (*Response, error) {
	path := "/api/v1/reservations/id/" + url.PathEscape(id)
	return c.httpClient.GET(path)
}

func (c *SchedulerClient) UpdateReservationStatus(id string, body any) (*Response, error) {
	path := "/api/v1/reservations/id/" + url.PathEscape(id) + "/status"
	return c.httpClient.PATCH(path, body)
}

func (c *SchedulerClient) RescheduleReservation(id string, body any) (*Response, error) {
	path := "/api/v1/reservations/id/" + url.PathEscape(id) + "/reschedule"
	return c.httpClient.PATCH(path, body)
}

func (c *SchedulerClient) BulkUpdateReservationStatus(body any) (*Response, error) {
	return c.httpClient.POST("/api/v1/reservations/status/bulk", body)
}

func (c *SchedulerClient) GetAvailability(trainerID, date, userID string) (*Response, error) {
	q := url.Values{}
	q.Set("date", date)
	if userID != "" {
		q.Set("user_id", userID)
	}
	path := "/api/v1/trainers/id/" + url.PathEscape(trainerID) + "/availability?" + q.Encode()
	return c.httpClient.GET(path)
}

func (c *SchedulerClient) GetAvailableTrainers(date, start, end string) (*Response, error) {
	q := url.Values{}
	q.Set("date", date)
	q.Set("start", start)
	q.Set("end", end)
	path := "/api/v1/trainers/available?" + q.Encode()
	return c.httpClient.GET(path)
}

func (c *SchedulerClient) CreateBlock(body any) (*Response, error) {
	return c.httpClient.POST("/api/v1/blocks", body)
}

func (c *SchedulerClient) ListBlocks(trainerID, date string) (*Response, error) {
	q := url.Values{}
	if trainerID != "" {
		q.Set("trainer_id", trainerID)
	}
	if date != "" {
		q.Set("date", date)
	}
	path := "/api/v1/blocks?" + q.Encode()
	return c.httpClient.GET(path)
}

func (c *SchedulerClient) RemoveBlock(id string) (*Response, error) {
	path := "/api/v1/blocks/id/" + url.PathEscape(id)
	return c.httpClient.DELETE(path)
}

func (c *SchedulerClient) BulkRemoveBlocks(body any) (*Response, error) {
	return c.httpClient.POST("/api/v1/blocks/remove/bulk", body)
}

func (c *SchedulerClient) DecodeReservation(resp *Response) (*model.Reservation, error) {
	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}

	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, fmt.Errorf("could not decode reservation wrapper:\n%+v\n%s", resp.ToString(), err)
	}

	var reservation model.Reservation
	if err := json.Unmarshal(wrapper.Data, &reservation); err != nil {
		return nil, fmt.Errorf("could not decode reservation json:\n%+v\n%s", resp.ToString(), err)
	}

	return &reservation, nil
}

func (c *SchedulerClient) DecodeReservations(resp *Response) ([]*model.Reservation, *Metadata, error) {
	var wrapper struct {
		Data       json.RawMessage `json:"data"`
		TotalCount int64           `json:"total_count"`
		Limit      int             `json:"limit"`
		Offset     int64           `json:"offset"`
	}

	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, nil, fmt.Errorf("could not decode paginated resp:\n%+v\n%s", resp.ToString(), err)
	}

	var reservations []*model.Reservation
	if err := json.Unmarshal(wrapper.Data, &reservations); err != nil {
		return nil, nil, fmt.Errorf("could not decode reservation list:\n%+v\n%s", resp.ToString(), err)
	}

	metadata := &Metadata{
		TotalCount: wrapper.TotalCount,
		Limit:      wrapper.Limit,
		Offset:     wrapper.Offset,
	}

	return reservations, metadata, nil
}

func (c *SchedulerClient) DecodeBlock(resp *Response) (*model.Block, error) {
	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}

	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, fmt.Errorf("could not decode block wrapper:\n%+v\n%s", resp.ToString(), err)
	}

	var block model.Block
	if err := json.Unmarshal(wrapper.Data, &block); err != nil {
		return nil, fmt.Errorf("could not decode block json:\n%+v\n%s", resp.ToString(), err)
	}

	return &block, nil
}
