package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/ssaatdesigns-web/aquahealthos-demo/internal/forecast"
	"github.com/ssaatdesigns-web/aquahealthos-demo/internal/ingest"
	"github.com/ssaatdesigns-web/aquahealthos-demo/internal/models"
)

// Client is a thin typed wrapper over the HTTP API, shared by the
// ops CLI and the external simulator client.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = os.Getenv("API_BASE_URL")
	}
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) ListPonds() ([]models.Pond, error) {
	var ponds []models.Pond
	if err := c.get("/api/v1/ponds", &ponds); err != nil {
		return nil, err
	}
	return ponds, nil
}

func (c *Client) IngestReading(pondID uint, m ingest.Measurements) (*ingest.Result, error) {
	payload := struct {
		PondID uint `json:"pond_id"`
		ingest.Measurements
	}{PondID: pondID, Measurements: m}

	var result ingest.Result
	if err := c.post("/api/v1/ingest/reading", payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) PondHealth(pondID uint) (map[string]interface{}, error) {
	var health map[string]interface{}
	if err := c.get(fmt.Sprintf("/api/v1/ponds/%d/health", pondID), &health); err != nil {
		return nil, err
	}
	return health, nil
}

func (c *Client) ListAlerts(pondID uint, includeResolved bool, limit int) ([]models.Alert, error) {
	query := url.Values{}
	if includeResolved {
		query.Set("include_resolved", "true")
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var alerts []models.Alert
	endpoint := fmt.Sprintf("/api/v1/ponds/%d/alerts?%s", pondID, query.Encode())
	if err := c.get(endpoint, &alerts); err != nil {
		return nil, err
	}
	return alerts, nil
}

func (c *Client) ResolveAlert(alertID uint) (*models.Alert, error) {
	var resolved models.Alert
	if err := c.post(fmt.Sprintf("/api/v1/alerts/%d/resolve", alertID), nil, &resolved); err != nil {
		return nil, err
	}
	return &resolved, nil
}

func (c *Client) Forecast(pondID uint, hours, stepMinutes int) (*forecast.Forecast, error) {
	query := url.Values{}
	if hours > 0 {
		query.Set("hours", strconv.Itoa(hours))
	}
	if stepMinutes > 0 {
		query.Set("step_minutes", strconv.Itoa(stepMinutes))
	}

	var fc forecast.Forecast
	endpoint := fmt.Sprintf("/api/v1/ponds/%d/forecast?%s", pondID, query.Encode())
	if err := c.get(endpoint, &fc); err != nil {
		return nil, err
	}
	return &fc, nil
}

type SimState struct {
	PondID  uint `json:"pond_id"`
	Running bool `json:"running"`
	Started bool `json:"started"`
	Stopped bool `json:"stopped"`
}

func (c *Client) SimStatus(pondID uint) (*SimState, error) {
	var state SimState
	if err := c.get(fmt.Sprintf("/api/v1/sim/status/%d", pondID), &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (c *Client) SimStart(pondID uint, intervalSec int, incident bool) (*SimState, error) {
	query := url.Values{}
	query.Set("interval_sec", strconv.Itoa(intervalSec))
	query.Set("incident_mode", strconv.FormatBool(incident))

	var state SimState
	endpoint := fmt.Sprintf("/api/v1/sim/start/%d?%s", pondID, query.Encode())
	if err := c.post(endpoint, nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (c *Client) SimStop(pondID uint) (*SimState, error) {
	var state SimState
	if err := c.post(fmt.Sprintf("/api/v1/sim/stop/%d", pondID), nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (c *Client) get(endpoint string, v interface{}) error {
	resp, err := c.doRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return json.NewDecoder(resp.Body).Decode(v)
}

func (c *Client) post(endpoint string, data, v interface{}) error {
	var body io.Reader
	if data != nil {
		jsonData, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(jsonData)
	}

	resp, err := c.doRequest(http.MethodPost, endpoint, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if v != nil {
		return json.NewDecoder(resp.Body).Decode(v)
	}
	return nil
}

func (c *Client) doRequest(method, endpoint string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequest(method, c.baseURL+endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		var errResp struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Error != "" {
			return nil, fmt.Errorf("API error: %s", errResp.Error)
		}
		return nil, fmt.Errorf("request failed with status %d", resp.StatusCode)
	}

	return resp, nil
}
