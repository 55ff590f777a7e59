package noaa

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kilianp07/haulplan/core/model"
)

// DefaultBaseURL is the NOAA CO-OPS datagetter endpoint.
const DefaultBaseURL = "https://api.tidesandcurrents.noaa.gov/api/prod/datagetter"

// DefaultTimeout bounds a remote prediction fetch.
const DefaultTimeout = 15 * time.Second

const predictionLayout = "2006-01-02 15:04"

// Client fetches high/low tide predictions from NOAA CO-OPS.
type Client struct {
	baseURL     string
	application string
	httpClient  *http.Client
}

// NewClient creates a client. Empty arguments fall back to the defaults.
func NewClient(baseURL, application string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if application == "" {
		application = "haulplan"
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:     baseURL,
		application: application,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

// Predictions returns the hilo predictions of station between from and to inclusive.
// Times are station wall-clock values stamped as UTC. Malformed entries are skipped.
func (c *Client) Predictions(ctx context.Context, station string, from, to time.Time) ([]model.TideEvent, error) {
	params := url.Values{}
	params.Add("product", "predictions")
	params.Add("application", c.application)
	params.Add("begin_date", from.Format("20060102"))
	params.Add("end_date", to.Format("20060102"))
	params.Add("datum", "MLLW")
	params.Add("station", station)
	params.Add("time_zone", "lst_ldt")
	params.Add("units", "english")
	params.Add("interval", "hilo")
	params.Add("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch predictions: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("predictions API returned status %d", resp.StatusCode)
	}

	var body predictionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode predictions: %w", err)
	}
	if body.Error != nil && len(body.Predictions) == 0 {
		return nil, fmt.Errorf("predictions API: %s", strings.TrimSpace(body.Error.Message))
	}

	out := make([]model.TideEvent, 0, len(body.Predictions))
	for _, p := range body.Predictions {
		ts, err := time.ParseInLocation(predictionLayout, strings.TrimSpace(p.Time), time.UTC)
		if err != nil {
			continue
		}
		height, err := strconv.ParseFloat(strings.TrimSpace(p.Height), 64)
		if err != nil {
			continue
		}
		typ, ok := parseType(p.Type)
		if !ok {
			continue
		}
		out = append(out, model.TideEvent{Station: station, Time: ts, Type: typ, Height: height})
	}
	return out, nil
}

func parseType(s string) (model.TideType, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "H":
		return model.TideHigh, true
	case "L":
		return model.TideLow, true
	}
	return "", false
}

type predictionsResponse struct {
	Predictions []struct {
		Time   string `json:"t"`
		Height string `json:"v"`
		Type   string `json:"type"`
	} `json:"predictions"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}
