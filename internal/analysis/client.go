// Package analysis calls the external skill-analysis service. The service
// exposes one endpoint with selectable engines; engine fallback policy lives
// in the engine package, not here.
package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/jkorri/gumshoe/internal/errors"
	"github.com/jkorri/gumshoe/internal/models"
	"log/slog"
)

const (
	// EnginePrimary is the full analysis engine.
	EnginePrimary = "primary"
	// EngineFallback is the degraded engine used when the primary call fails.
	EngineFallback = "fallback"
)

var ErrBadStatus = errors.NewSentinel("analysis service returned non-2xx status")

// Request is the payload sent for one finished game.
type Request struct {
	SessionID   string         `json:"sessionId"`
	CaseTitle   string         `json:"caseTitle"`
	CaseSummary string         `json:"caseSummary"`
	Turns       []models.Turn  `json:"turns"`
	Facts       []string       `json:"facts"`
	Verdict     map[string]any `json:"verdict"`
	Timings     Timings        `json:"timings"`
	Engine      string         `json:"engine"`
}

// Timings is the play-duration data forwarded for analysis.
type Timings struct {
	DurationSeconds int64 `json:"durationSeconds"`
}

// Response carries the skill scores. Skill values are left loosely typed
// because engines have been observed to return both numbers and numeric
// strings; the engine coerces them.
type Response struct {
	Skills     map[string]any     `json:"skills"`
	Submetrics map[string]float64 `json:"submetrics,omitempty"`
	Engine     string             `json:"engine,omitempty"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) Client {
	return Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Analyze posts the finished game to the requested engine and decodes the
// skill scores. Any transport failure, non-2xx status or undecodable body
// is an error; the caller decides whether to fall back.
func (c Client) Analyze(ctx context.Context, req Request) (Response, error) {
	endpoint := fmt.Sprintf("%s/nlp/analyze?engine=%s", c.baseURL, url.QueryEscape(req.Engine))

	body, err := json.Marshal(req)
	if err != nil {
		return Response{}, errors.Wrap(err, "marshal analysis request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return Response{}, errors.Wrap(err, "build analysis request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Response{}, errors.Wrap(err, "call analysis service", slog.String("engine", req.Engine))
	}
	defer func() {
		_ = httpResp.Body.Close()
	}()

	if httpResp.StatusCode < http.StatusOK || httpResp.StatusCode >= http.StatusMultipleChoices {
		return Response{}, errors.Wrap(ErrBadStatus, "analysis response status",
			slog.Int("status", httpResp.StatusCode), slog.String("engine", req.Engine))
	}

	var resp Response
	if err = json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return Response{}, errors.Wrap(err, "decode analysis response")
	}
	return resp, nil
}
