package bot

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"duw-notifier/internal/logging"
)

const (
	fetchTimeout   = 10 * time.Second
	unknownQueue   = "Unknown Queue"
	previewMaxSize = 200
)

var (
	// ErrStatusUnavailable covers transport failures and non-2xx replies.
	ErrStatusUnavailable = errors.New("status endpoint unavailable")
	ErrEmptyStatus       = errors.New("status endpoint returned an empty body")
	// ErrMalformedStatus is returned when the body is not JSON at all.
	ErrMalformedStatus = errors.New("status endpoint returned malformed data")
)

// Browser-like headers; the endpoint is known to turn away obvious bots.
// Accept-Encoding is left to the transport so gzip is decoded for us.
var browserHeaders = map[string]string{
	"User-Agent":                "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
	"Accept-Language":           "pl-PL,pl;q=0.9,en-US;q=0.8,en;q=0.7",
	"DNT":                       "1",
	"Connection":                "keep-alive",
	"Upgrade-Insecure-Requests": "1",
	"Sec-Fetch-Dest":            "document",
	"Sec-Fetch-Mode":            "navigate",
	"Sec-Fetch-Site":            "none",
	"Cache-Control":             "max-age=0",
}

// StatusResponse is the top level of the queue status document. Region
// values stay undecoded until a region is looked up.
type StatusResponse struct {
	Result map[string]json.RawMessage `json:"result"`

	raw []byte
}

type QueueRecord struct {
	ID          int
	Name        string
	TicketCount int
}

type queueRecordJSON struct {
	ID          *int    `json:"id"`
	Name        *string `json:"name"`
	TicketCount *int    `json:"ticket_count"`
}

// ParseStatus decodes a status body. A body that is valid JSON of an
// unexpected shape yields a StatusResponse with no regions.
func ParseStatus(body []byte) (*StatusResponse, error) {
	if len(body) == 0 {
		return nil, ErrEmptyStatus
	}

	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedStatus, err)
	}

	status := &StatusResponse{raw: body}
	if err := json.Unmarshal(body, status); err != nil {
		status.Result = nil
	}
	return status, nil
}

// Queues returns the queue records listed for region. ok is false when the
// region is absent or is not a list. Records that do not decode, or carry no
// id, are dropped.
func (s *StatusResponse) Queues(region string) (queues []QueueRecord, ok bool) {
	if s == nil || s.Result == nil {
		return nil, false
	}
	raw, exists := s.Result[region]
	if !exists {
		return nil, false
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil || entries == nil {
		return nil, false
	}

	for _, entry := range entries {
		var rec queueRecordJSON
		if err := json.Unmarshal(entry, &rec); err != nil || rec.ID == nil {
			continue
		}
		queue := QueueRecord{ID: *rec.ID, Name: unknownQueue}
		if rec.Name != nil && *rec.Name != "" {
			queue.Name = *rec.Name
		}
		if rec.TicketCount != nil {
			queue.TicketCount = *rec.TicketCount
		}
		queues = append(queues, queue)
	}
	return queues, true
}

// Preview returns at most previewMaxSize bytes of the raw body.
func (s *StatusResponse) Preview() string {
	if s == nil {
		return ""
	}
	if len(s.raw) > previewMaxSize {
		return string(s.raw[:previewMaxSize]) + "..."
	}
	return string(s.raw)
}

type StatusFetcher struct {
	url        string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewStatusFetcher returns a fetcher whose client skips certificate
// verification. The status host serves a chain that does not verify, and
// the exception is scoped to this client only.
func NewStatusFetcher(url string, logger *logging.Logger) *StatusFetcher {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec

	return &StatusFetcher{
		url: url,
		httpClient: &http.Client{
			Timeout:   fetchTimeout,
			Transport: transport,
		},
		logger: logger,
	}
}

// Fetch retrieves and parses the queue status. Transport problems are
// logged and returned wrapping ErrStatusUnavailable.
func (f *StatusFetcher) Fetch(ctx context.Context) (*StatusResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating status request: %w", err)
	}
	for key, value := range browserHeaders {
		req.Header.Set(key, value)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		f.logger.Errorf("Error fetching status: %v", err)
		return nil, fmt.Errorf("%w: %w", ErrStatusUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		f.logger.Errorf("Error fetching status: API returned non-OK status: %s", resp.Status)
		return nil, fmt.Errorf("%w: status %d", ErrStatusUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		f.logger.Errorf("Error reading status response body: %v", err)
		return nil, fmt.Errorf("%w: %w", ErrStatusUnavailable, err)
	}

	return ParseStatus(body)
}
