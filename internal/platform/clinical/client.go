// Package clinical provides an HTTP client for the external clinical service
// that owns patient demographics. Reports store only opaque patient IDs; this
// client resolves them when a view needs demographic data.
package clinical

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Sentinel errors for the two failure classes callers distinguish.
var (
	ErrPatientNotFound    = errors.New("patient not found in clinical service")
	ErrServiceUnavailable = errors.New("clinical service unavailable")
)

// Patient is the demographic record returned by the clinical service.
type Patient struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	BirthDate string `json:"birthDate"`
	Gender    string `json:"gender"`
	Status    string `json:"status"`
}

const requestTimeout = 10 * time.Second

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) { cl.httpClient = c }
}

// Client calls the clinical service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates a Client for the clinical service at baseURL.
func NewClient(baseURL string, logger zerolog.Logger, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		logger: logger,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// GetPatient fetches a single patient by its clinical-service identifier.
// A 404 maps to ErrPatientNotFound; timeouts, connection failures, and
// unexpected statuses map to ErrServiceUnavailable.
func (c *Client) GetPatient(ctx context.Context, patientID string) (*Patient, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/patients/"+patientID, nil)
	if err != nil {
		return nil, fmt.Errorf("build patient request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request patient %s: %v: %w", patientID, err, ErrServiceUnavailable)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		var p Patient
		if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
			return nil, fmt.Errorf("decode patient %s: %v: %w", patientID, err, ErrServiceUnavailable)
		}
		return &p, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("patient %s: %w", patientID, ErrPatientNotFound)
	default:
		return nil, fmt.Errorf("patient %s: unexpected status %d: %w", patientID, resp.StatusCode, ErrServiceUnavailable)
	}
}

// ListPatients fetches every patient known to the clinical service.
func (c *Client) ListPatients(ctx context.Context) ([]Patient, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/patients", nil)
	if err != nil {
		return nil, fmt.Errorf("build patients request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request patients: %v: %w", err, ErrServiceUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list patients: unexpected status %d: %w", resp.StatusCode, ErrServiceUnavailable)
	}

	var patients []Patient
	if err := json.NewDecoder(resp.Body).Decode(&patients); err != nil {
		return nil, fmt.Errorf("decode patients: %v: %w", err, ErrServiceUnavailable)
	}
	return patients, nil
}

// PatientExists reports whether the patient is known to the clinical service.
// When the service cannot be reached the check fails open: the patient is
// assumed to exist and a warning is logged, so that report writes are not
// blocked by clinical-service downtime.
func (c *Client) PatientExists(ctx context.Context, patientID string) (bool, error) {
	_, err := c.GetPatient(ctx, patientID)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrPatientNotFound) {
		return false, nil
	}
	if errors.Is(err, ErrServiceUnavailable) {
		c.logger.Warn().
			Str("patient_id", patientID).
			Err(err).
			Msg("clinical service unreachable; skipping patient existence check")
		return true, nil
	}
	return false, err
}
