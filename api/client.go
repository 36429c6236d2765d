// Package api is the HTTP client for the Megacoop KYC backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/google/uuid"

	"megacoop-kyc/kyc"
	"megacoop-kyc/metrics"
	"megacoop-kyc/shared"
)

// ErrNotStarted is returned by FetchStatus when the backend reports that the
// user has not started KYC.
var ErrNotStarted = errors.New("kyc not started")

// ErrMissingBaseURL indicates the API base URL is not configured.
var ErrMissingBaseURL = errors.New("api base URL is required")

// Error is a response the backend rejected, either with a non-2xx status or
// with success=false in the body.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.StatusCode, e.Message)
}

// UserMessage is the server-supplied message, shown verbatim to the user.
func (e *Error) UserMessage() string { return e.Message }

// Options configures a Client.
type Options struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
	Metrics    *metrics.Metrics
}

// Client talks to the status and per-step verification endpoints.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *slog.Logger
	metrics *metrics.Metrics
}

const defaultTimeout = 30 * time.Second

// New builds a client.
func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, ErrMissingBaseURL
	}
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		token:   opts.Token,
		http:    hc,
		logger:  logger.With("component", "api"),
		metrics: opts.Metrics,
	}, nil
}

// envelope is the common response body. Data is a status record object, a
// string ("not started") or absent.
type envelope struct {
	Success *bool           `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// FetchStatus reads the user's verification status.
func (c *Client) FetchStatus(ctx context.Context) (shared.StatusRecord, error) {
	env, err := c.do(ctx, "status", http.MethodGet, shared.PathStatus, nil, "")
	if err != nil {
		return shared.StatusRecord{}, err
	}

	data := bytes.TrimSpace(env.Data)
	if len(data) == 0 || data[0] != '{' {
		return shared.StatusRecord{}, ErrNotStarted
	}
	var rec shared.StatusRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return shared.StatusRecord{}, fmt.Errorf("decode status record: %w", err)
	}
	return rec, nil
}

// VerifyNIN submits a National Identification Number.
func (c *Client) VerifyNIN(ctx context.Context, nin string) error {
	return c.postJSON(ctx, "nin", shared.PathNIN, map[string]string{"nin": nin})
}

// VerifyBVN submits a Bank Verification Number.
func (c *Client) VerifyBVN(ctx context.Context, bvn string) error {
	return c.postJSON(ctx, "bvn", shared.PathBVN, map[string]string{"bvn": bvn})
}

// UploadIDCard uploads an identity document of the given type.
func (c *Client) UploadIDCard(ctx context.Context, idType kyc.IDType, doc kyc.Document) error {
	return c.postMultipart(ctx, "id_card", shared.PathIDCard, map[string]string{"id_type": string(idType)}, doc)
}

// UploadProofOfAddress uploads a proof of address with the address text.
func (c *Client) UploadProofOfAddress(ctx context.Context, address string, doc kyc.Document) error {
	return c.postMultipart(ctx, "proof_of_address", shared.PathProofOfAddress, map[string]string{"address": address}, doc)
}

// StartFaceCapture opens a face capture session.
func (c *Client) StartFaceCapture(ctx context.Context) error {
	return c.postJSON(ctx, "face_start", shared.PathFaceStart, struct{}{})
}

// SendFaceCapture sends the captured frame as a base64 data URI.
func (c *Client) SendFaceCapture(ctx context.Context, image string) error {
	return c.postJSON(ctx, "face_send", shared.PathFaceSend, map[string]string{"image": image})
}

// Submit dispatches a wizard submission to its endpoint.
func (c *Client) Submit(ctx context.Context, s kyc.Submission) error {
	switch sub := s.(type) {
	case kyc.NINSubmission:
		return c.VerifyNIN(ctx, sub.NIN)
	case kyc.BVNSubmission:
		return c.VerifyBVN(ctx, sub.BVN)
	case kyc.IDCardSubmission:
		return c.UploadIDCard(ctx, sub.IDType, sub.Document)
	case kyc.AddressSubmission:
		return c.UploadProofOfAddress(ctx, sub.Address, sub.Document)
	case kyc.FaceSubmission:
		return c.SendFaceCapture(ctx, sub.Image)
	default:
		return fmt.Errorf("unsupported submission %T", s)
	}
}

func (c *Client) postJSON(ctx context.Context, op, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", op, err)
	}
	_, err = c.do(ctx, op, http.MethodPost, path, bytes.NewReader(body), "application/json")
	return err
}

func (c *Client) postMultipart(ctx context.Context, op, path string, fields map[string]string, doc kyc.Document) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return fmt.Errorf("write %s field %s: %w", op, k, err)
		}
	}

	name := doc.Name
	if name == "" {
		name = "document"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, name))
	h.Set("Content-Type", doc.ContentType())
	part, err := mw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("create %s file part: %w", op, err)
	}
	if _, err := part.Write(doc.Data); err != nil {
		return fmt.Errorf("write %s file part: %w", op, err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("close %s form: %w", op, err)
	}

	_, err = c.do(ctx, op, http.MethodPost, path, &buf, mw.FormDataContentType())
	return err
}

func (c *Client) do(ctx context.Context, op, method, path string, body io.Reader, contentType string) (envelope, error) {
	start := time.Now()
	requestID := uuid.NewString()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return envelope{}, fmt.Errorf("build %s request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.ObserveRequest(op, metrics.OutcomeError, time.Since(start))
		return envelope{}, fmt.Errorf("%s request: %w", op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.ObserveRequest(op, metrics.OutcomeError, time.Since(start))
		return envelope{}, fmt.Errorf("read %s response: %w", op, err)
	}

	var env envelope
	if len(bytes.TrimSpace(raw)) > 0 {
		// Success bodies may have any shape; only the envelope fields matter.
		if err := json.Unmarshal(raw, &env); err != nil && resp.StatusCode < 300 {
			env = envelope{}
		}
	}

	c.logger.Debug("backend call",
		"operation", op,
		"status", resp.StatusCode,
		"requestId", requestID,
		"elapsed", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || (env.Success != nil && !*env.Success) {
		c.metrics.ObserveRequest(op, metrics.OutcomeRejected, time.Since(start))
		return env, &Error{StatusCode: resp.StatusCode, Message: env.Message}
	}

	c.metrics.ObserveRequest(op, metrics.OutcomeSuccess, time.Since(start))
	return env, nil
}
