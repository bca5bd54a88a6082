package engagement

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	applog "github.com/janisto/engage-forms/internal/platform/logging"
	"github.com/janisto/engage-forms/internal/platform/metrics"
)

const (
	defaultBaseURL = "https://api.clevertap.com"
	uploadPath     = "/1/upload"
	userAgent      = "engage-forms"

	headerAccountID = "X-CleverTap-Account-Id"
	headerPasscode  = "X-CleverTap-Passcode"

	// maxErrorBody bounds how much of an upstream error body is read.
	maxErrorBody = 64 << 10
)

// Client implements Service using the engagement platform's upload API.
type Client struct {
	httpClient       *http.Client
	baseURL          string
	accountID        string
	passcode         string
	notificationsURL string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets a custom base URL (regional endpoints, tests).
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithCredentials sets the account ID and passcode sent on every request.
func WithCredentials(accountID, passcode string) Option {
	return func(c *Client) {
		c.accountID = accountID
		c.passcode = passcode
	}
}

// WithNotificationsURL enables the web push capability, posting prompt
// configurations to url.
func WithNotificationsURL(url string) Option {
	return func(c *Client) {
		c.notificationsURL = url
	}
}

// NewClient creates a new engagement platform client.
func NewClient(httpClient *http.Client, opts ...Option) *Client {
	c := &Client{
		httpClient: httpClient,
		baseURL:    defaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Upload API wire types.

type uploadRequest struct {
	D []uploadRecord `json:"d"`
}

type uploadRecord struct {
	Identity    string         `json:"identity"`
	Type        string         `json:"type"`
	ProfileData map[string]any `json:"profileData,omitempty"`
	EvtName     string         `json:"evtName,omitempty"`
	EvtData     map[string]any `json:"evtData,omitempty"`
}

type uploadResponse struct {
	Status      string            `json:"status"`
	Processed   int               `json:"processed"`
	Error       string            `json:"error"`
	Code        int               `json:"code"`
	Unprocessed []json.RawMessage `json:"unprocessed"`
}

// platformDate renders a time in the platform's "$D_<epoch seconds>" form.
func platformDate(t time.Time) string {
	return fmt.Sprintf("$D_%d", t.Unix())
}

func profileRecord(p SiteProfile) uploadRecord {
	return uploadRecord{
		Identity: p.Email,
		Type:     "profile",
		ProfileData: map[string]any{
			"Name":  p.Name,
			"Email": p.Email,
			"Phone": p.Phone,
			"DOB":   platformDate(p.DOB),
		},
	}
}

// Login uploads the profile under the user's identity, which makes it the
// active profile for that identity on the platform.
func (c *Client) Login(ctx context.Context, payload SitePayload) error {
	if err := c.upload(ctx, "login", profileRecord(payload.Site)); err != nil {
		return fmt.Errorf("pushing login: %w", err)
	}
	return nil
}

// PushProfile updates profile properties for the user's identity.
func (c *Client) PushProfile(ctx context.Context, payload SitePayload) error {
	if err := c.upload(ctx, "profile", profileRecord(payload.Site)); err != nil {
		return fmt.Errorf("pushing profile: %w", err)
	}
	return nil
}

// PushEvent records a custom event for the event's identity.
func (c *Client) PushEvent(ctx context.Context, event Event) error {
	record := uploadRecord{
		Identity: event.Identity,
		Type:     "event",
		EvtName:  event.Name,
		EvtData:  event.Data,
	}
	if err := c.upload(ctx, "event", record); err != nil {
		return fmt.Errorf("pushing event: %w", err)
	}
	return nil
}

// Notifications returns the web push capability, or nil when no
// notifications endpoint is configured.
func (c *Client) Notifications() Notifications {
	if c.notificationsURL == "" {
		return nil
	}
	return clientNotifications{c: c}
}

type clientNotifications struct {
	c *Client
}

func (n clientNotifications) Push(ctx context.Context, prompt PushPrompt) error {
	start := time.Now()
	resp, err := n.c.post(ctx, n.c.notificationsURL, prompt)
	if err != nil {
		metrics.ObserveUpstream("notifications", "transport_error", time.Since(start))
		return fmt.Errorf("requesting push permission: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := n.c.decodeResponse(ctx, resp, nil); err != nil {
		metrics.ObserveUpstream("notifications", "error", time.Since(start))
		return err
	}
	metrics.ObserveUpstream("notifications", "success", time.Since(start))
	return nil
}

func (c *Client) upload(ctx context.Context, op string, record uploadRecord) error {
	start := time.Now()
	resp, err := c.post(ctx, c.baseURL+uploadPath, uploadRequest{D: []uploadRecord{record}})
	if err != nil {
		metrics.ObserveUpstream("upload", "transport_error", time.Since(start))
		return fmt.Errorf("sending upload: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var out uploadResponse
	if err := c.decodeResponse(ctx, resp, &out); err != nil {
		metrics.ObserveUpstream("upload", "error", time.Since(start))
		return err
	}
	if err := checkUpload(resp, &out); err != nil {
		metrics.ObserveUpstream("upload", "rejected", time.Since(start))
		applog.LogWarn(ctx, "engagement upload rejected",
			zap.String("operation", op),
			zap.Int("code", out.Code),
			zap.Int("unprocessed", len(out.Unprocessed)),
		)
		return err
	}
	metrics.ObserveUpstream("upload", "success", time.Since(start))
	return nil
}

func (c *Client) post(ctx context.Context, url string, body any) (*http.Response, error) {
	buf, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if c.accountID != "" {
		req.Header.Set(headerAccountID, c.accountID)
		req.Header.Set(headerPasscode, c.passcode)
	}

	return c.httpClient.Do(req)
}

// decodeResponse maps non-2xx statuses to UpstreamError and decodes 2xx
// bodies into target when target is non-nil.
func (c *Client) decodeResponse(ctx context.Context, resp *http.Response, target any) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if target == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return fmt.Errorf("decoding engagement response: %w", err)
		}
		return nil
	}

	var failure uploadResponse
	_ = json.NewDecoder(io.LimitReader(resp.Body, maxErrorBody)).Decode(&failure)

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		applog.LogWarn(ctx, "engagement credentials rejected", zap.Int("status", resp.StatusCode))
		return upstreamError(resp, &failure, UpstreamErrorKindUnauthorized, ErrUnauthorized)
	case resp.StatusCode == http.StatusTooManyRequests:
		applog.LogWarn(ctx, "engagement rate limit exceeded",
			zap.Int("status", resp.StatusCode),
			zap.String("Retry-After", resp.Header.Get("Retry-After")),
		)
		return upstreamError(resp, &failure, UpstreamErrorKindRateLimited, ErrRateLimited)
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return upstreamError(resp, &failure, UpstreamErrorKindRejected, ErrRejected)
	default:
		return upstreamError(resp, &failure, UpstreamErrorKindUpstream, ErrUpstream)
	}
}

// checkUpload inspects a 2xx upload body: the platform reports per-record
// failures with status "fail" or a non-empty unprocessed list.
func checkUpload(resp *http.Response, out *uploadResponse) error {
	if strings.EqualFold(out.Status, "fail") || len(out.Unprocessed) > 0 {
		return upstreamError(resp, out, UpstreamErrorKindRejected, ErrRejected)
	}
	return nil
}

func upstreamError(resp *http.Response, body *uploadResponse, kind UpstreamErrorKind, cause error) *UpstreamError {
	return &UpstreamError{
		Kind:    kind,
		Status:  resp.StatusCode,
		Code:    body.Code,
		Message: body.Error,
		cause:   cause,
	}
}

// Compile-time interface check
var _ Service = (*Client)(nil)
