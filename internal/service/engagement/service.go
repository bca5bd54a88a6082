package engagement

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Service errors
var (
	ErrRejected     = errors.New("engagement platform rejected the request")
	ErrUnauthorized = errors.New("engagement platform credentials rejected")
	ErrRateLimited  = errors.New("engagement platform rate limit exceeded")
	ErrUpstream     = errors.New("engagement platform upstream error")
)

// UpstreamErrorKind classifies engagement platform failures.
type UpstreamErrorKind string

const (
	UpstreamErrorKindRejected     UpstreamErrorKind = "rejected"
	UpstreamErrorKindUnauthorized UpstreamErrorKind = "unauthorized"
	UpstreamErrorKindRateLimited  UpstreamErrorKind = "rate_limited"
	UpstreamErrorKindUpstream     UpstreamErrorKind = "upstream"
)

// UpstreamError carries the platform response metadata. Message is the
// platform's own error text and never contains submitted field values.
type UpstreamError struct {
	Kind    UpstreamErrorKind
	Status  int
	Code    int
	Message string
	cause   error
}

func (e *UpstreamError) Error() string {
	if e == nil {
		return "engagement upstream error"
	}
	if e.Message == "" {
		return fmt.Sprintf("engagement upstream error (kind=%s status=%d)", e.Kind, e.Status)
	}
	return fmt.Sprintf("engagement upstream error (kind=%s status=%d): %s", e.Kind, e.Status, e.Message)
}

// Unwrap enables errors.Is/As against sentinel service errors.
func (e *UpstreamError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// SiteProfile is the profile section sent on login and profile updates.
type SiteProfile struct {
	Name  string
	Email string
	Phone string
	DOB   time.Time
}

// SitePayload wraps the profile in the platform's "Site" envelope.
type SitePayload struct {
	Site SiteProfile
}

// Event is a named custom event attributed to a user identity.
type Event struct {
	Name     string
	Identity string
	Data     map[string]any
}

// PushPrompt configures the soft prompt shown before the browser's native
// notification permission dialog.
type PushPrompt struct {
	TitleText             string `json:"titleText"`
	BodyText              string `json:"bodyText"`
	OkButtonText          string `json:"okButtonText"`
	RejectButtonText      string `json:"rejectButtonText"`
	AskAgainTimeInSeconds int    `json:"askAgainTimeInSeconds"`
	OkButtonColor         string `json:"okButtonColor"`
}

// Notifications is the web push capability of the platform.
type Notifications interface {
	Push(ctx context.Context, prompt PushPrompt) error
}

// Service defines the engagement platform operations used by the form.
type Service interface {
	Login(ctx context.Context, payload SitePayload) error
	PushProfile(ctx context.Context, payload SitePayload) error
	PushEvent(ctx context.Context, event Event) error
	// Notifications returns nil when the web push capability is not available.
	Notifications() Notifications
}
