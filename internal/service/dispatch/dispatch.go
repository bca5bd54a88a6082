// Package dispatch runs the four form actions: validate the submitted fields,
// shape a payload and forward it to the engagement platform. Every outcome is
// returned as a Result; nothing is retried.
package dispatch

import (
	"context"
	"errors"
	"reflect"

	"go.uber.org/zap"

	applog "github.com/janisto/engage-forms/internal/platform/logging"
	"github.com/janisto/engage-forms/internal/platform/metrics"
	"github.com/janisto/engage-forms/internal/platform/middleware"
	"github.com/janisto/engage-forms/internal/platform/timeutil"
	"github.com/janisto/engage-forms/internal/service/engagement"
	"github.com/janisto/engage-forms/internal/service/profile"
)

// Action names a dispatcher operation.
type Action string

const (
	ActionLogin          Action = "login"
	ActionUpdateProfile  Action = "update-profile"
	ActionRaiseEvent     Action = "raise-event"
	ActionPushPermission Action = "push-permission"
)

// Kind is the outcome of an action.
type Kind string

const (
	KindOK                      Kind = "ok"
	KindIncompleteOrInvalidDate Kind = Kind(profile.KindIncompleteOrInvalidDate)
	KindInvalidPhoneFormat      Kind = Kind(profile.KindInvalidPhoneFormat)
	KindInsecureContext         Kind = "insecure_context"
	KindSDKUnavailable          Kind = "sdk_unavailable"
	KindSDKCallFailed           Kind = "sdk_call_failed"
)

// CustomEventName is the event raised by RaiseEvent.
const CustomEventName = "UserCustomEvent"

// Fallback messages when the failure carries no text of its own.
const (
	MsgPushFailedFallback = "Failed to trigger push notification dialog."
	MsgCallFailed         = "The engagement platform did not accept the request. Please try again later."
)

// DefaultPushPrompt is the soft prompt shown before the browser's own
// permission dialog.
var DefaultPushPrompt = engagement.PushPrompt{
	TitleText:             "Would you like to receive Push Notifications?",
	BodyText:              "We promise to only send you relevant content and give you updates on your transactions",
	OkButtonText:          "Sign me up!",
	RejectButtonText:      "No thanks",
	AskAgainTimeInSeconds: 5,
	OkButtonColor:         "#f28046",
}

// Result is the outcome of one action. Payload is the value handed to the
// platform on success, nil otherwise.
type Result struct {
	Action  Action
	Kind    Kind
	Message string
	Payload any
}

// OK reports whether the action succeeded.
func (r Result) OK() bool {
	return r.Kind == KindOK
}

// Dispatcher runs form actions against an engagement platform.
type Dispatcher struct {
	sdk engagement.Service
}

// New creates a Dispatcher. A nil sdk, including a typed nil pointer, is
// allowed; actions then report KindSDKUnavailable.
func New(sdk engagement.Service) *Dispatcher {
	if isNil(sdk) {
		sdk = nil
	}
	return &Dispatcher{sdk: sdk}
}

func isNil(sdk engagement.Service) bool {
	if sdk == nil {
		return true
	}
	v := reflect.ValueOf(sdk)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return v.IsNil()
	}
	return false
}

// Login validates in and pushes the profile as a login.
func (d *Dispatcher) Login(ctx context.Context, in profile.Input) Result {
	return d.withProfile(ctx, ActionLogin, in, func(p *profile.Profile) (any, error) {
		payload := sitePayload(p)
		return payload, d.sdk.Login(ctx, payload)
	})
}

// UpdateProfile validates in and pushes a profile update.
func (d *Dispatcher) UpdateProfile(ctx context.Context, in profile.Input) Result {
	return d.withProfile(ctx, ActionUpdateProfile, in, func(p *profile.Profile) (any, error) {
		payload := sitePayload(p)
		return payload, d.sdk.PushProfile(ctx, payload)
	})
}

// RaiseEvent validates in and raises CustomEventName with the demo payload.
func (d *Dispatcher) RaiseEvent(ctx context.Context, in profile.Input) Result {
	return d.withProfile(ctx, ActionRaiseEvent, in, func(p *profile.Profile) (any, error) {
		event := customEvent(p)
		return event, d.sdk.PushEvent(ctx, event)
	})
}

// RequestPushPermission asks the platform to show the push prompt on the page
// described by origin. The page must be secure and the capability present
// before any call is made.
func (d *Dispatcher) RequestPushPermission(ctx context.Context, origin middleware.PageOrigin) Result {
	if !origin.IsSecure() {
		return d.finish(ctx, Result{Action: ActionPushPermission, Kind: KindInsecureContext})
	}
	if d.sdk == nil {
		return d.finish(ctx, Result{Action: ActionPushPermission, Kind: KindSDKUnavailable})
	}
	notifications := d.sdk.Notifications()
	if notifications == nil {
		return d.finish(ctx, Result{Action: ActionPushPermission, Kind: KindSDKUnavailable})
	}

	if err := notifications.Push(ctx, DefaultPushPrompt); err != nil {
		applog.LogError(ctx, "push permission request failed", err)
		return d.finish(ctx, Result{
			Action:  ActionPushPermission,
			Kind:    KindSDKCallFailed,
			Message: pushFailureMessage(err),
		})
	}
	return d.finish(ctx, Result{Action: ActionPushPermission, Kind: KindOK, Payload: DefaultPushPrompt})
}

func (d *Dispatcher) withProfile(
	ctx context.Context,
	action Action,
	in profile.Input,
	call func(*profile.Profile) (any, error),
) Result {
	p, err := profile.Validate(in)
	if err != nil {
		var verr *profile.ValidationError
		if errors.As(err, &verr) {
			return d.finish(ctx, Result{Action: action, Kind: Kind(verr.Kind), Message: verr.Message})
		}
		applog.LogError(ctx, "validator failed", err, zap.String("action", string(action)))
		return d.finish(ctx, Result{Action: action, Kind: KindIncompleteOrInvalidDate, Message: profile.MsgIncompleteOrInvalidDate})
	}

	if d.sdk == nil {
		return d.finish(ctx, Result{Action: action, Kind: KindSDKUnavailable})
	}

	payload, err := call(p)
	if err != nil {
		// The error chain is safe to log: neither the client nor the
		// platform's error text carries the submitted values.
		applog.LogError(ctx, "engagement call failed", err, zap.String("action", string(action)))
		return d.finish(ctx, Result{Action: action, Kind: KindSDKCallFailed, Message: MsgCallFailed})
	}
	return d.finish(ctx, Result{Action: action, Kind: KindOK, Payload: payload})
}

func (d *Dispatcher) finish(ctx context.Context, r Result) Result {
	applog.LogAction(ctx, string(r.Action), string(r.Kind), nil)
	metrics.ObserveAction(string(r.Action), string(r.Kind))
	return r
}

func sitePayload(p *profile.Profile) engagement.SitePayload {
	return engagement.SitePayload{Site: engagement.SiteProfile{
		Name:  p.Name(),
		Email: p.Email(),
		Phone: p.Phone(),
		DOB:   p.DateOfBirth(),
	}}
}

// customEvent carries fixed demonstration values; only DateTimeProp comes
// from the form.
func customEvent(p *profile.Profile) engagement.Event {
	return engagement.Event{
		Name:     CustomEventName,
		Identity: p.Email(),
		Data: map[string]any{
			"StringProp":   "HelloWorld",
			"IntegerProp":  42,
			"FloatProp":    3.14,
			"DateTimeProp": timeutil.FormatDate(p.DateOfBirth()),
		},
	}
}

// pushFailureMessage returns the platform's own message. Transport errors
// name internal endpoints, so anything else becomes the fallback text.
func pushFailureMessage(err error) string {
	var upstream *engagement.UpstreamError
	if errors.As(err, &upstream) && upstream.Message != "" {
		return upstream.Message
	}
	return MsgPushFailedFallback
}
