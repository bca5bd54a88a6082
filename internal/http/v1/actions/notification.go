package actions

import (
	"net/http"

	"github.com/janisto/engage-forms/internal/service/dispatch"
)

const (
	iconSuccess = "success"
	iconInfo    = "info"
	iconError   = "error"
)

// Notification wording shown by the page.
const (
	TitleLoginOK       = "Login Event Pushed!"
	TitleProfileOK     = "Profile Updated!"
	TitleEventOK       = "Custom Event Raised!"
	TitlePushOK        = "Push Notification Request Sent!\nIf you do not see a prompt, check your browser notification permissions and reset them for this site."
	TitleInsecure      = "Push notifications require HTTPS or localhost."
	TextInsecure       = "Please serve your site over HTTPS or use localhost for push notifications to work."
	TitleUnavailable   = "CleverTap SDK not loaded"
	TextUnavailable    = "Please ensure the CleverTap JS SDK is loaded before requesting push notifications."
	TitlePushFailed    = "Push Notification Error"
	TitleRequestFailed = "Engagement Request Failed"
)

var successTitles = map[dispatch.Action]string{
	dispatch.ActionLogin:          TitleLoginOK,
	dispatch.ActionUpdateProfile:  TitleProfileOK,
	dispatch.ActionRaiseEvent:     TitleEventOK,
	dispatch.ActionPushPermission: TitlePushOK,
}

// present maps a dispatcher result to the notification and HTTP status.
func present(res dispatch.Result) (Notification, int) {
	switch res.Kind {
	case dispatch.KindOK:
		if res.Action == dispatch.ActionPushPermission {
			return timed(iconInfo, successTitles[res.Action], 2500), http.StatusOK
		}
		return timed(iconSuccess, successTitles[res.Action], 1500), http.StatusOK
	case dispatch.KindIncompleteOrInvalidDate:
		return timed(iconError, res.Message, 1800), http.StatusUnprocessableEntity
	case dispatch.KindInvalidPhoneFormat:
		return timed(iconError, res.Message, 2000), http.StatusUnprocessableEntity
	case dispatch.KindInsecureContext:
		return Notification{
			Icon:              iconError,
			Title:             TitleInsecure,
			Text:              TextInsecure,
			ShowConfirmButton: true,
		}, http.StatusForbidden
	case dispatch.KindSDKUnavailable:
		return Notification{
			Icon:              iconError,
			Title:             TitleUnavailable,
			Text:              TextUnavailable,
			ShowConfirmButton: true,
		}, http.StatusServiceUnavailable
	default:
		title := TitleRequestFailed
		text := res.Message
		if res.Action == dispatch.ActionPushPermission {
			title = TitlePushFailed
			if text == "" {
				text = dispatch.MsgPushFailedFallback
			}
		}
		return Notification{
			Icon:              iconError,
			Title:             title,
			Text:              text,
			ShowConfirmButton: true,
		}, http.StatusBadGateway
	}
}

func timed(icon, title string, ms int) Notification {
	return Notification{Icon: icon, Title: title, TimerMs: ms}
}
