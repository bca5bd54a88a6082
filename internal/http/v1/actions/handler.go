package actions

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/janisto/engage-forms/internal/platform/middleware"
	"github.com/janisto/engage-forms/internal/service/dispatch"
	"github.com/janisto/engage-forms/internal/service/profile"
)

// Register registers the form action endpoints.
func Register(api huma.API, d *dispatch.Dispatcher) {
	huma.Register(api, huma.Operation{
		OperationID: "login-user",
		Method:      http.MethodPost,
		Path:        "/actions/login",
		Summary:     "Push a login",
		Description: "Validates the form and pushes the profile to the engagement platform as a login.",
		Tags:        []string{"Actions"},
	}, func(ctx context.Context, input *FormInput) (*ActionOutput, error) {
		return toOutput(d.Login(ctx, toProfileInput(input))), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "push-profile",
		Method:      http.MethodPost,
		Path:        "/actions/profile",
		Summary:     "Update the profile",
		Description: "Validates the form and pushes a profile update to the engagement platform.",
		Tags:        []string{"Actions"},
	}, func(ctx context.Context, input *FormInput) (*ActionOutput, error) {
		return toOutput(d.UpdateProfile(ctx, toProfileInput(input))), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "raise-event",
		Method:      http.MethodPost,
		Path:        "/actions/event",
		Summary:     "Raise a custom event",
		Description: "Validates the form and raises UserCustomEvent for the given email.",
		Tags:        []string{"Actions"},
	}, func(ctx context.Context, input *FormInput) (*ActionOutput, error) {
		return toOutput(d.RaiseEvent(ctx, toProfileInput(input))), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "request-push-permission",
		Method:      http.MethodPost,
		Path:        "/actions/push-permission",
		Summary:     "Request web push permission",
		Description: "Asks the engagement platform to show its push prompt. The calling page must be served over HTTPS or from localhost.",
		Tags:        []string{"Actions"},
	}, func(ctx context.Context, _ *PushPermissionInput) (*ActionOutput, error) {
		origin, _ := middleware.PageOriginFromContext(ctx)
		return toOutput(d.RequestPushPermission(ctx, origin)), nil
	})
}

func toProfileInput(input *FormInput) profile.Input {
	return profile.Input{
		Name:        input.Body.Name,
		Email:       input.Body.Email,
		Phone:       input.Body.Phone,
		DateOfBirth: input.Body.DOB,
	}
}

func toOutput(res dispatch.Result) *ActionOutput {
	n, status := present(res)
	return &ActionOutput{
		Status: status,
		Body: ActionResponse{
			Result:       string(res.Kind),
			Notification: n,
		},
	}
}
