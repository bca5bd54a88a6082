package actions

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor"
	"github.com/fxamacker/cbor/v2"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	applog "github.com/janisto/engage-forms/internal/platform/logging"
	appmiddleware "github.com/janisto/engage-forms/internal/platform/middleware"
	"github.com/janisto/engage-forms/internal/platform/respond"
	"github.com/janisto/engage-forms/internal/service/dispatch"
	"github.com/janisto/engage-forms/internal/service/engagement"
	"github.com/janisto/engage-forms/internal/service/profile"
)

const ashaJSON = `{"name":"Asha","email":"asha@example.com","phone":"+911234567890","dob":"1990-05-20"}`

func newTestRouter(sdk engagement.Service) chi.Router {
	huma.NewError = respond.NewError
	router := chi.NewRouter()
	router.Use(
		appmiddleware.RequestID(),
		chimiddleware.RealIP,
		applog.RequestLogger(""),
		appmiddleware.Origin(),
		respond.Recoverer(),
	)
	api := humachi.New(router, huma.DefaultConfig("ActionsTest", "test"))
	Register(api, dispatch.New(sdk))
	return router
}

func postJSON(t *testing.T, router http.Handler, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func decodeJSON(t *testing.T, resp *httptest.ResponseRecorder) ActionResponse {
	t.Helper()
	if ct := resp.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json, got %s", ct)
	}
	var out ActionResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("json unmarshal: %v", err)
	}
	return out
}

func TestFormActionsSuccess(t *testing.T) {
	tests := []struct {
		path   string
		method string
		title  string
	}{
		{path: "/actions/login", method: "Login", title: TitleLoginOK},
		{path: "/actions/profile", method: "PushProfile", title: TitleProfileOK},
		{path: "/actions/event", method: "PushEvent", title: TitleEventOK},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			mock := engagement.NewMockService()
			router := newTestRouter(mock)

			resp := postJSON(t, router, tt.path, ashaJSON, nil)
			if resp.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
			}
			out := decodeJSON(t, resp)
			if out.Result != "ok" {
				t.Fatalf("expected result ok, got %s", out.Result)
			}
			n := out.Notification
			if n.Icon != "success" || n.Title != tt.title || n.TimerMs != 1500 || n.ShowConfirmButton {
				t.Fatalf("unexpected notification: %+v", n)
			}
			calls := mock.Calls()
			if len(calls) != 1 || calls[0].Method != tt.method {
				t.Fatalf("expected one %s call, got %+v", tt.method, calls)
			}
		})
	}
}

func TestFormActionsValidation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		result  string
		title   string
		timerMs int
	}{
		{
			name:    "short phone",
			body:    `{"name":"Asha","email":"asha@example.com","phone":"12345","dob":"1990-05-20"}`,
			result:  "invalid_phone_format",
			title:   profile.MsgInvalidPhoneFormat,
			timerMs: 2000,
		},
		{
			name:    "empty dob",
			body:    `{"name":"Asha","email":"asha@example.com","phone":"+911234567890","dob":""}`,
			result:  "incomplete_or_invalid_date",
			title:   profile.MsgIncompleteOrInvalidDate,
			timerMs: 1800,
		},
		{
			name:    "missing fields",
			body:    `{"name":"Asha"}`,
			result:  "incomplete_or_invalid_date",
			title:   profile.MsgIncompleteOrInvalidDate,
			timerMs: 1800,
		},
		{
			name:    "malformed dob",
			body:    `{"name":"Asha","email":"asha@example.com","phone":"+911234567890","dob":"1990-13-40"}`,
			result:  "incomplete_or_invalid_date",
			title:   profile.MsgIncompleteOrInvalidDate,
			timerMs: 1800,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := engagement.NewMockService()
			router := newTestRouter(mock)

			resp := postJSON(t, router, "/actions/login", tt.body, nil)
			if resp.Code != http.StatusUnprocessableEntity {
				t.Fatalf("expected 422, got %d: %s", resp.Code, resp.Body.String())
			}
			out := decodeJSON(t, resp)
			if out.Result != tt.result {
				t.Fatalf("expected %s, got %s", tt.result, out.Result)
			}
			n := out.Notification
			if n.Icon != "error" || n.Title != tt.title || n.TimerMs != tt.timerMs {
				t.Fatalf("unexpected notification: %+v", n)
			}
			if calls := mock.Calls(); len(calls) != 0 {
				t.Fatalf("expected no platform calls, got %+v", calls)
			}
		})
	}
}

func TestFormActionUnavailable(t *testing.T) {
	router := newTestRouter(nil)

	resp := postJSON(t, router, "/actions/event", ashaJSON, nil)
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.Code)
	}
	out := decodeJSON(t, resp)
	if out.Result != "sdk_unavailable" || out.Notification.Title != TitleUnavailable {
		t.Fatalf("unexpected response: %+v", out)
	}
}

func TestFormActionCallFailed(t *testing.T) {
	mock := engagement.NewMockService()
	mock.FailWith("PushProfile", errors.New("upstream down"))
	router := newTestRouter(mock)

	resp := postJSON(t, router, "/actions/profile", ashaJSON, nil)
	if resp.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.Code)
	}
	out := decodeJSON(t, resp)
	if out.Result != "sdk_call_failed" {
		t.Fatalf("expected sdk_call_failed, got %s", out.Result)
	}
	if out.Notification.Title != TitleRequestFailed || out.Notification.Text != dispatch.MsgCallFailed {
		t.Fatalf("unexpected notification: %+v", out.Notification)
	}
	if strings.Contains(resp.Body.String(), "upstream down") {
		t.Fatal("response must not expose the upstream error")
	}
}

func TestPushPermissionSecureOrigin(t *testing.T) {
	for _, origin := range []string{"https://shop.example.com", "http://localhost:3000"} {
		t.Run(origin, func(t *testing.T) {
			mock := engagement.NewMockService()
			router := newTestRouter(mock)

			resp := postJSON(t, router, "/actions/push-permission", "", map[string]string{"Origin": origin})
			if resp.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
			}
			out := decodeJSON(t, resp)
			n := out.Notification
			if out.Result != "ok" || n.Icon != "info" || n.Title != TitlePushOK || n.TimerMs != 2500 {
				t.Fatalf("unexpected response: %+v", out)
			}
			calls := mock.Calls()
			if len(calls) != 1 || calls[0].Method != "Push" {
				t.Fatalf("expected one Push call, got %+v", calls)
			}
		})
	}
}

func TestPushPermissionInsecureOrigin(t *testing.T) {
	mock := engagement.NewMockService()
	router := newTestRouter(mock)

	resp := postJSON(t, router, "/actions/push-permission", "", map[string]string{"Origin": "http://example.com"})
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.Code)
	}
	out := decodeJSON(t, resp)
	n := out.Notification
	if out.Result != "insecure_context" || n.Title != TitleInsecure || n.Text != TextInsecure {
		t.Fatalf("unexpected response: %+v", out)
	}
	if n.TimerMs != 0 || !n.ShowConfirmButton {
		t.Fatalf("expected an untimed notification with a confirm button, got %+v", n)
	}
	if calls := mock.Calls(); len(calls) != 0 {
		t.Fatalf("expected no platform calls, got %+v", calls)
	}
}

func TestPushPermissionFailure(t *testing.T) {
	mock := engagement.NewMockService()
	mock.FailWith("Push", fmt.Errorf("requesting push permission: %w", &engagement.UpstreamError{Message: "prompt blocked"}))
	router := newTestRouter(mock)

	resp := postJSON(t, router, "/actions/push-permission", "", map[string]string{"Origin": "https://example.com"})
	if resp.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.Code)
	}
	out := decodeJSON(t, resp)
	if out.Notification.Title != TitlePushFailed || out.Notification.Text != "prompt blocked" {
		t.Fatalf("unexpected notification: %+v", out.Notification)
	}
}

func TestPushPermissionTransportFailureHidesDetails(t *testing.T) {
	mock := engagement.NewMockService()
	mock.FailWith("Push", errors.New(`requesting push permission: Post "https://notify.internal/push": dial tcp: connection refused`))
	router := newTestRouter(mock)

	resp := postJSON(t, router, "/actions/push-permission", "", map[string]string{"Origin": "https://example.com"})
	if resp.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.Code)
	}
	out := decodeJSON(t, resp)
	if out.Notification.Text != dispatch.MsgPushFailedFallback {
		t.Fatalf("expected fallback text, got %q", out.Notification.Text)
	}
	if strings.Contains(resp.Body.String(), "notify.internal") {
		t.Fatal("response must not expose the notifications endpoint")
	}
}

func TestEmptyBodyIsIncompleteForm(t *testing.T) {
	for _, body := range []string{"", "{}"} {
		t.Run("body="+body, func(t *testing.T) {
			mock := engagement.NewMockService()
			router := newTestRouter(mock)

			resp := postJSON(t, router, "/actions/profile", body, nil)
			if resp.Code != http.StatusUnprocessableEntity {
				t.Fatalf("expected 422, got %d: %s", resp.Code, resp.Body.String())
			}
			out := decodeJSON(t, resp)
			if out.Result != "incomplete_or_invalid_date" {
				t.Fatalf("expected incomplete_or_invalid_date, got %s", out.Result)
			}
			if calls := mock.Calls(); len(calls) != 0 {
				t.Fatalf("expected no platform calls, got %+v", calls)
			}
		})
	}
}

func TestUnknownPropertiesAreIgnored(t *testing.T) {
	mock := engagement.NewMockService()
	router := newTestRouter(mock)

	body := `{"name":"Asha","email":"asha@example.com","phone":"+911234567890","dob":"1990-05-20","extra":"x"}`
	resp := postJSON(t, router, "/actions/login", body, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if out := decodeJSON(t, resp); out.Result != "ok" {
		t.Fatalf("expected ok, got %s", out.Result)
	}
}

func TestSchemaErrorsDoNotEchoFormValues(t *testing.T) {
	router := newTestRouter(engagement.NewMockService())

	body := `{"name":"Asha","email":"asha@example.com","phone":911234567890,"dob":"1990-05-20"}`
	resp := postJSON(t, router, "/actions/login", body, nil)
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", resp.Code, resp.Body.String())
	}
	if ct := resp.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Fatalf("expected application/problem+json, got %s", ct)
	}
	for _, secret := range []string{"911234567890", "asha@example.com", "1990-05-20"} {
		if strings.Contains(resp.Body.String(), secret) {
			t.Errorf("problem document leaks %q: %s", secret, resp.Body.String())
		}
	}
}

func TestLoginCBOR(t *testing.T) {
	mock := engagement.NewMockService()
	router := newTestRouter(mock)

	cborBody, err := cbor.Marshal(map[string]string{
		"name":  "Asha",
		"email": "asha@example.com",
		"phone": "+911234567890",
		"dob":   "1990-05-20",
	})
	if err != nil {
		t.Fatalf("cbor marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/actions/login", bytes.NewReader(cborBody))
	req.Header.Set("Content-Type", "application/cbor")
	req.Header.Set("Accept", "application/cbor")
	req.Header.Set(chimiddleware.RequestIDHeader, "actions-login-cbor")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if ct := resp.Header().Get("Content-Type"); ct != "application/cbor" {
		t.Errorf("expected application/cbor, got %s", ct)
	}
	var out ActionResponse
	if err := cbor.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("cbor unmarshal: %v", err)
	}
	if out.Result != "ok" || out.Notification.Title != TitleLoginOK {
		t.Fatalf("unexpected response: %+v", out)
	}
}

func TestMalformedBodyIsProblem(t *testing.T) {
	router := newTestRouter(engagement.NewMockService())

	resp := postJSON(t, router, "/actions/login", `{"name":`, nil)
	if resp.Code != http.StatusBadRequest && resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 400 or 422, got %d", resp.Code)
	}
	if ct := resp.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("expected application/problem+json, got %s", ct)
	}
}
