package engagement

import (
	"context"
	"sync"
)

// Call records one invocation of MockService.
type Call struct {
	Method string
	Site   *SitePayload
	Event  *Event
	Prompt *PushPrompt
}

// MockService implements Service in memory. It backs unit tests and local
// runs without platform credentials.
type MockService struct {
	mu                   sync.Mutex
	calls                []Call
	errs                 map[string]error
	notificationsEnabled bool
}

// NewMockService creates a mock with the notifications capability enabled.
func NewMockService() *MockService {
	return &MockService{
		errs:                 make(map[string]error),
		notificationsEnabled: true,
	}
}

// FailWith makes the named method ("Login", "PushProfile", "PushEvent",
// "Push") return err. A nil err clears the failure.
func (m *MockService) FailWith(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.errs, method)
		return
	}
	m.errs[method] = err
}

// SetNotificationsEnabled toggles the web push capability.
func (m *MockService) SetNotificationsEnabled(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notificationsEnabled = enabled
}

// Calls returns a copy of the recorded invocations in order.
func (m *MockService) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// Reset clears recorded calls and primed failures.
func (m *MockService) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
	m.errs = make(map[string]error)
	m.notificationsEnabled = true
}

func (m *MockService) record(c Call) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, c)
	return m.errs[c.Method]
}

func (m *MockService) Login(_ context.Context, payload SitePayload) error {
	return m.record(Call{Method: "Login", Site: &payload})
}

func (m *MockService) PushProfile(_ context.Context, payload SitePayload) error {
	return m.record(Call{Method: "PushProfile", Site: &payload})
}

func (m *MockService) PushEvent(_ context.Context, event Event) error {
	return m.record(Call{Method: "PushEvent", Event: &event})
}

func (m *MockService) Notifications() Notifications {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.notificationsEnabled {
		return nil
	}
	return mockNotifications{m: m}
}

type mockNotifications struct {
	m *MockService
}

func (n mockNotifications) Push(_ context.Context, prompt PushPrompt) error {
	return n.m.record(Call{Method: "Push", Prompt: &prompt})
}

// Compile-time interface check
var _ Service = (*MockService)(nil)
