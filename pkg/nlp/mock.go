package nlp

import (
	"context"
	"sync"
)

// MockClient returns scripted responses in order, then repeats the last
// one. Used by package tests across the module.
type MockClient struct {
	mu        sync.Mutex
	Responses []string
	Err       error
	Calls     [][]Message
}

var _ Client = (*MockClient)(nil)

// Chat returns the next scripted response.
func (m *MockClient) Chat(_ context.Context, messages []Message) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, messages)
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.Responses) == 0 {
		return "", NewEmptyResponseError("no scripted response")
	}
	resp := m.Responses[0]
	if len(m.Responses) > 1 {
		m.Responses = m.Responses[1:]
	}
	return resp, nil
}

// CallCount returns the number of Chat invocations.
func (m *MockClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
