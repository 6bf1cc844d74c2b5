package messaging

import (
	"context"
	"fmt"
	"sync/atomic"
)

// Message is one outbound notification. RecipientRef optionally
// addresses a single user; empty means a broadcast to the channel.
type Message struct {
	Title        string
	Body         string
	RecipientRef string
}

// Result is the outcome of one send attempt
type Result struct {
	Success   bool
	MessageID string
}

// Sender delivers notifications. All channels are used through this
// one contract; the caller logs a Notification row per attempt.
type Sender interface {
	Send(ctx context.Context, msg Message) (*Result, error)
	Channel() string
}

// MockSender records messages in memory. Selected explicitly when no
// webhook is configured.
type MockSender struct {
	counter atomic.Int64
}

// NewMockSender creates a MockSender
func NewMockSender() *MockSender {
	return &MockSender{}
}

// Send accepts every message and fabricates an id
func (s *MockSender) Send(_ context.Context, _ Message) (*Result, error) {
	return &Result{
		Success:   true,
		MessageID: fmt.Sprintf("mock_msg_%d", s.counter.Add(1)),
	}, nil
}

// Channel names the mock channel
func (s *MockSender) Channel() string {
	return "mock"
}
