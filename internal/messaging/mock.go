package messaging

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// MockSender is a mock messaging gateway for testing.
type MockSender struct {
	// SendTextFunc allows customizing send behavior
	SendTextFunc func(ctx context.Context, number, text string) (string, error)

	// Sent stores delivered messages as "number|text"
	Sent []string

	// CallLog tracks method calls for test assertions
	CallLog []string
}

// Compile-time check that MockSender implements Sender.
var _ Sender = (*MockSender)(nil)

// NewMockSender creates a new mock messaging gateway.
func NewMockSender() *MockSender {
	return &MockSender{
		Sent:    []string{},
		CallLog: []string{},
	}
}

// SendText records a delivered message.
func (m *MockSender) SendText(ctx context.Context, number, text string) (string, error) {
	m.CallLog = append(m.CallLog, fmt.Sprintf("SendText(%s)", number))

	if m.SendTextFunc != nil {
		return m.SendTextFunc(ctx, number, text)
	}

	m.Sent = append(m.Sent, number+"|"+text)
	return "msg_" + uuid.New().String()[:8], nil
}

// ConnectionState always reports an open instance.
func (m *MockSender) ConnectionState(ctx context.Context) (string, error) {
	m.CallLog = append(m.CallLog, "ConnectionState")
	return "open", nil
}

// PairingQRCode returns a stub QR payload.
func (m *MockSender) PairingQRCode(ctx context.Context) (string, error) {
	m.CallLog = append(m.CallLog, "PairingQRCode")
	return "data:image/png;base64,iVBORw0KGgo=", nil
}
