package messaging

import (
	"context"
	"errors"
)

// Sender defines the interface for the WhatsApp messaging gateway.
// Implementations target an Evolution-style instance API.
type Sender interface {
	// SendText delivers a text message to a normalized destination number.
	// Returns the gateway message identifier on success.
	SendText(ctx context.Context, number, text string) (string, error)

	// ConnectionState reports the pairing state of the messaging instance
	// (e.g., "open", "connecting", "close").
	ConnectionState(ctx context.Context) (string, error)

	// PairingQRCode fetches the base64 QR code used to pair the instance
	// with a WhatsApp account.
	PairingQRCode(ctx context.Context) (string, error)
}

var (
	// ErrInvalidAPIKey is returned when the gateway API key is missing.
	ErrInvalidAPIKey = errors.New("messaging: invalid or missing API key")

	// ErrInstanceDisconnected is returned when the instance is not paired.
	ErrInstanceDisconnected = errors.New("messaging: instance not connected")

	// ErrSendFailed is returned when the gateway rejects a send request.
	ErrSendFailed = errors.New("messaging: message send failed")
)
