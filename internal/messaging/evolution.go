package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// EvolutionConfig contains configuration for the Evolution API client.
// Immutable after construction; composition happens in cmd/server.
type EvolutionConfig struct {
	// BaseURL is the Evolution API server address.
	BaseURL string

	// APIKey is sent as the apikey header on every request.
	APIKey string

	// Instance is the named WhatsApp instance to operate on.
	Instance string

	// TimeoutSeconds is the HTTP timeout for gateway calls. Default: 30.
	TimeoutSeconds int
}

// Validate checks that required configuration is present.
func (c *EvolutionConfig) Validate() error {
	if c.BaseURL == "" {
		return errors.New("evolution: base URL is required")
	}
	if c.APIKey == "" {
		return ErrInvalidAPIKey
	}
	if c.Instance == "" {
		return errors.New("evolution: instance name is required")
	}
	return nil
}

// EvolutionSender implements the Sender interface using an Evolution API
// WhatsApp instance.
type EvolutionSender struct {
	config     EvolutionConfig
	httpClient *http.Client
}

// Compile-time check that EvolutionSender implements Sender.
var _ Sender = (*EvolutionSender)(nil)

// NewEvolutionSender creates a messaging client from validated configuration.
func NewEvolutionSender(config EvolutionConfig) (*EvolutionSender, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	timeout := config.TimeoutSeconds
	if timeout == 0 {
		timeout = 30
	}

	return &EvolutionSender{
		config:     config,
		httpClient: &http.Client{Timeout: time.Duration(timeout) * time.Second},
	}, nil
}

type evolutionSendTextRequest struct {
	Number string `json:"number"`
	Text   string `json:"text"`
}

type evolutionSendTextResponse struct {
	Key struct {
		ID string `json:"id"`
	} `json:"key"`
	Status string `json:"status"`
}

type evolutionConnectionStateResponse struct {
	Instance struct {
		State string `json:"state"`
	} `json:"instance"`
}

type evolutionConnectResponse struct {
	Base64 string `json:"base64"`
	Code   string `json:"code"`
}

// SendText delivers a text message through the instance.
func (s *EvolutionSender) SendText(ctx context.Context, number, text string) (string, error) {
	payload := evolutionSendTextRequest{Number: number, Text: text}

	var result evolutionSendTextResponse
	if err := s.do(ctx, http.MethodPost, "/message/sendText/"+s.config.Instance, payload, &result); err != nil {
		return "", err
	}

	return result.Key.ID, nil
}

// ConnectionState reports the pairing state of the instance.
func (s *EvolutionSender) ConnectionState(ctx context.Context) (string, error) {
	var result evolutionConnectionStateResponse
	if err := s.do(ctx, http.MethodGet, "/instance/connectionState/"+s.config.Instance, nil, &result); err != nil {
		return "", err
	}

	return result.Instance.State, nil
}

// PairingQRCode fetches the base64 QR code for pairing the instance.
func (s *EvolutionSender) PairingQRCode(ctx context.Context) (string, error) {
	var result evolutionConnectResponse
	if err := s.do(ctx, http.MethodGet, "/instance/connect/"+s.config.Instance, nil, &result); err != nil {
		return "", err
	}

	return result.Base64, nil
}

// do executes a gateway request and decodes the JSON response into out.
func (s *EvolutionSender) do(ctx context.Context, method, path string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request payload: %w", err)
		}
		body = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.config.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", s.config.APIKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: status %d: %s", ErrSendFailed, resp.StatusCode, string(respBody))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	return nil
}
