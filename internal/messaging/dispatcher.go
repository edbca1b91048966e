package messaging

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/rmaciel/voltrack/internal/domain"
)

// Retry policy for message delivery.
const (
	maxAttempts  = 3
	retryBackoff = 2 * time.Second

	// countryPrefix is prepended to numbers that lack it.
	countryPrefix = "55"

	// minNumberLength is the minimum digit count after prefixing.
	// Anything shorter is rejected before any network call.
	minNumberLength = 12
)

// NormalizePhone strips formatting from a phone number and ensures the
// Brazilian country prefix. Numbers shorter than the minimum after prefixing
// fail with a validation error and must not be dispatched.
func NormalizePhone(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}

	digits := b.String()
	if !strings.HasPrefix(digits, countryPrefix) {
		digits = countryPrefix + digits
	}

	if len(digits) < minNumberLength {
		return "", domain.Errorf(domain.EINVALID, "messaging.normalize_phone", "phone number too short after normalization: %d digits", len(digits))
	}

	return digits, nil
}

// Dispatcher sends WhatsApp texts with the bounded retry policy.
// Validation failures surface immediately; gateway failures are retried up
// to the attempt limit with a fixed backoff before the terminal error.
type Dispatcher struct {
	sender Sender
	logger zerolog.Logger

	// sleep is injectable for tests. Defaults to time.Sleep.
	sleep func(time.Duration)
}

// NewDispatcher creates a dispatcher over a messaging gateway.
func NewDispatcher(sender Sender, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		sender: sender,
		logger: logger,
		sleep:  time.Sleep,
	}
}

// Dispatch normalizes the destination and delivers the text, retrying
// transient gateway failures. Returns the gateway message ID on success.
func (d *Dispatcher) Dispatch(ctx context.Context, rawPhone, text string) (string, error) {
	number, err := NormalizePhone(rawPhone)
	if err != nil {
		return "", err
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		messageID, err := d.sender.SendText(ctx, number, text)
		if err == nil {
			return messageID, nil
		}

		lastErr = err
		d.logger.Warn().
			Err(err).
			Str("number", number).
			Int("attempt", attempt).
			Msg("message delivery failed")

		if attempt < maxAttempts {
			select {
			case <-ctx.Done():
				return "", domain.WrapError(ctx.Err(), domain.EGATEWAY, "messaging.dispatch", "dispatch cancelled")
			default:
			}
			d.sleep(retryBackoff)
		}
	}

	return "", domain.Gateway(lastErr, "messaging.dispatch", "message delivery failed after retries")
}
