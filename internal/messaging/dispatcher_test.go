package messaging

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmaciel/voltrack/internal/domain"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "mobile without prefix", input: "11999999999", want: "5511999999999"},
		{name: "formatted mobile", input: "(11) 99999-9999", want: "5511999999999"},
		{name: "already prefixed", input: "5511999999999", want: "5511999999999"},
		{name: "landline without prefix", input: "1133334444", want: "551133334444"},
		{name: "too short", input: "9999-9999", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizePhone(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func newTestDispatcher(sender Sender) (*Dispatcher, *[]time.Duration) {
	d := NewDispatcher(sender, zerolog.Nop())
	var slept []time.Duration
	d.sleep = func(dur time.Duration) { slept = append(slept, dur) }
	return d, &slept
}

func TestDispatch_Success(t *testing.T) {
	sender := NewMockSender()
	d, slept := newTestDispatcher(sender)

	messageID, err := d.Dispatch(context.Background(), "(11) 99999-9999", "Olá!")
	require.NoError(t, err)

	assert.NotEmpty(t, messageID)
	assert.Equal(t, []string{"5511999999999|Olá!"}, sender.Sent)
	assert.Empty(t, *slept)
}

func TestDispatch_MalformedNumberNeverSends(t *testing.T) {
	sender := NewMockSender()
	d, _ := newTestDispatcher(sender)

	_, err := d.Dispatch(context.Background(), "123", "Olá!")
	require.Error(t, err)

	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
	assert.Empty(t, sender.CallLog, "malformed numbers must fail before any send attempt")
}

func TestDispatch_RetriesThenSucceeds(t *testing.T) {
	sender := NewMockSender()
	attempts := 0
	sender.SendTextFunc = func(ctx context.Context, number, text string) (string, error) {
		attempts++
		if attempts < 3 {
			return "", errors.New("timeout")
		}
		return "msg_ok", nil
	}
	d, slept := newTestDispatcher(sender)

	messageID, err := d.Dispatch(context.Background(), "11999999999", "Olá!")
	require.NoError(t, err)

	assert.Equal(t, "msg_ok", messageID)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, []time.Duration{retryBackoff, retryBackoff}, *slept)
}

func TestDispatch_ExhaustsAttempts(t *testing.T) {
	sender := NewMockSender()
	attempts := 0
	sender.SendTextFunc = func(ctx context.Context, number, text string) (string, error) {
		attempts++
		return "", errors.New("connection refused")
	}
	d, slept := newTestDispatcher(sender)

	_, err := d.Dispatch(context.Background(), "11999999999", "Olá!")
	require.Error(t, err)

	assert.Equal(t, domain.EGATEWAY, domain.ErrorCode(err))
	assert.Equal(t, maxAttempts, attempts)
	assert.Len(t, *slept, maxAttempts-1, "no sleep after the final attempt")
}

func TestDispatch_CancelledContextStopsRetries(t *testing.T) {
	sender := NewMockSender()
	ctx, cancel := context.WithCancel(context.Background())
	sender.SendTextFunc = func(ctx context.Context, number, text string) (string, error) {
		cancel()
		return "", errors.New("timeout")
	}
	d, _ := newTestDispatcher(sender)

	_, err := d.Dispatch(ctx, "11999999999", "Olá!")
	require.Error(t, err)
	assert.Equal(t, domain.EGATEWAY, domain.ErrorCode(err))
	assert.Len(t, sender.CallLog, 1, "cancellation must stop the retry loop")
}
