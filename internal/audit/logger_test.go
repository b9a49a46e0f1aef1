package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	original := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = original })
	return &buf
}

func TestLog(t *testing.T) {
	buf := captureLog(t)

	Log(context.Background(), Event{
		Type:     EventOpenDenied,
		PIN:      "123456",
		Username: "Ana",
		Details: map[string]interface{}{
			"reason":  "outside allowed schedule",
			"attempt": 3,
			"cause":   errors.New("boom"),
		},
	})

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "security", line["audit"])
	assert.Equal(t, "open_denied", line["event_type"])
	assert.Equal(t, "12****", line["pin"])
	assert.Equal(t, "Ana", line["username"])
	assert.Equal(t, "outside allowed schedule", line["reason"])
	assert.Equal(t, float64(3), line["attempt"])
	assert.Equal(t, "boom", line["cause"])
	assert.NotContains(t, buf.String(), "123456")
}

func TestLogFromRequest(t *testing.T) {
	buf := captureLog(t)

	req := httptest.NewRequest("POST", "/open", nil)
	req.Header.Set("X-Real-IP", "10.0.0.7")
	req.Header.Set("User-Agent", "gate-panel/1.0")

	LogFromRequest(req, Event{Type: EventRateLimitExceed})

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "10.0.0.7", line["ip"])
	assert.Equal(t, "gate-panel/1.0", line["user_agent"])
	assert.NotContains(t, line, "pin")
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	assert.Equal(t, "192.0.2.1:1234", ClientIP(req))

	req.Header.Set("X-Real-IP", "10.0.0.2")
	assert.Equal(t, "10.0.0.2", ClientIP(req))

	req.Header.Set("X-Forwarded-For", "10.0.0.3")
	assert.Equal(t, "10.0.0.3", ClientIP(req))
}

func TestLogWithRequestContext(t *testing.T) {
	buf := captureLog(t)

	req := httptest.NewRequest("POST", "/open", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	ctx := WithRequest(context.Background(), req)

	Log(ctx, Event{Type: EventOpenGranted, PIN: "7777"})

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "203.0.113.9", line["ip"])
	assert.Equal(t, "77**", line["pin"])
}
