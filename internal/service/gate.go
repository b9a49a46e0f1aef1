package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/porton/gate-relay/internal/metrics"
)

const defaultWebhookTimeout = 10 * time.Second

// ErrActuatorFailed wraps every failed gate trigger.
var ErrActuatorFailed = errors.New("gate actuator failed")

// GateActuator performs the physical open.
type GateActuator interface {
	Trigger(ctx context.Context) error
}

// WebhookActuator opens the gate by calling an automation webhook with an
// empty body. Any 2xx response counts as success; there are no retries.
type WebhookActuator struct {
	client  *http.Client
	url     string
	method  string
	timeout time.Duration
	metrics *metrics.Metrics
}

func NewWebhookActuator(url, method string, timeout time.Duration, m *metrics.Metrics) *WebhookActuator {
	if timeout <= 0 {
		timeout = defaultWebhookTimeout
	}
	if method == "" {
		method = http.MethodPost
	}
	return &WebhookActuator{
		client: &http.Client{
			Timeout: timeout,
		},
		url:     url,
		method:  strings.ToUpper(method),
		timeout: timeout,
		metrics: m,
	}
}

func (a *WebhookActuator) Trigger(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	err := a.do(ctx)
	a.metrics.ObserveWebhook(time.Since(start), err)
	return err
}

func (a *WebhookActuator) do(ctx context.Context) error {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, a.method, a.url, http.NoBody)
	if err != nil {
		return fmt.Errorf("%w: create request: %v", ErrActuatorFailed, err)
	}
	req.ContentLength = 0
	req.Header.Set("Content-Length", "0")

	log.Info().
		Str("method", a.method).
		Msg("triggering gate webhook")

	resp, err := a.client.Do(req)
	elapsed := time.Since(start)

	if err != nil {
		log.Error().
			Err(err).
			Dur("elapsed", elapsed).
			Msg("gate webhook error")
		return fmt.Errorf("%w: %v", ErrActuatorFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Error().
			Int("status", resp.StatusCode).
			Dur("elapsed", elapsed).
			Msg("gate webhook failed")
		return fmt.Errorf("%w: status %d", ErrActuatorFailed, resp.StatusCode)
	}

	log.Info().
		Int("status", resp.StatusCode).
		Dur("elapsed", elapsed).
		Msg("gate webhook successful")

	return nil
}
