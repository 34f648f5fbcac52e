package scheduling

import (
	"errors"
	"strconv"
	"time"

	"github.com/ManuelReschke/CalFox/internal/pkg/env"
)

const (
	// DefaultSignatureHeader carries the provider signature in the
	// Stripe-style "t=<unix>,v1=<hex>" format.
	DefaultSignatureHeader = "Calfox-Webhook-Signature"

	defaultReplayWindowSeconds    = 300
	defaultCancellationFeeCutoffH = 24
	defaultAppointmentFeeCents    = 10000
	defaultCancellationFeeCents   = 5000
)

// ErrSecretMissing means no webhook secret is configured. This is a startup
// misconfiguration, not a client error: no inbound event can be verified.
var ErrSecretMissing = errors.New("scheduling webhook secret is not configured")

// Config is the explicit configuration object passed into the webhook
// dispatcher at startup. No ambient globals.
type Config struct {
	// WebhookSecrets holds the active shared secret plus an optional
	// secondary one so secrets can be rotated without dropping events.
	WebhookSecrets []string

	SignatureHeader string
	ReplayWindow    time.Duration

	// CancellationFeeCutoff is the window before the scheduled start inside
	// which a cancellation incurs a fee (strict "less than" comparison).
	CancellationFeeCutoff time.Duration

	AppointmentFeeCents  int64
	CancellationFeeCents int64
}

// LoadConfig reads the scheduling configuration from the environment.
// A missing webhook secret is fatal for the caller.
func LoadConfig() (Config, error) {
	cfg := Config{
		SignatureHeader:       env.GetEnv("SCHEDULING_SIGNATURE_HEADER", DefaultSignatureHeader),
		ReplayWindow:          time.Duration(envInt("SCHEDULING_REPLAY_WINDOW_SECONDS", defaultReplayWindowSeconds)) * time.Second,
		CancellationFeeCutoff: time.Duration(envInt("CANCELLATION_FEE_CUTOFF_HOURS", defaultCancellationFeeCutoffH)) * time.Hour,
		AppointmentFeeCents:   int64(envInt("APPOINTMENT_FEE_CENTS", defaultAppointmentFeeCents)),
		CancellationFeeCents:  int64(envInt("CANCELLATION_FEE_CENTS", defaultCancellationFeeCents)),
	}

	if secret := env.GetEnv("SCHEDULING_WEBHOOK_SECRET", ""); secret != "" {
		cfg.WebhookSecrets = append(cfg.WebhookSecrets, secret)
	}
	if secondary := env.GetEnv("SCHEDULING_WEBHOOK_SECRET_SECONDARY", ""); secondary != "" {
		cfg.WebhookSecrets = append(cfg.WebhookSecrets, secondary)
	}
	if len(cfg.WebhookSecrets) == 0 {
		return cfg, ErrSecretMissing
	}

	return cfg, nil
}

func envInt(key string, def int) int {
	raw := env.GetEnv(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
