// Package slack delivers the assembled release notes to a Slack channel and
// persists the message body to a durable audit artifact.
package slack

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/slack-go/slack"

	"github.com/delivops/release-notes-generator/internal/config"
	"github.com/delivops/release-notes-generator/internal/logging"
)

// Publish error taxonomy. Permanent errors (bad channel, bad auth, 4xx) are
// never retried; transient errors (rate limits, 5xx, timeouts) get exactly
// one retry before the run fails.
var (
	ErrPermanent = errors.New("permanent slack error")
	ErrTransient = errors.New("transient slack error")
)

// retryInterval is the pause before the single transient retry. Variable so
// tests can shorten it.
var retryInterval = 2 * time.Second

// api is the subset of the Slack client used by the publisher.
type api interface {
	AuthTestContext(ctx context.Context) (*slack.AuthTestResponse, error)
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// Publisher posts messages to the configured Slack channel.
type Publisher struct {
	client    api
	channel   string
	auditPath string
}

// NewPublisher creates a publisher for the channel in the supplied
// configuration, writing the audit artifact to auditPath.
func NewPublisher(cfg *config.Config, auditPath string) (*Publisher, error) {
	if cfg.Slack.BotToken == "" {
		return nil, fmt.Errorf("slack bot token not found in configuration")
	}
	if cfg.Slack.Channel == "" {
		return nil, fmt.Errorf("slack channel not found in configuration")
	}

	logging.Debug("slack configuration",
		"channel", cfg.Slack.Channel,
		"token", logging.MaskSensitive(cfg.Slack.BotToken))

	return &Publisher{
		client:    slack.New(cfg.Slack.BotToken),
		channel:   cfg.Slack.Channel,
		auditPath: auditPath,
	}, nil
}

// Validate performs a lightweight authenticated call to confirm the bot
// token is usable.
func (p *Publisher) Validate(ctx context.Context) error {
	resp, err := p.client.AuthTestContext(ctx)
	if err != nil {
		return fmt.Errorf("slack authentication failed: %w", err)
	}
	logging.Info("slack authentication successful", "bot", resp.User, "team", resp.Team)
	return nil
}

// Publish writes the audit artifact and posts the message, returning the
// Slack message timestamp. The audit write happens first and is never
// skipped: the artifact must exist even when delivery fails.
func (p *Publisher) Publish(ctx context.Context, text string) (string, error) {
	if err := os.WriteFile(p.auditPath, []byte(text), 0o644); err != nil {
		// Delivery is still attempted: the artifact is an audit aid, not a
		// delivery precondition.
		logging.Error("failed to write audit artifact", "path", p.auditPath, "error", err)
	} else {
		logging.Info("audit artifact written", "path", p.auditPath, "bytes", len(text))
	}

	var timestamp string
	operation := func() error {
		_, ts, err := p.client.PostMessageContext(ctx, p.channel, slack.MsgOptionText(text, false))
		if err != nil {
			if isTransient(err) {
				logging.Warn("transient slack error, will retry once", "error", err)
				return fmt.Errorf("%w: %v", ErrTransient, err)
			}
			return backoff.Permanent(fmt.Errorf("%w: %v", ErrPermanent, err))
		}
		timestamp = ts
		return nil
	}

	err := backoff.Retry(operation, backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(retryInterval), 1), ctx))
	if err != nil {
		return "", err
	}

	logging.Info("message posted to slack", "channel", p.channel, "timestamp", timestamp)
	return timestamp, nil
}

// isTransient reports whether a Slack failure is worth retrying: rate
// limits, 5xx responses, and transport/timeout errors. Slack API-level
// errors (ok=false responses such as channel_not_found or invalid_auth)
// arrive as plain error strings and are treated as permanent.
func isTransient(err error) bool {
	var rateLimited *slack.RateLimitedError
	if errors.As(err, &rateLimited) {
		return true
	}

	var statusErr slack.StatusCodeError
	if errors.As(err, &statusErr) {
		return statusErr.Code >= http.StatusInternalServerError
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return false
}
