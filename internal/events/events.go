// Package events publishes login audit events to NATS JetStream.
// Publishing is best-effort: failures are logged, never surfaced to the
// request that triggered them.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

const (
	SubjectLoginIssued    = "linkauth.login.issued"
	SubjectLoginCompleted = "linkauth.login.completed"
)

// LoginEvent is the wire form of both login events.
type LoginEvent struct {
	Email  string    `json:"email"`
	Origin string    `json:"origin"`
	At     time.Time `json:"at"`
}

// Publisher emits login events. A nil *Publisher is a valid no-op.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// Connect dials NATS and prepares a JetStream publisher.
func Connect(url string, opts ...nats.Option) (*Publisher, error) {
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, err
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, err
	}

	return &Publisher{conn: nc, js: js}, nil
}

// Close drains the underlying NATS connection.
func (p *Publisher) Close() {
	if p == nil {
		return
	}
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
	}
}

// LoginIssued records that a magic link was emailed.
func (p *Publisher) LoginIssued(ctx context.Context, email, origin string) {
	p.publish(ctx, SubjectLoginIssued, email, origin)
}

// LoginCompleted records a successful redemption.
func (p *Publisher) LoginCompleted(ctx context.Context, email, origin string) {
	p.publish(ctx, SubjectLoginCompleted, email, origin)
}

func (p *Publisher) publish(ctx context.Context, subject, email, origin string) {
	if p == nil {
		return
	}

	data, err := json.Marshal(LoginEvent{Email: email, Origin: origin, At: time.Now().UTC()})
	if err != nil {
		log.Warn().Err(err).Str("subject", subject).Msg("encode login event")
		return
	}

	if _, err := p.js.Publish(subject, data, nats.Context(ctx)); err != nil {
		log.Warn().Err(err).Str("subject", subject).Msg("publish login event")
	}
}
