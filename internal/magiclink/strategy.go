package magiclink

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/rs/zerolog/log"

	"linkauth/internal/models"
)

// Session keys shared with the HTTP layer.
const (
	LastEmailKey = "auth:last-email"
	LastNonceKey = "auth:last-nonce"
	ErrorKey     = "auth:error"
)

// User-facing messages flashed on recoverable failures. They mirror the
// wording shown on the login page.
const (
	msgMissingEmail  = "Missing email address."
	msgMissingToken  = "No token provided."
	msgInvalidToken  = "Invalid token."
	msgNonceMismatch = "You should login from the same browser sending the e-mail."
)

var (
	// ErrMissingEmail reports an issuance submission without an email field.
	ErrMissingEmail = errors.New(msgMissingEmail)

	// ErrMissingToken reports a redemption request without a token parameter.
	ErrMissingToken = errors.New(msgMissingToken)

	// ErrOriginMismatch reports a token issued for a different deployment.
	ErrOriginMismatch = errors.New(msgInvalidToken)

	// ErrNonceMismatch reports a token redeemed from a session other than
	// the one that requested it.
	ErrNonceMismatch = errors.New(msgNonceMismatch)
)

// Session is the per-request state handle the strategy reads and
// mutates. The caller owns loading and committing it.
type Session interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Delete(key string)
	Flash(key, value string)
}

// Verifier maps an email address to an application identity. A failure
// is surfaced to the user via its message, so implementations should
// return presentable errors for unknown addresses.
type Verifier interface {
	VerifyEmail(ctx context.Context, email string) (*models.User, error)
}

// Sender delivers the sign-in link to the user out-of-band. A failure
// is fatal to the issuing request; no retry is attempted.
type Sender interface {
	Send(ctx context.Context, user *models.User, link string) error
}

// Publisher receives best-effort audit events. May be nil.
type Publisher interface {
	LoginIssued(ctx context.Context, email, origin string)
	LoginCompleted(ctx context.Context, email, origin string)
}

// Options configure redirect targets and the session key for the
// authenticated user.
type Options struct {
	// SuccessRedirect is where a redeemed user lands. When empty, Redeem
	// returns the user in the Outcome instead of redirecting, leaving the
	// caller to decide.
	SuccessRedirect string

	// FailureRedirect is the login entry point every recoverable failure
	// returns to, with the error flashed in the session.
	FailureRedirect string

	// SentRedirect is the confirmation page shown after a link was emailed.
	SentRedirect string

	// RedeemPath is the path component of the emailed link.
	RedeemPath string

	// SessionKey is the session key the authenticated user is stored under.
	SessionKey string
}

func (o *Options) applyDefaults() {
	if o.FailureRedirect == "" {
		o.FailureRedirect = "/login"
	}
	if o.SentRedirect == "" {
		o.SentRedirect = "/email-sent"
	}
	if o.RedeemPath == "" {
		o.RedeemPath = "/complete-login"
	}
	if o.SessionKey == "" {
		o.SessionKey = "user"
	}
}

// Outcome is the tagged result of an Issue or Redeem call. Exactly one
// field is set: Redirect for flows ending in a redirect, User when
// redemption succeeded with no SuccessRedirect configured. Session
// mutations ride on the Session handle; the caller commits them.
type Outcome struct {
	Redirect string
	User     *models.User
}

// Strategy orchestrates the two-phase magic link flow.
type Strategy struct {
	codec    *Codec
	verifier Verifier
	sender   Sender
	events   Publisher
	opts     Options
}

// New assembles a Strategy. codec, verifier, and sender are required;
// events may be nil.
func New(codec *Codec, verifier Verifier, sender Sender, events Publisher, opts Options) (*Strategy, error) {
	if codec == nil {
		return nil, errors.New("magiclink: codec is required")
	}
	if verifier == nil {
		return nil, errors.New("magiclink: verifier is required")
	}
	if sender == nil {
		return nil, errors.New("magiclink: sender is required")
	}
	opts.applyDefaults()

	return &Strategy{
		codec:    codec,
		verifier: verifier,
		sender:   sender,
		events:   events,
		opts:     opts,
	}, nil
}

// Options returns the effective options after defaulting.
func (s *Strategy) Options() Options {
	return s.opts
}

// Issue handles a login submission: it verifies the email, mints a
// token bound to the request origin and a fresh nonce, records the
// nonce in the session, and emails the link.
//
// Recoverable failures (missing or unknown email) flash a message and
// redirect back to the entry point. Origin resolution and delivery
// failures are returned as errors and abort the request.
func (s *Strategy) Issue(r *http.Request, sess Session) (Outcome, error) {
	ctx := r.Context()

	email := r.PostFormValue("email")
	if email == "" {
		return s.fail(sess, "issue", ErrMissingEmail), nil
	}

	user, err := s.verifier.VerifyEmail(ctx, email)
	if err != nil {
		return s.fail(sess, "issue", err), nil
	}

	origin, err := ResolveOrigin(r)
	if err != nil {
		return Outcome{}, err
	}

	nonce, err := newNonce()
	if err != nil {
		return Outcome{}, err
	}

	token, err := s.codec.Encode(Payload{
		Email:        email,
		OriginDomain: origin,
		Nonce:        nonce,
	})
	if err != nil {
		return Outcome{}, err
	}

	link, err := s.buildLink(origin, token)
	if err != nil {
		return Outcome{}, err
	}

	// Only one issuance is live per session: a new link supersedes any
	// pending one.
	sess.Set(LastEmailKey, email)
	sess.Set(LastNonceKey, nonce)

	if err := s.sender.Send(ctx, user, link); err != nil {
		return Outcome{}, fmt.Errorf("send magic link: %w", err)
	}

	linksIssued.Inc()
	if s.events != nil {
		s.events.LoginIssued(ctx, email, origin)
	}
	log.Info().Str("email", email).Str("origin", origin).Msg("magic link issued")

	return Outcome{Redirect: s.opts.SentRedirect}, nil
}

// Redeem handles a visit to the emailed link: it decodes the token,
// checks origin and nonce binding, and re-verifies the email.
//
// All validation failures flash a message and redirect to the entry
// point. On success the pending nonce is cleared, enforcing single use.
func (s *Strategy) Redeem(r *http.Request, sess Session) (Outcome, error) {
	ctx := r.Context()

	token := r.URL.Query().Get("token")
	if token == "" {
		return s.fail(sess, "redeem", ErrMissingToken), nil
	}

	payload, err := s.codec.Decode(token)
	if err != nil {
		return s.fail(sess, "redeem", err), nil
	}

	origin, err := ResolveOrigin(r)
	if err != nil {
		return Outcome{}, err
	}

	if payload.OriginDomain != origin {
		return s.fail(sess, "redeem", ErrOriginMismatch), nil
	}

	lastNonce, ok := sess.Get(LastNonceKey)
	if !ok || payload.Nonce != lastNonce {
		return s.fail(sess, "redeem", ErrNonceMismatch), nil
	}

	user, err := s.verifier.VerifyEmail(ctx, payload.Email)
	if err != nil {
		return s.fail(sess, "redeem", err), nil
	}

	// First successful use consumes the nonce; replaying the same token
	// in this session now fails the nonce check.
	sess.Delete(LastNonceKey)
	sess.Delete(LastEmailKey)

	redemptions.WithLabelValues("success").Inc()
	if s.events != nil {
		s.events.LoginCompleted(ctx, payload.Email, origin)
	}
	log.Info().Str("email", payload.Email).Str("origin", origin).Msg("magic link redeemed")

	if s.opts.SuccessRedirect == "" {
		return Outcome{User: user}, nil
	}

	stored, err := encodeSessionUser(user)
	if err != nil {
		return Outcome{}, err
	}
	sess.Set(s.opts.SessionKey, stored)

	return Outcome{Redirect: s.opts.SuccessRedirect}, nil
}

func (s *Strategy) fail(sess Session, phase string, cause error) Outcome {
	if phase == "redeem" {
		redemptions.WithLabelValues("failure").Inc()
	}
	log.Warn().Str("phase", phase).Err(cause).Msg("magic link flow failed")
	sess.Flash(ErrorKey, cause.Error())
	return Outcome{Redirect: s.opts.FailureRedirect}
}

func (s *Strategy) buildLink(origin, token string) (string, error) {
	u, err := url.Parse(origin)
	if err != nil {
		return "", fmt.Errorf("parse origin %q: %w", origin, err)
	}
	u.Path = s.opts.RedeemPath
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
