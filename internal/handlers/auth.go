package handlers

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/rs/zerolog/log"

	"linkauth/internal/magiclink"
	"linkauth/internal/session"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

var pageTemplates = template.Must(template.ParseFS(templatesFS, "templates/*.tmpl"))

// Auth serves the login flow routes. It owns loading and committing the
// session around every strategy call.
type Auth struct {
	strategy *magiclink.Strategy
	sessions *session.Store
}

// NewAuth wires the strategy and session store into an HTTP handler set.
func NewAuth(strategy *magiclink.Strategy, sessions *session.Store) *Auth {
	return &Auth{strategy: strategy, sessions: sessions}
}

type loginPageData struct {
	LastEmail string
	Error     string
}

// LoginPage renders the entry form, prefilled with the last submitted
// email and showing any flashed error exactly once.
func (a *Auth) LoginPage(w http.ResponseWriter, r *http.Request) {
	sess := a.sessions.Load(r)

	if _, ok := sess.Get(a.strategy.Options().SessionKey); ok {
		http.Redirect(w, r, a.strategy.Options().SuccessRedirect, http.StatusFound)
		return
	}

	data := loginPageData{}
	data.LastEmail, _ = sess.Get(magiclink.LastEmailKey)

	errMsg, hadFlash := sess.PopFlash(magiclink.ErrorKey)
	if hadFlash {
		data.Error = errMsg
		// Commit so the flash is consumed even if the user reloads.
		if err := a.sessions.Save(w, sess); err != nil {
			respondError(w, http.StatusInternalServerError, err)
			return
		}
	}

	a.renderPage(w, "login.tmpl", data)
}

// SubmitLogin handles the issuance submission (POST with an email field).
func (a *Auth) SubmitLogin(w http.ResponseWriter, r *http.Request) {
	sess := a.sessions.Load(r)

	outcome, err := a.strategy.Issue(r, sess)
	if err != nil {
		log.Error().Err(err).Msg("issue magic link")
		respondError(w, http.StatusInternalServerError, err)
		return
	}

	if err := a.sessions.Save(w, sess); err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	http.Redirect(w, r, outcome.Redirect, http.StatusFound)
}

// CompleteLogin handles the emailed link visit.
func (a *Auth) CompleteLogin(w http.ResponseWriter, r *http.Request) {
	sess := a.sessions.Load(r)

	outcome, err := a.strategy.Redeem(r, sess)
	if err != nil {
		log.Error().Err(err).Msg("redeem magic link")
		respondError(w, http.StatusInternalServerError, err)
		return
	}

	if err := a.sessions.Save(w, sess); err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}

	// No success redirect configured: hand the user back directly.
	if outcome.User != nil {
		respondJSON(w, http.StatusOK, outcome.User)
		return
	}
	http.Redirect(w, r, outcome.Redirect, http.StatusFound)
}

type sentPageData struct {
	Email string
}

// EmailSentPage confirms the link was sent and offers a resend. Without
// a pending issuance it bounces back to the login page.
func (a *Auth) EmailSentPage(w http.ResponseWriter, r *http.Request) {
	sess := a.sessions.Load(r)

	email, ok := sess.Get(magiclink.LastEmailKey)
	if !ok || email == "" {
		http.Redirect(w, r, a.strategy.Options().FailureRedirect, http.StatusFound)
		return
	}

	a.renderPage(w, "email_sent.tmpl", sentPageData{Email: email})
}

// Logout clears the authenticated user and returns to the login page.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	sess := a.sessions.Load(r)
	sess.Delete(a.strategy.Options().SessionKey)

	if err := a.sessions.Save(w, sess); err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	http.Redirect(w, r, a.strategy.Options().FailureRedirect, http.StatusFound)
}

// Me returns the authenticated user as JSON, or redirects to the login
// page when the session holds none.
func (a *Auth) Me(w http.ResponseWriter, r *http.Request) {
	sess := a.sessions.Load(r)

	stored, ok := sess.Get(a.strategy.Options().SessionKey)
	if !ok {
		http.Redirect(w, r, a.strategy.Options().FailureRedirect, http.StatusFound)
		return
	}

	user, err := magiclink.DecodeSessionUser(stored)
	if err != nil {
		// Corrupt session value: drop it and restart the flow.
		sess.Delete(a.strategy.Options().SessionKey)
		_ = a.sessions.Save(w, sess)
		http.Redirect(w, r, a.strategy.Options().FailureRedirect, http.StatusFound)
		return
	}

	respondJSON(w, http.StatusOK, user)
}

func (a *Auth) renderPage(w http.ResponseWriter, name string, data any) {
	buf := bytes.NewBuffer(nil)
	if err := pageTemplates.ExecuteTemplate(buf, name, data); err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
