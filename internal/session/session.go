// Package session provides the cookie-backed session used by the login
// flow. All values live client-side in a single authenticated, encrypted
// cookie; the server keeps no session table.
package session

import (
	"crypto/sha256"
	"errors"
	"net/http"
)

const flashPrefix = "_flash:"

// Session is a request-scoped bag of string values. It is not safe for
// concurrent use; each request gets its own handle from Store.Load.
type Session struct {
	values map[string]string
}

// Get returns the value stored under key.
func (s *Session) Get(key string) (string, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Set stores value under key, replacing any previous value.
func (s *Session) Set(key, value string) {
	s.values[key] = value
}

// Delete removes key from the session.
func (s *Session) Delete(key string) {
	delete(s.values, key)
}

// Flash stores a one-time value under key. It survives until the next
// PopFlash for the same key.
func (s *Session) Flash(key, value string) {
	s.values[flashPrefix+key] = value
}

// PopFlash returns the flashed value for key and removes it.
func (s *Session) PopFlash(key string) (string, bool) {
	v, ok := s.values[flashPrefix+key]
	if ok {
		delete(s.values, flashPrefix+key)
	}
	return v, ok
}

// Codec encodes a session value map to and from a cookie string.
// *securecookie.SecureCookie satisfies it.
type Codec interface {
	Encode(name string, value interface{}) (string, error)
	Decode(name, value string, dst interface{}) error
}

// Options control the attributes of the emitted session cookie.
type Options struct {
	Name   string
	Domain string
	Secure bool
	MaxAge int
}

// Store loads and commits sessions. Safe for concurrent use.
type Store struct {
	codec Codec
	opts  Options
}

// DeriveKeys expands a single configured secret into the distinct hash
// and block keys securecookie expects.
func DeriveKeys(secret string) (hashKey, blockKey []byte) {
	h := sha256.Sum256([]byte(secret + ":hash"))
	b := sha256.Sum256([]byte(secret + ":block"))
	return h[:], b[:]
}

// NewStore creates a Store around the given cookie codec.
func NewStore(codec Codec, opts Options) (*Store, error) {
	if codec == nil {
		return nil, errors.New("session: codec is required")
	}
	if opts.Name == "" {
		opts.Name = "session"
	}
	if opts.MaxAge == 0 {
		opts.MaxAge = 7 * 24 * 60 * 60
	}
	return &Store{codec: codec, opts: opts}, nil
}

// Load returns the session carried by the request cookie. A missing,
// expired, or tampered cookie yields a fresh empty session rather than
// an error: the flow restarts instead of failing.
func (s *Store) Load(r *http.Request) *Session {
	sess := &Session{values: map[string]string{}}

	cookie, err := r.Cookie(s.opts.Name)
	if err != nil || cookie.Value == "" {
		return sess
	}

	var values map[string]string
	if err := s.codec.Decode(s.opts.Name, cookie.Value, &values); err != nil {
		return sess
	}

	sess.values = values
	return sess
}

// Commit serializes the session into a cookie ready to be set on the
// response.
func (s *Store) Commit(sess *Session) (*http.Cookie, error) {
	encoded, err := s.codec.Encode(s.opts.Name, sess.values)
	if err != nil {
		return nil, err
	}

	return &http.Cookie{
		Name:     s.opts.Name,
		Value:    encoded,
		Path:     "/",
		Domain:   s.opts.Domain,
		MaxAge:   s.opts.MaxAge,
		HttpOnly: true,
		Secure:   s.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}, nil
}

// Save commits the session and sets the cookie on the response writer.
func (s *Store) Save(w http.ResponseWriter, sess *Session) error {
	cookie, err := s.Commit(sess)
	if err != nil {
		return err
	}
	http.SetCookie(w, cookie)
	return nil
}
