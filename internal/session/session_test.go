package session

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/securecookie"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	hashKey, blockKey := DeriveKeys("test-secret-0123456789")
	store, err := NewStore(securecookie.New(hashKey, blockKey), Options{Name: "test_session"})
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	return store
}

func requestWithCookie(cookie *http.Cookie) *http.Request {
	r := httptest.NewRequest("GET", "/", nil)
	if cookie != nil {
		r.AddCookie(cookie)
	}
	return r
}

func TestStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)

	sess := store.Load(httptest.NewRequest("GET", "/", nil))
	sess.Set("auth:last-email", "a@example.com")
	sess.Set("auth:last-nonce", "42")

	cookie, err := store.Commit(sess)
	if err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if !cookie.HttpOnly {
		t.Fatal("session cookie must be HttpOnly")
	}

	loaded := store.Load(requestWithCookie(cookie))
	if got, _ := loaded.Get("auth:last-email"); got != "a@example.com" {
		t.Fatalf("Get(last-email) = %q", got)
	}
	if got, _ := loaded.Get("auth:last-nonce"); got != "42" {
		t.Fatalf("Get(last-nonce) = %q", got)
	}
}

func TestStoreMissingCookieYieldsEmptySession(t *testing.T) {
	store := newTestStore(t)
	sess := store.Load(httptest.NewRequest("GET", "/", nil))
	if _, ok := sess.Get("anything"); ok {
		t.Fatal("fresh session should be empty")
	}
}

func TestStoreTamperedCookieYieldsEmptySession(t *testing.T) {
	store := newTestStore(t)

	sess := store.Load(httptest.NewRequest("GET", "/", nil))
	sess.Set("user", "someone")
	cookie, err := store.Commit(sess)
	if err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	cookie.Value = cookie.Value[:len(cookie.Value)-2] + "xx"
	loaded := store.Load(requestWithCookie(cookie))
	if _, ok := loaded.Get("user"); ok {
		t.Fatal("tampered cookie must not yield session values")
	}
}

func TestStoreWrongKeyYieldsEmptySession(t *testing.T) {
	store := newTestStore(t)

	sess := store.Load(httptest.NewRequest("GET", "/", nil))
	sess.Set("user", "someone")
	cookie, err := store.Commit(sess)
	if err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	otherHash, otherBlock := DeriveKeys("a-completely-different-secret")
	otherStore, err := NewStore(securecookie.New(otherHash, otherBlock), Options{Name: "test_session"})
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	loaded := otherStore.Load(requestWithCookie(cookie))
	if _, ok := loaded.Get("user"); ok {
		t.Fatal("cookie from another deployment must not decode")
	}
}

func TestFlashIsReadOnce(t *testing.T) {
	store := newTestStore(t)

	sess := store.Load(httptest.NewRequest("GET", "/", nil))
	sess.Flash("auth:error", "Missing email address.")

	cookie, err := store.Commit(sess)
	if err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	loaded := store.Load(requestWithCookie(cookie))
	msg, ok := loaded.PopFlash("auth:error")
	if !ok || msg != "Missing email address." {
		t.Fatalf("PopFlash() = %q, %v", msg, ok)
	}
	if _, ok := loaded.PopFlash("auth:error"); ok {
		t.Fatal("flash must be consumed by the first PopFlash")
	}

	// After committing the popped session, the flash is gone for good.
	cookie, err = store.Commit(loaded)
	if err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	reloaded := store.Load(requestWithCookie(cookie))
	if _, ok := reloaded.PopFlash("auth:error"); ok {
		t.Fatal("flash survived a commit after being popped")
	}
}

func TestDeleteRemovesValue(t *testing.T) {
	store := newTestStore(t)

	sess := store.Load(httptest.NewRequest("GET", "/", nil))
	sess.Set("user", "someone")
	sess.Delete("user")

	cookie, err := store.Commit(sess)
	if err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	loaded := store.Load(requestWithCookie(cookie))
	if _, ok := loaded.Get("user"); ok {
		t.Fatal("deleted value came back after a round trip")
	}
}

func TestDeriveKeysAreDistinct(t *testing.T) {
	hashKey, blockKey := DeriveKeys("test-secret-0123456789")
	if len(hashKey) != 32 || len(blockKey) != 32 {
		t.Fatalf("key lengths = %d, %d, want 32, 32", len(hashKey), len(blockKey))
	}
	if string(hashKey) == string(blockKey) {
		t.Fatal("hash and block keys must differ")
	}
}
