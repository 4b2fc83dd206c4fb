package store

import "testing"

func TestUnknownEmailErrorMessage(t *testing.T) {
	err := &UnknownEmailError{Email: "nobody@example.com"}
	want := "Unknown e-mail nobody@example.com!"
	if err.Error() != want {
		t.Fatalf("Error() = %q, want %q", err.Error(), want)
	}
}
