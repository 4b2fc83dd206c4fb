package magiclink

import (
	"encoding/json"
	"fmt"

	"linkauth/internal/models"
)

// encodeSessionUser serializes the authenticated user for storage in
// the string-valued session.
func encodeSessionUser(user *models.User) (string, error) {
	data, err := json.Marshal(user)
	if err != nil {
		return "", fmt.Errorf("encode session user: %w", err)
	}
	return string(data), nil
}

// DecodeSessionUser restores a user stored by a successful redemption.
func DecodeSessionUser(stored string) (*models.User, error) {
	var user models.User
	if err := json.Unmarshal([]byte(stored), &user); err != nil {
		return nil, fmt.Errorf("decode session user: %w", err)
	}
	return &user, nil
}
