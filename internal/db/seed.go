package db

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"linkauth/internal/models"
)

// Seed inserts development accounts for the given email addresses.
// Existing accounts are left untouched.
func Seed(ctx context.Context, database *gorm.DB, emails []string) error {
	for _, email := range emails {
		email = strings.TrimSpace(strings.ToLower(email))
		if email == "" {
			continue
		}

		name := email
		if at := strings.IndexByte(email, '@'); at > 0 {
			name = email[:at]
		}

		user := models.User{Email: email, Name: name}
		if err := database.WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&user).Error; err != nil {
			return err
		}
	}
	return nil
}
