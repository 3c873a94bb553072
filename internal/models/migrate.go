package models

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AutoMigrate creates or updates every table the service owns
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Supplier{},
		&Product{},
		&Recipe{},
		&RecipeIngredient{},
		&Consumption{},
		&Purchase{},
		&PurchaseItem{},
		&User{},
	)
}

// DefaultAccount is a login created on first boot
type DefaultAccount struct {
	Email    string
	Password string
	Role     UserRole
}

// InitDefaultUsers inserts accounts that do not exist yet. Existing users are left
// untouched so a changed password is never reset by a restart.
func InitDefaultUsers(db *gorm.DB, accounts []DefaultAccount) (int, error) {
	if db == nil {
		return 0, nil
	}

	created := 0
	for _, acc := range accounts {
		var existing User
		err := db.Where("email = ?", acc.Email).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return created, fmt.Errorf("lookup %s: %w", acc.Email, err)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(acc.Password), bcrypt.DefaultCost)
		if err != nil {
			return created, fmt.Errorf("hash password for %s: %w", acc.Email, err)
		}
		user := User{Email: acc.Email, PasswordHash: string(hash), Role: acc.Role}
		if err := db.Create(&user).Error; err != nil {
			return created, fmt.Errorf("create %s: %w", acc.Email, err)
		}
		created++
	}
	return created, nil
}
