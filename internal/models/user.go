// internal/models/user.go
package models

import (
	"time"

	"github.com/kmrl/metrodocs/internal/utils"
)

type User struct {
	ID        uint      `json:"-" gorm:"primaryKey"`
	Username  string    `json:"username" gorm:"uniqueIndex;size:150;not null"`
	Password  string    `json:"-" gorm:"size:255;not null"`
	FullName  string    `json:"full_name" gorm:"size:255;not null"`
	Email     *string   `json:"email" gorm:"uniqueIndex;size:255"`
	Role      string    `json:"role" gorm:"size:50;not null;default:'Viewer'"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (u *User) SetPassword(password string) error {
	hash, err := utils.HashPassword(password)
	if err != nil {
		return err
	}
	u.Password = hash
	return nil
}

// CheckPassword reports whether password matches the stored hash. Legacy
// pbkdf2/scrypt hashes from imported accounts are accepted too.
func (u *User) CheckPassword(password string) bool {
	return utils.CheckPasswordHash(u.Password, password)
}

// DisplayName is the full name, or the username when no name was stored.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

func (u *User) RoleOrDefault() string {
	if u.Role != "" {
		return u.Role
	}
	return DefaultRole
}
