package models

import (
	"time"
)

type UserRole string

const (
	RoleAdmin      UserRole = "ADMIN"
	RoleStoreOwner UserRole = "STORE_OWNER"
	RoleUser       UserRole = "USER"
)

// User is the platform account. Phone is the login key; username is kept as
// a display-only field.
type User struct {
	ID           string   `json:"id" gorm:"primaryKey"`
	Phone        string   `json:"phone" gorm:"uniqueIndex;not null"`
	Username     string   `json:"username" gorm:"index"`
	Nickname     string   `json:"nickname"`
	PasswordHash string   `json:"-" gorm:"not null"`
	Role         UserRole `json:"role" gorm:"type:varchar(16);default:'USER'"`
	Email        string   `json:"email,omitempty"`

	IsVerified bool `json:"is_verified" gorm:"default:false"`
	IsActive   bool `json:"is_active" gorm:"default:true"`

	// Store-owner extras
	BusinessRegistrationURL string `json:"business_registration_url,omitempty"`
	BankAccount             string `json:"bank_account,omitempty"`

	// Member QR code, generated on signup and stored in R2
	QRCodeUUID string `json:"qr_code_uuid" gorm:"uniqueIndex"`
	QRCodeURL  string `json:"qr_code_url,omitempty"`

	BirthDate *time.Time `json:"birth_date,omitempty"`
	Gender    string     `json:"gender,omitempty" gorm:"type:varchar(1)"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) IsStoreOwner() bool {
	return u.Role == RoleStoreOwner
}
