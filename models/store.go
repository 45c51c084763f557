package models

import (
	"time"
)

const (
	StoreStatusActive   = "ACTIVE"
	StoreStatusInactive = "INACTIVE"
	StoreStatusClosed   = "CLOSED"
)

// Store is a venue that receives seat-ticket allocations from head office
// and hands them out to players.
type Store struct {
	ID          string `json:"id" gorm:"primaryKey"`
	Name        string `json:"name" gorm:"not null"`
	Slug        string `json:"slug" gorm:"uniqueIndex"`
	OwnerID     string `json:"owner_id" gorm:"index;not null"`
	Address     string `json:"address"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	Status      string `json:"status" gorm:"type:varchar(16);default:'ACTIVE'"`

	// Map position
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	Owner User `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
}

// Banner is a promotional image shown for a store within a date window.
type Banner struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	StoreID     string    `json:"store_id" gorm:"index;not null"`
	Title       string    `json:"title" gorm:"not null"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url" gorm:"not null"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	IsActive    bool      `json:"is_active" gorm:"default:true"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`

	Store Store `json:"store,omitempty" gorm:"foreignKey:StoreID"`
}

// OwnedBy reports whether userID owns this store.
func (s *Store) OwnedBy(userID string) bool {
	return s.OwnerID == userID
}

// OwnedBy reports whether userID owns the banner's store. The Store relation
// must be loaded.
func (b *Banner) OwnedBy(userID string) bool {
	return b.Store.ID != "" && b.Store.OwnerID == userID
}

// IsVisible reports whether the banner should currently be shown.
func (b *Banner) IsVisible(now time.Time) bool {
	if !b.IsActive {
		return false
	}
	if now.Before(b.StartDate) {
		return false
	}
	if !b.EndDate.IsZero() && now.After(b.EndDate) {
		return false
	}
	return true
}
