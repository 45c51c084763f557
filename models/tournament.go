package models

import (
	"time"
)

const (
	TournamentStatusUpcoming  = "UPCOMING"
	TournamentStatusOngoing   = "ONGOING"
	TournamentStatusCompleted = "COMPLETED"
	TournamentStatusCancelled = "CANCELLED"
)

// Tournament is store-agnostic: the same tournament can be fed by several
// stores, and the per-store split lives in TicketDistribution.
type Tournament struct {
	ID          string     `json:"id" gorm:"primaryKey"`
	Name        string     `json:"name" gorm:"not null"`
	Description string     `json:"description"`
	StartTime   time.Time  `json:"start_time" gorm:"not null"`
	EndTime     *time.Time `json:"end_time,omitempty"`

	// BuyIn is the number of seat tickets one registration consumes.
	BuyIn int `json:"buy_in" gorm:"default:1"`

	// TicketQuantity caps the total quantity allocatable to stores.
	TicketQuantity int `json:"ticket_quantity" gorm:"default:100"`

	Status    string    `json:"status" gorm:"type:varchar(16);default:'UPCOMING'"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

const (
	PlayerStatusActive    = "ACTIVE"
	PlayerStatusUsed      = "USED"
	PlayerStatusCancelled = "CANCELLED"
)

// TournamentPlayer is one registration of a user into a tournament.
// Re-registration does not delete the previous row; it flips it to USED.
type TournamentPlayer struct {
	ID           string    `json:"id" gorm:"primaryKey"`
	TournamentID string    `json:"tournament_id" gorm:"index;not null"`
	UserID       string    `json:"user_id" gorm:"index;not null"`
	Nickname     string    `json:"nickname" gorm:"not null"`
	Status       string    `json:"status" gorm:"type:varchar(16);default:'ACTIVE'"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	Tournament Tournament `json:"tournament,omitempty" gorm:"foreignKey:TournamentID"`
	User       User       `json:"user,omitempty" gorm:"foreignKey:UserID"`
}
