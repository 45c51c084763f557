package models

import (
	"time"
)

type TicketStatus string

const (
	TicketActive    TicketStatus = "ACTIVE"
	TicketUsed      TicketStatus = "USED"
	TicketExpired   TicketStatus = "EXPIRED"
	TicketCancelled TicketStatus = "CANCELLED"
)

type TicketSource string

const (
	SourcePurchase TicketSource = "PURCHASE"
	SourceReward   TicketSource = "REWARD"
	SourceGift     TicketSource = "GIFT"
	SourceAdmin    TicketSource = "ADMIN"
)

// SeatTicket is one consumable entitlement for a user to enter one
// tournament. Tickets are never deleted; cancellation is a status change.
//
// Valid transitions: ACTIVE -> USED | EXPIRED | CANCELLED. The three
// non-ACTIVE states are terminal.
type SeatTicket struct {
	ID           string       `json:"id" gorm:"primaryKey"`
	TournamentID string       `json:"tournament_id" gorm:"index;not null"`
	UserID       string       `json:"user_id" gorm:"index;not null"`
	StoreID      *string      `json:"store_id,omitempty" gorm:"index"`
	Status       TicketStatus `json:"status" gorm:"type:varchar(16);default:'ACTIVE';index"`
	Source       TicketSource `json:"source" gorm:"type:varchar(16);default:'PURCHASE'"`
	Amount       float64      `json:"amount" gorm:"default:0"`
	UsedAt       *time.Time   `json:"used_at,omitempty"`
	ExpiresAt    *time.Time   `json:"expires_at,omitempty"`
	Memo         string       `json:"memo,omitempty" gorm:"type:text"`
	CreatedAt    time.Time    `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time    `json:"updated_at" gorm:"autoUpdateTime"`

	Tournament Tournament `json:"tournament,omitempty" gorm:"foreignKey:TournamentID"`
	User       User       `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Store      *Store     `json:"store,omitempty" gorm:"foreignKey:StoreID"`
}

// IsCurrentlyValid reports whether the ticket can be consumed at the given
// instant. It never mutates the ticket; expiry is materialized separately by
// the sweep job.
func (t *SeatTicket) IsCurrentlyValid(now time.Time) bool {
	if t.Status != TicketActive {
		return false
	}
	if t.ExpiresAt != nil && now.After(*t.ExpiresAt) {
		return false
	}
	return true
}

// Use flips an ACTIVE ticket to USED and stamps UsedAt. Returns false,
// leaving the ticket untouched, for any other status. The caller is
// responsible for persisting the change, writing the USE ledger row and
// recounting the summary.
func (t *SeatTicket) Use(now time.Time) bool {
	if t.Status != TicketActive {
		return false
	}
	t.Status = TicketUsed
	t.UsedAt = &now
	return true
}

type TransactionType string

const (
	TxGrant  TransactionType = "GRANT"
	TxUse    TransactionType = "USE"
	TxExpire TransactionType = "EXPIRE"
	TxCancel TransactionType = "CANCEL"
	TxRefund TransactionType = "REFUND"
)

// SeatTicketTransaction is an append-only ledger row. One row is written per
// state-changing ticket operation, inside the same DB transaction. Rows are
// never updated or deleted.
type SeatTicketTransaction struct {
	ID            string          `json:"id" gorm:"primaryKey"`
	SeatTicketID  string          `json:"seat_ticket_id" gorm:"index;not null"`
	Type          TransactionType `json:"type" gorm:"type:varchar(16);not null"`
	Quantity      int             `json:"quantity" gorm:"default:1"`
	Amount        float64         `json:"amount" gorm:"default:0"`
	Reason        string          `json:"reason,omitempty" gorm:"type:text"`
	ProcessedByID *string         `json:"processed_by_id,omitempty" gorm:"index"`
	CreatedAt     time.Time       `json:"created_at" gorm:"autoCreateTime"`

	SeatTicket SeatTicket `json:"seat_ticket,omitempty" gorm:"foreignKey:SeatTicketID"`
	ProcessedBy *User     `json:"processed_by,omitempty" gorm:"foreignKey:ProcessedByID"`
}

// UserTicketSummary is a denormalized per-(user, tournament) count cache.
// It is recomputed by a full recount after every grant/use/expire/cancel and
// may be stale in between; tickets are the source of truth.
type UserTicketSummary struct {
	ID            string    `json:"id" gorm:"primaryKey"`
	UserID        string    `json:"user_id" gorm:"uniqueIndex:idx_user_tournament;not null"`
	TournamentID  string    `json:"tournament_id" gorm:"uniqueIndex:idx_user_tournament;not null"`
	ActiveTickets int       `json:"active_tickets" gorm:"default:0"`
	UsedTickets   int       `json:"used_tickets" gorm:"default:0"`
	TotalTickets  int       `json:"total_tickets" gorm:"default:0"`
	LastUpdated   time.Time `json:"last_updated" gorm:"autoUpdateTime"`

	User       User       `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Tournament Tournament `json:"tournament,omitempty" gorm:"foreignKey:TournamentID"`
}
