package models

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrAllocatedNotPositive = errors.New("allocated_quantity must be greater than 0")
	ErrRemainingNegative    = errors.New("remaining_quantity must be 0 or more")
	ErrDistributedNegative  = errors.New("distributed_quantity must be 0 or more")
	ErrPartitionBroken      = errors.New("allocated_quantity must equal remaining_quantity + distributed_quantity")
)

// TicketDistribution is the head-office-to-store inventory record for one
// (tournament, store) pair. AllocatedQuantity is fixed by head office and is
// always partitioned into what the store still holds (remaining) and what it
// has handed to players (distributed).
type TicketDistribution struct {
	ID                  string    `json:"id" gorm:"primaryKey"`
	TournamentID        string    `json:"tournament_id" gorm:"uniqueIndex:idx_tournament_store;not null"`
	StoreID             string    `json:"store_id" gorm:"uniqueIndex:idx_tournament_store;not null"`
	AllocatedQuantity   int       `json:"allocated_quantity" gorm:"not null"`
	RemainingQuantity   int       `json:"remaining_quantity" gorm:"not null"`
	DistributedQuantity int       `json:"distributed_quantity" gorm:"default:0"`
	Memo                string    `json:"memo,omitempty" gorm:"type:text"`
	CreatedAt           time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt           time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	Tournament Tournament `json:"tournament,omitempty" gorm:"foreignKey:TournamentID"`
	Store      Store      `json:"store,omitempty" gorm:"foreignKey:StoreID"`
}

// OwnedBy reports whether userID owns the receiving store. The Store relation
// must be loaded.
func (d *TicketDistribution) OwnedBy(userID string) bool {
	return d.Store.ID != "" && d.Store.OwnerID == userID
}

// Validate checks the field constraints and the partition invariant. It runs
// before every save, not just on create; a violated invariant rejects the
// write instead of drifting silently.
func (d *TicketDistribution) Validate() error {
	if d.AllocatedQuantity <= 0 {
		return ErrAllocatedNotPositive
	}
	if d.RemainingQuantity < 0 {
		return ErrRemainingNegative
	}
	if d.DistributedQuantity < 0 {
		return ErrDistributedNegative
	}
	if d.AllocatedQuantity != d.RemainingQuantity+d.DistributedQuantity {
		return fmt.Errorf("%w (allocated=%d remaining=%d distributed=%d)",
			ErrPartitionBroken, d.AllocatedQuantity, d.RemainingQuantity, d.DistributedQuantity)
	}
	return nil
}

// Distribute moves quantity units from the store's remaining pool to the
// distributed pool. Returns false, with no change, when quantity is not
// positive or exceeds the remaining pool. The caller persists the row inside
// a locked transaction.
func (d *TicketDistribution) Distribute(quantity int) bool {
	if quantity <= 0 {
		return false
	}
	if d.RemainingQuantity < quantity {
		return false
	}
	d.RemainingQuantity -= quantity
	d.DistributedQuantity += quantity
	return true
}

// Return moves quantity units back from distributed to remaining, the exact
// inverse of Distribute.
func (d *TicketDistribution) Return(quantity int) bool {
	if quantity <= 0 {
		return false
	}
	if d.DistributedQuantity < quantity {
		return false
	}
	d.DistributedQuantity -= quantity
	d.RemainingQuantity += quantity
	return true
}

// DistributionRate is the percentage of the allocation already handed out,
// rounded to two decimals.
func (d *TicketDistribution) DistributionRate() float64 {
	if d.AllocatedQuantity <= 0 {
		return 0
	}
	rate := float64(d.DistributedQuantity) / float64(d.AllocatedQuantity) * 100
	return float64(int(rate*100+0.5)) / 100
}
