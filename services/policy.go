package services

import (
	"asl-holdem/models"
)

// Actions evaluated by the policy. Handlers go through Policy.Can instead of
// re-checking roles inline.
const (
	ActionManageTournaments  = "tournaments.manage"
	ActionGrantTickets       = "tickets.grant"
	ActionUseTickets         = "tickets.use"
	ActionManageDistribution = "distributions.manage"
	ActionDistributeTickets  = "distributions.distribute"
	ActionManageStore        = "stores.manage"
	ActionManageNotices      = "notices.manage"
	ActionManageBanners      = "banners.manage"
)

// Owned is implemented by resources that belong to a store owner.
type Owned interface {
	OwnedBy(userID string) bool
}

// Policy is the single permission-evaluation point. Admins can do anything;
// store owners can act on resources their store owns; regular users only
// consume their own tickets.
type Policy struct{}

func NewPolicy() *Policy {
	return &Policy{}
}

func (p *Policy) Can(actor *models.User, action string, resource interface{}) bool {
	if actor == nil {
		return false
	}
	if actor.IsAdmin() {
		return true
	}

	switch action {
	case ActionUseTickets:
		// A user may consume tickets they own.
		if t, ok := resource.(*models.SeatTicket); ok {
			return t.UserID == actor.ID
		}
		return actor.Role == models.RoleUser || actor.IsStoreOwner()
	case ActionGrantTickets, ActionDistributeTickets:
		if !actor.IsStoreOwner() {
			return false
		}
		if owned, ok := resource.(Owned); ok {
			return owned.OwnedBy(actor.ID)
		}
		return true
	case ActionManageStore, ActionManageBanners:
		if !actor.IsStoreOwner() {
			return false
		}
		if owned, ok := resource.(Owned); ok {
			return owned.OwnedBy(actor.ID)
		}
		return true
	case ActionManageTournaments, ActionManageDistribution, ActionManageNotices:
		// Head-office operations stay admin-only.
		return false
	}
	return false
}
