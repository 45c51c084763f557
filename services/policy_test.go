package services

import (
	"testing"

	"asl-holdem/models"

	"github.com/stretchr/testify/require"
)

func TestPolicyAdminCanDoAnything(t *testing.T) {
	policy := NewPolicy()
	admin := &models.User{ID: "admin-1", Role: models.RoleAdmin}

	for _, action := range []string{
		ActionManageTournaments, ActionGrantTickets, ActionUseTickets,
		ActionManageDistribution, ActionDistributeTickets,
		ActionManageStore, ActionManageNotices, ActionManageBanners,
	} {
		require.True(t, policy.Can(admin, action, nil), action)
	}
}

func TestPolicyStoreOwnerScopedToOwnStore(t *testing.T) {
	policy := NewPolicy()
	owner := &models.User{ID: "owner-1", Role: models.RoleStoreOwner}
	ownStore := &models.Store{ID: "s1", OwnerID: "owner-1"}
	otherStore := &models.Store{ID: "s2", OwnerID: "someone-else"}

	require.True(t, policy.Can(owner, ActionManageStore, ownStore))
	require.False(t, policy.Can(owner, ActionManageStore, otherStore))

	ownDist := &models.TicketDistribution{ID: "d1", Store: *ownStore}
	otherDist := &models.TicketDistribution{ID: "d2", Store: *otherStore}
	require.True(t, policy.Can(owner, ActionDistributeTickets, ownDist))
	require.False(t, policy.Can(owner, ActionDistributeTickets, otherDist))

	// Head-office actions stay closed to store owners.
	require.False(t, policy.Can(owner, ActionManageTournaments, nil))
	require.False(t, policy.Can(owner, ActionManageDistribution, nil))
	require.False(t, policy.Can(owner, ActionManageNotices, nil))
}

func TestPolicyUserOnlyConsumesOwnTickets(t *testing.T) {
	policy := NewPolicy()
	user := &models.User{ID: "u1", Role: models.RoleUser}

	ownTicket := &models.SeatTicket{ID: "t1", UserID: "u1"}
	otherTicket := &models.SeatTicket{ID: "t2", UserID: "u2"}
	require.True(t, policy.Can(user, ActionUseTickets, ownTicket))
	require.False(t, policy.Can(user, ActionUseTickets, otherTicket))

	require.False(t, policy.Can(user, ActionGrantTickets, nil))
	require.False(t, policy.Can(user, ActionManageStore, &models.Store{OwnerID: "u1"}))
	require.False(t, policy.Can(nil, ActionUseTickets, ownTicket))
}
