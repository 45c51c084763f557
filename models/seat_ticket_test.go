package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIsCurrentlyValid(t *testing.T) {
	now := time.Now()
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	ticket := SeatTicket{Status: TicketActive}
	require.True(t, ticket.IsCurrentlyValid(now), "active without expiry")

	ticket.ExpiresAt = &future
	require.True(t, ticket.IsCurrentlyValid(now), "active before expiry")

	ticket.ExpiresAt = &past
	require.False(t, ticket.IsCurrentlyValid(now), "active past expiry")
	require.Equal(t, TicketActive, ticket.Status, "validity check must not mutate status")

	for _, status := range []TicketStatus{TicketUsed, TicketExpired, TicketCancelled} {
		ticket := SeatTicket{Status: status}
		require.False(t, ticket.IsCurrentlyValid(now), string(status))
	}

	// Boundary: exactly at expiry is still valid, only strictly after fails.
	ticket = SeatTicket{Status: TicketActive, ExpiresAt: &now}
	require.True(t, ticket.IsCurrentlyValid(now))
}

func TestUseTransitions(t *testing.T) {
	now := time.Now()

	ticket := SeatTicket{Status: TicketActive}
	require.True(t, ticket.Use(now))
	require.Equal(t, TicketUsed, ticket.Status)
	require.NotNil(t, ticket.UsedAt)
	require.Equal(t, now, *ticket.UsedAt)

	// Terminal states never transition again.
	for _, status := range []TicketStatus{TicketUsed, TicketExpired, TicketCancelled} {
		ticket := SeatTicket{Status: status}
		require.False(t, ticket.Use(now), string(status))
		require.Equal(t, status, ticket.Status)
		require.Nil(t, ticket.UsedAt)
	}
}
