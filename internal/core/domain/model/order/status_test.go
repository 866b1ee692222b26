package order_test

import (
	"testing"

	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_String(t *testing.T) {
	tests := []struct {
		status order.Status
		want   string
	}{
		{order.Created, "created"},
		{order.Confirmed, "confirmed"},
		{order.Ready, "ready"},
		{order.Assigned, "assigned"},
		{order.PickedUp, "picked_up"},
		{order.Delivering, "delivering"},
		{order.Delivered, "delivered"},
		{order.Cancelled, "cancelled"},
		{order.Unknown, "unknown"},
		{order.Status(99), "unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.status.String())
	}
}

func TestStatusFromString(t *testing.T) {
	t.Run("round trip for every valid status", func(t *testing.T) {
		valid := []order.Status{
			order.Created, order.Confirmed, order.Ready, order.Assigned,
			order.PickedUp, order.Delivering, order.Delivered, order.Cancelled,
		}
		for _, s := range valid {
			parsed, err := order.StatusFromString(s.String())
			require.NoError(t, err)
			assert.Equal(t, s, parsed)
		}
	})

	t.Run("unknown string rejected", func(t *testing.T) {
		_, err := order.StatusFromString("sleeping")
		assert.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})
}

func TestStatus_Advance(t *testing.T) {
	t.Run("full forward sequence", func(t *testing.T) {
		sequence := []order.Status{
			order.Confirmed, order.Ready, order.Assigned,
			order.PickedUp, order.Delivering, order.Delivered,
		}

		current := order.Created
		for _, next := range sequence {
			advanced, err := current.Advance(next)
			require.NoError(t, err)
			current = advanced
		}
		assert.Equal(t, order.Delivered, current)
	})

	t.Run("assigned reachable straight from confirmed", func(t *testing.T) {
		advanced, err := order.Confirmed.Advance(order.Assigned)
		require.NoError(t, err)
		assert.Equal(t, order.Assigned, advanced)
	})

	t.Run("skipping a step is rejected", func(t *testing.T) {
		_, err := order.Created.Advance(order.Ready)
		assert.ErrorIs(t, err, errs.ErrInvalidState)

		_, err = order.Assigned.Advance(order.Delivering)
		assert.ErrorIs(t, err, errs.ErrInvalidState)
	})

	t.Run("moving backwards is rejected", func(t *testing.T) {
		_, err := order.Ready.Advance(order.Confirmed)
		assert.ErrorIs(t, err, errs.ErrInvalidState)
	})

	t.Run("terminal statuses cannot advance", func(t *testing.T) {
		for _, s := range []order.Status{order.Delivered, order.Cancelled} {
			_, err := s.Advance(order.Assigned)
			assert.ErrorIs(t, err, errs.ErrInvalidState)
		}
	})
}

func TestStatus_Cancel(t *testing.T) {
	t.Run("cancellable from any non-terminal state", func(t *testing.T) {
		nonTerminal := []order.Status{
			order.Created, order.Confirmed, order.Ready, order.Assigned,
			order.PickedUp, order.Delivering,
		}
		for _, s := range nonTerminal {
			cancelled, err := s.Cancel()
			require.NoError(t, err, "status %s", s)
			assert.Equal(t, order.Cancelled, cancelled)
		}
	})

	t.Run("terminal states cannot be cancelled", func(t *testing.T) {
		_, err := order.Delivered.Cancel()
		assert.ErrorIs(t, err, errs.ErrInvalidState)

		_, err = order.Cancelled.Cancel()
		assert.ErrorIs(t, err, errs.ErrInvalidState)
	})
}

func TestStatus_IsTerminal(t *testing.T) {
	assert.True(t, order.Delivered.IsTerminal())
	assert.True(t, order.Cancelled.IsTerminal())
	assert.False(t, order.Created.IsTerminal())
	assert.False(t, order.Delivering.IsTerminal())
}
