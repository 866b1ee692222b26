package task_test

import (
	"testing"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/task"
	"dispatch/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPoints(t *testing.T) (kernel.GeoPoint, kernel.GeoPoint) {
	t.Helper()
	pickup, err := kernel.NewGeoPoint(41.0369, 28.9850)
	require.NoError(t, err)
	dropoff, err := kernel.NewGeoPoint(41.0082, 28.9784)
	require.NoError(t, err)
	return pickup, dropoff
}

func newWaitingTask(t *testing.T) *task.Task {
	t.Helper()
	pickup, dropoff := testPoints(t)
	tsk, err := task.NewTask(
		kernel.NewUUID(), kernel.NewUUID(), kernel.NewUUID(),
		pickup, dropoff,
		"Meşrutiyet Cd. 12", "Istiklal Cd. 24",
		15.0,
	)
	require.NoError(t, err)
	return tsk
}

func TestNewTask(t *testing.T) {
	t.Run("valid task starts waiting without courier", func(t *testing.T) {
		tsk := newWaitingTask(t)

		assert.Equal(t, task.Waiting, tsk.Status())
		assert.Nil(t, tsk.Courier())
		assert.Nil(t, tsk.AssignedAt())
		assert.InEpsilon(t, 15.0, tsk.UnitDeliveryFee(), 1e-9)
		assert.False(t, tsk.CreatedAt().IsZero())
		assert.NoError(t, tsk.Validate())
	})

	t.Run("negative fee rejected", func(t *testing.T) {
		pickup, dropoff := testPoints(t)
		_, err := task.NewTask(
			kernel.NewUUID(), kernel.NewUUID(), kernel.NewUUID(),
			pickup, dropoff, "a", "b", -1,
		)
		assert.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})

	t.Run("unconstructed coordinates rejected", func(t *testing.T) {
		pickup, _ := testPoints(t)
		var dropoff kernel.GeoPoint
		_, err := task.NewTask(
			kernel.NewUUID(), kernel.NewUUID(), kernel.NewUUID(),
			pickup, dropoff, "a", "b", 10,
		)
		assert.Error(t, err)
	})
}

func TestTask_Assign(t *testing.T) {
	t.Run("waiting task is awarded once", func(t *testing.T) {
		tsk := newWaitingTask(t)
		courierID := kernel.NewUUID()
		now := time.Now().UTC()

		require.NoError(t, tsk.Assign(courierID, "Mehmet", now))

		assert.Equal(t, task.Assigned, tsk.Status())
		require.NotNil(t, tsk.Courier())
		assert.True(t, tsk.Courier().IsEqual(courierID))
		assert.Equal(t, "Mehmet", tsk.CourierName())
		require.NotNil(t, tsk.AssignedAt())
		assert.True(t, tsk.IsOwnedBy(courierID))
	})

	t.Run("second assign conflicts and keeps the first winner", func(t *testing.T) {
		tsk := newWaitingTask(t)
		winner := kernel.NewUUID()
		loser := kernel.NewUUID()

		require.NoError(t, tsk.Assign(winner, "Mehmet", time.Now()))
		err := tsk.Assign(loser, "Deniz", time.Now())

		assert.ErrorIs(t, err, errs.ErrConflict)
		assert.True(t, tsk.Courier().IsEqual(winner))
		assert.Equal(t, "Mehmet", tsk.CourierName())
	})

	t.Run("empty courier name rejected", func(t *testing.T) {
		tsk := newWaitingTask(t)
		err := tsk.Assign(kernel.NewUUID(), "", time.Now())
		assert.ErrorIs(t, err, errs.ErrValueIsRequired)
	})
}

func TestTask_Progress(t *testing.T) {
	t.Run("full delivery sequence by the owner", func(t *testing.T) {
		tsk := newWaitingTask(t)
		courierID := kernel.NewUUID()
		require.NoError(t, tsk.Assign(courierID, "Mehmet", time.Now()))

		require.NoError(t, tsk.MarkPickedUp(courierID))
		require.NoError(t, tsk.MarkDelivering(courierID))
		require.NoError(t, tsk.MarkDelivered(courierID))
		assert.Equal(t, task.Delivered, tsk.Status())
	})

	t.Run("picked_up on a waiting task is invalid state", func(t *testing.T) {
		tsk := newWaitingTask(t)
		err := tsk.MarkPickedUp(kernel.NewUUID())
		// No owner yet, so ownership fails before the transition check.
		assert.Error(t, err)
	})

	t.Run("non-owner cannot progress", func(t *testing.T) {
		tsk := newWaitingTask(t)
		owner := kernel.NewUUID()
		require.NoError(t, tsk.Assign(owner, "Mehmet", time.Now()))

		err := tsk.MarkPickedUp(kernel.NewUUID())
		assert.ErrorIs(t, err, errs.ErrForbidden)
	})

	t.Run("out of order transition rejected", func(t *testing.T) {
		tsk := newWaitingTask(t)
		owner := kernel.NewUUID()
		require.NoError(t, tsk.Assign(owner, "Mehmet", time.Now()))

		err := tsk.MarkDelivering(owner)
		assert.ErrorIs(t, err, errs.ErrInvalidState)
	})
}

func TestTask_Cancel(t *testing.T) {
	t.Run("waiting task cancels", func(t *testing.T) {
		tsk := newWaitingTask(t)
		require.NoError(t, tsk.Cancel())
		assert.Equal(t, task.Cancelled, tsk.Status())
	})

	t.Run("assigned task cancels and keeps courier attribution", func(t *testing.T) {
		tsk := newWaitingTask(t)
		courierID := kernel.NewUUID()
		require.NoError(t, tsk.Assign(courierID, "Mehmet", time.Now()))

		require.NoError(t, tsk.Cancel())
		assert.Equal(t, task.Cancelled, tsk.Status())
		assert.True(t, tsk.Courier().IsEqual(courierID))
	})

	t.Run("delivered task cannot cancel", func(t *testing.T) {
		tsk := newWaitingTask(t)
		courierID := kernel.NewUUID()
		require.NoError(t, tsk.Assign(courierID, "Mehmet", time.Now()))
		require.NoError(t, tsk.MarkPickedUp(courierID))
		require.NoError(t, tsk.MarkDelivering(courierID))
		require.NoError(t, tsk.MarkDelivered(courierID))

		assert.ErrorIs(t, tsk.Cancel(), errs.ErrInvalidState)
	})
}

func TestRestoreTask(t *testing.T) {
	pickup, dropoff := testPoints(t)

	t.Run("waiting task with courier is rejected", func(t *testing.T) {
		courierID := kernel.NewUUID()
		_, err := task.RestoreTask(
			kernel.NewUUID(), kernel.NewUUID(), kernel.NewUUID(),
			&courierID, "Mehmet", task.Waiting,
			pickup, dropoff, "a", "b", 10, time.Now(), nil,
		)
		assert.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})

	t.Run("assigned task without courier is rejected", func(t *testing.T) {
		_, err := task.RestoreTask(
			kernel.NewUUID(), kernel.NewUUID(), kernel.NewUUID(),
			nil, "", task.Assigned,
			pickup, dropoff, "a", "b", 10, time.Now(), nil,
		)
		assert.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})

	t.Run("cancelled task without courier restores", func(t *testing.T) {
		tsk, err := task.RestoreTask(
			kernel.NewUUID(), kernel.NewUUID(), kernel.NewUUID(),
			nil, "", task.Cancelled,
			pickup, dropoff, "a", "b", 10, time.Now(), nil,
		)
		require.NoError(t, err)
		assert.Equal(t, task.Cancelled, tsk.Status())
	})

	t.Run("assigned task round trips", func(t *testing.T) {
		courierID := kernel.NewUUID()
		assignedAt := time.Now().UTC()
		tsk, err := task.RestoreTask(
			kernel.NewUUID(), kernel.NewUUID(), kernel.NewUUID(),
			&courierID, "Mehmet", task.Assigned,
			pickup, dropoff, "a", "b", 10, time.Now(), &assignedAt,
		)
		require.NoError(t, err)
		assert.True(t, tsk.IsOwnedBy(courierID))
		assert.Equal(t, task.Assigned, tsk.Status())
	})
}
