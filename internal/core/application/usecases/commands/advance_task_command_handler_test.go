package commands_test

import (
	"testing"
	"time"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/model/task"
	"dispatch/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func claimedTask(t *testing.T, orderID, businessID, courierID kernel.UUID) *task.Task {
	t.Helper()

	tk := newWaitingTask(t, orderID, businessID)
	require.NoError(t, tk.Assign(courierID, "Jane Smith", time.Now()))
	return tk
}

func TestAdvanceTaskCommandHandler_Handle_FullProgression(t *testing.T) {
	ctx := t.Context()

	businessID := kernel.NewUUID()
	courierID := kernel.NewUUID()
	testOrder := newTestOrder(t, businessID)
	require.NoError(t, testOrder.Confirm())
	require.NoError(t, testOrder.Assign())

	store := newFakeTaskStore()
	tk := claimedTask(t, testOrder.ID(), businessID, courierID)
	require.NoError(t, store.Add(ctx, tk))

	orderRepo := new(MockOrderRepository)
	orderRepo.On("Get", ctx, testOrder.ID()).Return(testOrder, nil)
	orderRepo.On("Update", ctx, mock.AnythingOfType("*order.Order")).Return(nil)

	publisher := new(RecordingPublisher)
	handler := commands.NewAdvanceTaskCommandHandler(store, orderRepo, publisher, discardLogger())

	for _, target := range []task.Status{task.PickedUp, task.Delivering, task.Delivered} {
		cmd, err := commands.NewAdvanceTaskCommand(tk.ID(), courierID, target)
		require.NoError(t, err)

		updated, err := handler.Handle(ctx, cmd)
		require.NoError(t, err)
		assert.Equal(t, target, updated.Status())
	}

	final, err := store.Get(ctx, tk.ID())
	require.NoError(t, err)
	assert.Equal(t, task.Delivered, final.Status())
	assert.True(t, final.IsOwnedBy(courierID))
	assert.Equal(t, order.Delivered, testOrder.Status())

	// Each step announces to the business and the order watchers.
	assert.Len(t, publisher.Events(), 6)
}

func TestAdvanceTaskCommandHandler_Handle_SkippingStepRejected(t *testing.T) {
	ctx := t.Context()

	businessID := kernel.NewUUID()
	courierID := kernel.NewUUID()
	orderID := kernel.NewUUID()

	store := newFakeTaskStore()
	tk := claimedTask(t, orderID, businessID, courierID)
	require.NoError(t, store.Add(ctx, tk))

	handler := commands.NewAdvanceTaskCommandHandler(
		store, new(MockOrderRepository), new(RecordingPublisher), discardLogger())

	// Assigned task cannot jump straight to delivering.
	cmd, err := commands.NewAdvanceTaskCommand(tk.ID(), courierID, task.Delivering)
	require.NoError(t, err)

	_, err = handler.Handle(ctx, cmd)

	require.Error(t, err)
	require.ErrorIs(t, err, errs.ErrInvalidState)

	current, err := store.Get(ctx, tk.ID())
	require.NoError(t, err)
	assert.Equal(t, task.Assigned, current.Status())
}

func TestAdvanceTaskCommandHandler_Handle_NotOwner(t *testing.T) {
	ctx := t.Context()

	businessID := kernel.NewUUID()
	ownerID := kernel.NewUUID()
	orderID := kernel.NewUUID()

	store := newFakeTaskStore()
	tk := claimedTask(t, orderID, businessID, ownerID)
	require.NoError(t, store.Add(ctx, tk))

	handler := commands.NewAdvanceTaskCommandHandler(
		store, new(MockOrderRepository), new(RecordingPublisher), discardLogger())

	cmd, err := commands.NewAdvanceTaskCommand(tk.ID(), kernel.NewUUID(), task.PickedUp)
	require.NoError(t, err)

	_, err = handler.Handle(ctx, cmd)

	require.Error(t, err)
	require.ErrorIs(t, err, errs.ErrForbidden)
}

func TestAdvanceTaskCommandHandler_Handle_UnclaimedTask(t *testing.T) {
	ctx := t.Context()

	store := newFakeTaskStore()
	tk := newWaitingTask(t, kernel.NewUUID(), kernel.NewUUID())
	require.NoError(t, store.Add(ctx, tk))

	handler := commands.NewAdvanceTaskCommandHandler(
		store, new(MockOrderRepository), new(RecordingPublisher), discardLogger())

	cmd, err := commands.NewAdvanceTaskCommand(tk.ID(), kernel.NewUUID(), task.PickedUp)
	require.NoError(t, err)

	_, err = handler.Handle(ctx, cmd)

	require.Error(t, err)
	require.ErrorIs(t, err, errs.ErrInvalidState)
}

func TestAdvanceTaskCommandHandler_Handle_DuplicateReportIsIdempotent(t *testing.T) {
	ctx := t.Context()

	businessID := kernel.NewUUID()
	courierID := kernel.NewUUID()
	orderID := kernel.NewUUID()

	store := newFakeTaskStore()
	tk := claimedTask(t, orderID, businessID, courierID)
	require.NoError(t, store.Add(ctx, tk))

	orderRepo := new(MockOrderRepository)
	orderRepo.On("Get", ctx, orderID).
		Return(nil, errs.NewObjectNotFoundError("order_id", orderID.String()))

	publisher := new(RecordingPublisher)
	handler := commands.NewAdvanceTaskCommandHandler(store, orderRepo, publisher, discardLogger())

	cmd, err := commands.NewAdvanceTaskCommand(tk.ID(), courierID, task.PickedUp)
	require.NoError(t, err)

	first, err := handler.Handle(ctx, cmd)
	require.NoError(t, err)
	assert.Equal(t, task.PickedUp, first.Status())

	second, err := handler.Handle(ctx, cmd)
	require.NoError(t, err)
	assert.Equal(t, task.PickedUp, second.Status())

	// The duplicate must not re-announce.
	assert.Len(t, publisher.Events(), 2)
}

func TestAdvanceTaskCommandHandler_Handle_TaskNotFound(t *testing.T) {
	ctx := t.Context()

	handler := commands.NewAdvanceTaskCommandHandler(
		newFakeTaskStore(), new(MockOrderRepository), new(RecordingPublisher), discardLogger())

	cmd, err := commands.NewAdvanceTaskCommand(kernel.NewUUID(), kernel.NewUUID(), task.PickedUp)
	require.NoError(t, err)

	_, err = handler.Handle(ctx, cmd)

	require.Error(t, err)
	require.ErrorIs(t, err, errs.ErrObjectNotFound)
}
