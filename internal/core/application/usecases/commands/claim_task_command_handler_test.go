package commands_test

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/model/task"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestClaimTaskCommandHandler_Handle_Success(t *testing.T) {
	ctx := t.Context()

	businessID := kernel.NewUUID()
	testOrder := newTestOrder(t, businessID)
	require.NoError(t, testOrder.Confirm())

	store := newFakeTaskStore()
	waiting := newWaitingTask(t, testOrder.ID(), businessID)
	require.NoError(t, store.Add(ctx, waiting))

	orderRepo := new(MockOrderRepository)
	orderRepo.On("Get", ctx, testOrder.ID()).Return(testOrder, nil).Once()
	orderRepo.On("Update", ctx, mock.AnythingOfType("*order.Order")).Return(nil).Once()

	publisher := new(RecordingPublisher)
	handler := commands.NewClaimTaskCommandHandler(store, orderRepo, publisher, discardLogger())

	courierID := kernel.NewUUID()
	cmd, err := commands.NewClaimTaskCommand(waiting.ID(), courierID, "Jane Smith")
	require.NoError(t, err)

	result, err := handler.Handle(ctx, cmd)

	require.NoError(t, err)
	assert.False(t, result.AlreadyYours)
	assert.Equal(t, task.Assigned, result.Task.Status())
	require.NotNil(t, result.Task.Courier())
	assert.True(t, result.Task.Courier().IsEqual(courierID))
	assert.Equal(t, "Jane Smith", result.Task.CourierName())
	assert.NotNil(t, result.Task.AssignedAt())

	// Order mirrored to assigned.
	assert.Equal(t, order.Assigned, testOrder.Status())

	assigned := publisher.EventsOfType(ports.EventTaskAssigned)
	require.Len(t, assigned, 3)
	orderRepo.AssertExpectations(t)
}

func TestClaimTaskCommandHandler_Handle_LostRace(t *testing.T) {
	ctx := t.Context()

	businessID := kernel.NewUUID()
	orderID := kernel.NewUUID()

	store := newFakeTaskStore()
	waiting := newWaitingTask(t, orderID, businessID)
	require.NoError(t, store.Add(ctx, waiting))

	winner := kernel.NewUUID()
	winnerCmd, err := commands.NewClaimTaskCommand(waiting.ID(), winner, "First Courier")
	require.NoError(t, err)

	orderRepo := new(MockOrderRepository)
	orderRepo.On("Get", ctx, orderID).
		Return(nil, errs.NewObjectNotFoundError("order_id", orderID.String()))

	handler := commands.NewClaimTaskCommandHandler(store, orderRepo, new(RecordingPublisher), discardLogger())

	_, err = handler.Handle(ctx, winnerCmd)
	require.NoError(t, err)

	loser := kernel.NewUUID()
	loserCmd, err := commands.NewClaimTaskCommand(waiting.ID(), loser, "Second Courier")
	require.NoError(t, err)

	_, err = handler.Handle(ctx, loserCmd)

	require.Error(t, err)
	require.ErrorIs(t, err, errs.ErrConflict)

	// The winner's award is untouched.
	current, err := store.Get(ctx, waiting.ID())
	require.NoError(t, err)
	assert.True(t, current.IsOwnedBy(winner))
	assert.Equal(t, "First Courier", current.CourierName())
}

func TestClaimTaskCommandHandler_Handle_RetryIsIdempotent(t *testing.T) {
	ctx := t.Context()

	businessID := kernel.NewUUID()
	orderID := kernel.NewUUID()

	store := newFakeTaskStore()
	waiting := newWaitingTask(t, orderID, businessID)
	require.NoError(t, store.Add(ctx, waiting))

	orderRepo := new(MockOrderRepository)
	orderRepo.On("Get", ctx, orderID).
		Return(nil, errs.NewObjectNotFoundError("order_id", orderID.String()))

	publisher := new(RecordingPublisher)
	handler := commands.NewClaimTaskCommandHandler(store, orderRepo, publisher, discardLogger())

	courierID := kernel.NewUUID()
	cmd, err := commands.NewClaimTaskCommand(waiting.ID(), courierID, "Jane Smith")
	require.NoError(t, err)

	first, err := handler.Handle(ctx, cmd)
	require.NoError(t, err)
	require.False(t, first.AlreadyYours)

	second, err := handler.Handle(ctx, cmd)
	require.NoError(t, err)
	assert.True(t, second.AlreadyYours)
	assert.True(t, second.Task.IsOwnedBy(courierID))

	// The retry must not re-announce the assignment.
	assert.Len(t, publisher.EventsOfType(ports.EventTaskAssigned), 3)
}

func TestClaimTaskCommandHandler_Handle_TaskNotFound(t *testing.T) {
	ctx := t.Context()

	store := newFakeTaskStore()
	handler := commands.NewClaimTaskCommandHandler(store, new(MockOrderRepository), new(RecordingPublisher), discardLogger())

	cmd, err := commands.NewClaimTaskCommand(kernel.NewUUID(), kernel.NewUUID(), "Jane Smith")
	require.NoError(t, err)

	_, err = handler.Handle(ctx, cmd)

	require.Error(t, err)
	require.ErrorIs(t, err, errs.ErrObjectNotFound)
}

func TestClaimTaskCommandHandler_Handle_ValidationError(t *testing.T) {
	ctx := t.Context()

	handler := commands.NewClaimTaskCommandHandler(
		newFakeTaskStore(), new(MockOrderRepository), new(RecordingPublisher), discardLogger())

	_, err := handler.Handle(ctx, commands.ClaimTaskCommand{})

	require.ErrorIs(t, err, commands.ErrClaimTaskCommandIsNotConstructed)
}

func TestClaimTaskCommandHandler_Handle_OrderSyncFailureDoesNotFailClaim(t *testing.T) {
	ctx := t.Context()

	businessID := kernel.NewUUID()
	orderID := kernel.NewUUID()

	store := newFakeTaskStore()
	waiting := newWaitingTask(t, orderID, businessID)
	require.NoError(t, store.Add(ctx, waiting))

	orderRepo := new(MockOrderRepository)
	orderRepo.On("Get", ctx, orderID).Return(nil, errors.New("database down")).Once()

	handler := commands.NewClaimTaskCommandHandler(store, orderRepo, new(RecordingPublisher), discardLogger())

	cmd, err := commands.NewClaimTaskCommand(waiting.ID(), kernel.NewUUID(), "Jane Smith")
	require.NoError(t, err)

	result, err := handler.Handle(ctx, cmd)

	require.NoError(t, err)
	assert.Equal(t, task.Assigned, result.Task.Status())
}

// TestClaimTaskCommandHandler_ExactlyOneWinner hammers one waiting task with
// many concurrent couriers and requires that exactly one claim succeeds and
// the task ends up owned by that courier.
func TestClaimTaskCommandHandler_ExactlyOneWinner(t *testing.T) {
	ctx := t.Context()

	const couriers = 64

	businessID := kernel.NewUUID()
	orderID := kernel.NewUUID()

	store := newFakeTaskStore()
	waiting := newWaitingTask(t, orderID, businessID)
	require.NoError(t, store.Add(ctx, waiting))

	orderRepo := new(MockOrderRepository)
	orderRepo.On("Get", mock.Anything, orderID).
		Return(nil, errs.NewObjectNotFoundError("order_id", orderID.String()))

	publisher := new(RecordingPublisher)
	handler := commands.NewClaimTaskCommandHandler(store, orderRepo, publisher, discardLogger())

	type outcome struct {
		courierID kernel.UUID
		err       error
	}

	results := make([]outcome, couriers)
	var wg sync.WaitGroup

	for i := 0; i < couriers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			courierID := kernel.NewUUID()
			cmd, err := commands.NewClaimTaskCommand(waiting.ID(), courierID, fmt.Sprintf("Courier %d", i))
			if err != nil {
				results[i] = outcome{courierID: courierID, err: err}
				return
			}

			_, err = handler.Handle(ctx, cmd)
			results[i] = outcome{courierID: courierID, err: err}
		}(i)
	}

	wg.Wait()

	var winners []kernel.UUID
	for _, r := range results {
		switch {
		case r.err == nil:
			winners = append(winners, r.courierID)
		default:
			require.ErrorIs(t, r.err, errs.ErrConflict)
		}
	}

	require.Len(t, winners, 1)

	final, err := store.Get(ctx, waiting.ID())
	require.NoError(t, err)
	assert.Equal(t, task.Assigned, final.Status())
	assert.True(t, final.IsOwnedBy(winners[0]))

	// Exactly one assignment announcement set went out.
	assert.Len(t, publisher.EventsOfType(ports.EventTaskAssigned), 3)
}
