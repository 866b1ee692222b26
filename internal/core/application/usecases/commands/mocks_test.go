package commands_test

import (
	"context"
	"sync"
	"testing"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/model/task"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestOrder(t *testing.T, businessID kernel.UUID) *order.Order {
	t.Helper()

	point, err := kernel.NewGeoPoint(41.015, 28.979)
	require.NoError(t, err)

	o, err := order.NewOrder(
		kernel.NewUUID(), businessID, kernel.NewUUID(), "Ada Lovelace",
		[]order.Item{{ProductID: "p-1", Title: "Filter Coffee", UnitPrice: 4.5, Quantity: 2}},
		order.Address{Label: "home", Text: "12 Elm Street", Point: point},
		order.Totals{Subtotal: 9, DeliveryFee: 2, Grand: 11},
		"card",
	)
	require.NoError(t, err)
	return o
}

func newWaitingTask(t *testing.T, orderID, businessID kernel.UUID) *task.Task {
	t.Helper()

	pickup, err := kernel.NewGeoPoint(41.020, 28.975)
	require.NoError(t, err)
	dropoff, err := kernel.NewGeoPoint(41.015, 28.979)
	require.NoError(t, err)

	tk, err := task.NewTask(
		kernel.NewUUID(), orderID, businessID,
		pickup, dropoff, "5 Bakery Lane", "12 Elm Street", 3.5,
	)
	require.NoError(t, err)
	return tk
}

type MockOrderRepository struct{ mock.Mock }

func (m *MockOrderRepository) Add(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) Update(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) GetAllInStatus(ctx context.Context, status order.Status) ([]*order.Order, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Order), args.Error(1)
}

type MockTaskRepository struct{ mock.Mock }

func (m *MockTaskRepository) Add(ctx context.Context, t *task.Task) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTaskRepository) Get(ctx context.Context, id kernel.UUID) (*task.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskRepository) GetByOrderID(ctx context.Context, orderID kernel.UUID) (*task.Task, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskRepository) List(ctx context.Context, filter ports.TaskFilter) ([]*task.Task, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Task), args.Error(1)
}

func (m *MockTaskRepository) UpdateIf(
	ctx context.Context,
	id kernel.UUID,
	expected ports.TaskExpectation,
	patch ports.TaskPatch,
) (int64, error) {
	args := m.Called(ctx, id, expected, patch)
	return args.Get(0).(int64), args.Error(1)
}

type MockBusinessRepository struct{ mock.Mock }

func (m *MockBusinessRepository) Get(ctx context.Context, id kernel.UUID) (ports.Business, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(ports.Business), args.Error(1)
}

func (m *MockBusinessRepository) GetAllApproved(ctx context.Context) ([]ports.Business, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ports.Business), args.Error(1)
}

type MockUoW struct{ mock.Mock }

func (m *MockUoW) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) OrderRepository() ports.OrderRepository {
	args := m.Called()
	return args.Get(0).(ports.OrderRepository)
}

func (m *MockUoW) TaskRepository() ports.TaskRepository {
	args := m.Called()
	return args.Get(0).(ports.TaskRepository)
}

type MockUoWFactory struct{ mock.Mock }

func (m *MockUoWFactory) Create() commands.UoW {
	args := m.Called()
	return args.Get(0).(commands.UoW)
}

type MockOrderUoW struct{ mock.Mock }

func (m *MockOrderUoW) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockOrderUoW) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockOrderUoW) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockOrderUoW) OrderRepository() ports.OrderRepository {
	args := m.Called()
	return args.Get(0).(ports.OrderRepository)
}

type MockOrderUoWFactory struct{ mock.Mock }

func (m *MockOrderUoWFactory) Create() commands.OrderUoW {
	args := m.Called()
	return args.Get(0).(commands.OrderUoW)
}

// RecordingPublisher captures published events. Safe for concurrent use so
// race tests can publish from many goroutines.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []ports.Event
}

func (p *RecordingPublisher) Publish(topic, eventType string, payload map[string]any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ports.Event{Topic: topic, Type: eventType, Payload: payload})
}

func (p *RecordingPublisher) Events() []ports.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]ports.Event, len(p.events))
	copy(out, p.events)
	return out
}

func (p *RecordingPublisher) EventsOfType(eventType string) []ports.Event {
	var out []ports.Event
	for _, e := range p.Events() {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// fakeTaskStore is a mutex-backed in-memory TaskRepository with the same
// conditional-update semantics as the real store. Used to exercise the
// first-courier-wins property under real goroutine contention.
type fakeTaskStore struct {
	mu    sync.Mutex
	tasks map[string]*task.Task
}

func newFakeTaskStore() *fakeTaskStore {
	return &fakeTaskStore{tasks: make(map[string]*task.Task)}
}

func (s *fakeTaskStore) Add(_ context.Context, t *task.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.tasks {
		if existing.OrderID().IsEqual(t.OrderID()) && existing.Status() != task.Cancelled {
			return errs.NewConflictError("task", t.OrderID().String())
		}
	}
	s.tasks[t.ID().String()] = t
	return nil
}

func (s *fakeTaskStore) Get(_ context.Context, id kernel.UUID) (*task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id.String()]
	if !ok {
		return nil, errs.NewObjectNotFoundError("task_id", id.String())
	}
	return t, nil
}

func (s *fakeTaskStore) GetByOrderID(_ context.Context, orderID kernel.UUID) (*task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tasks {
		if t.OrderID().IsEqual(orderID) {
			return t, nil
		}
	}
	return nil, errs.NewObjectNotFoundError("order_id", orderID.String())
}

func (s *fakeTaskStore) List(_ context.Context, _ ports.TaskFilter) ([]*task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*task.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, t)
	}
	return out, nil
}

func (s *fakeTaskStore) UpdateIf(
	_ context.Context,
	id kernel.UUID,
	expected ports.TaskExpectation,
	patch ports.TaskPatch,
) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id.String()]
	if !ok {
		return 0, nil
	}
	if t.Status() != expected.Status {
		return 0, nil
	}
	if expected.CourierID == nil && t.Courier() != nil {
		return 0, nil
	}
	if expected.CourierID != nil && !t.IsOwnedBy(*expected.CourierID) {
		return 0, nil
	}

	courierID := t.Courier()
	courierName := t.CourierName()
	assignedAt := t.AssignedAt()
	if patch.CourierID != nil {
		courierID = patch.CourierID
		courierName = *patch.CourierName
		assignedAt = patch.AssignedAt
	}

	updated, err := task.RestoreTask(
		t.ID(), t.OrderID(), t.BusinessID(),
		courierID, courierName, patch.Status,
		t.PickupCoords(), t.DropoffCoords(),
		t.PickupAddress(), t.DropoffAddress(),
		t.UnitDeliveryFee(), t.CreatedAt(), assignedAt,
	)
	if err != nil {
		return 0, err
	}

	s.tasks[id.String()] = updated
	return 1, nil
}
