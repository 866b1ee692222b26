package cmd

import (
	"log/slog"

	adapterhttp "dispatch/internal/adapters/in/http"
	"dispatch/internal/adapters/in/ws"
	"dispatch/internal/adapters/out/eventbus"
	"dispatch/internal/adapters/out/postgres"
	"dispatch/internal/adapters/out/postgres/businessrepo"
	"dispatch/internal/adapters/out/postgres/courierrepo"
	"dispatch/internal/adapters/out/postgres/orderrepo"
	"dispatch/internal/adapters/out/postgres/taskrepo"
	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/ports"
	"dispatch/internal/jobs"

	"gorm.io/gorm"
)

type CompositionRoot struct {
	configs     Config
	gormDB      *gorm.DB
	uowFactory  postgres.GormUnitOfWorkFactory
	broadcaster *eventbus.Broadcaster
	logger      *slog.Logger
}

func NewCompositionRoot(configs Config, gormDB *gorm.DB, logger *slog.Logger) CompositionRoot {
	return CompositionRoot{
		configs:     configs,
		gormDB:      gormDB,
		uowFactory:  *postgres.NewGormUnitOfWorkFactory(gormDB),
		broadcaster: eventbus.NewBroadcaster(configs.EventQueueSize, logger),
		logger:      logger,
	}
}

// Broadcaster exposes the shared event broadcaster for shutdown.
func (c *CompositionRoot) Broadcaster() *eventbus.Broadcaster {
	return c.broadcaster
}

func (c *CompositionRoot) CreateConfirmOrderCommandHandler() commands.ConfirmOrderCommandHandler {
	var f commands.UoWFactory = FuncUoWFactory(func() commands.UoW {
		return c.uowFactory.Create()
	})
	return commands.NewConfirmOrderCommandHandler(f, c.businessRepository(), c.broadcaster)
}

func (c *CompositionRoot) CreateMarkOrderReadyCommandHandler() commands.MarkOrderReadyCommandHandler {
	var f commands.OrderUoWFactory = FuncOrderUoWFactory(func() commands.OrderUoW {
		return c.uowFactory.Create()
	})
	return commands.NewMarkOrderReadyCommandHandler(f, c.broadcaster)
}

func (c *CompositionRoot) CreateCancelOrderCommandHandler() commands.CancelOrderCommandHandler {
	var f commands.UoWFactory = FuncUoWFactory(func() commands.UoW {
		return c.uowFactory.Create()
	})
	return commands.NewCancelOrderCommandHandler(f, c.broadcaster)
}

func (c *CompositionRoot) CreateClaimTaskCommandHandler() commands.ClaimTaskCommandHandler {
	return commands.NewClaimTaskCommandHandler(
		c.taskRepository(), c.orderRepository(), c.broadcaster, c.logger)
}

func (c *CompositionRoot) CreateAdvanceTaskCommandHandler() commands.AdvanceTaskCommandHandler {
	return commands.NewAdvanceTaskCommandHandler(
		c.taskRepository(), c.orderRepository(), c.broadcaster, c.logger)
}

func (c *CompositionRoot) CreateReconcileOrdersCommandHandler() commands.ReconcileOrdersCommandHandler {
	return commands.NewReconcileOrdersCommandHandler(
		c.orderRepository(), c.taskRepository(), c.logger)
}

func (c *CompositionRoot) CreateNearbyBusinessesQueryHandler() queries.NearbyBusinessesQueryHandler {
	return queries.NewNearbyBusinessesQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateAvailableTasksQueryHandler() queries.AvailableTasksQueryHandler {
	return queries.NewAvailableTasksQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateListWaitingTasksQueryHandler() queries.ListWaitingTasksQueryHandler {
	return queries.NewListWaitingTasksQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateMyTasksQueryHandler() queries.MyTasksQueryHandler {
	return queries.NewMyTasksQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateHTTPServer() *adapterhttp.Server {
	return adapterhttp.NewServer(
		c.CreateConfirmOrderCommandHandler(),
		c.CreateMarkOrderReadyCommandHandler(),
		c.CreateCancelOrderCommandHandler(),
		c.CreateClaimTaskCommandHandler(),
		c.CreateAdvanceTaskCommandHandler(),
		c.CreateNearbyBusinessesQueryHandler(),
		c.CreateAvailableTasksQueryHandler(),
		c.CreateListWaitingTasksQueryHandler(),
		c.CreateMyTasksQueryHandler(),
		c.courierRepository(),
	)
}

func (c *CompositionRoot) CreateWSGateway() *ws.Gateway {
	return ws.NewGateway(c.broadcaster, c.logger)
}

func (c *CompositionRoot) CreateJobManager() *jobs.JobManager {
	return jobs.NewJobManager(
		c.CreateReconcileOrdersCommandHandler(),
		c.configs.ReconcileInterval,
		c.logger,
	)
}

// taskRepository returns a repository on the base connection, for the
// lock-free claim and progress paths that run outside a unit of work.
func (c *CompositionRoot) taskRepository() ports.TaskRepository {
	return taskrepo.NewGormTaskRepository(c.gormDB, noopTracker{})
}

func (c *CompositionRoot) orderRepository() ports.OrderRepository {
	return orderrepo.NewGormOrderRepository(c.gormDB, noopTracker{})
}

func (c *CompositionRoot) businessRepository() ports.BusinessRepository {
	return businessrepo.NewGormBusinessRepository(c.gormDB)
}

func (c *CompositionRoot) courierRepository() ports.CourierRepository {
	return courierrepo.NewGormCourierRepository(c.gormDB)
}

// noopTracker satisfies the repositories' aggregate tracking outside a unit
// of work, where there is no post-commit processing to feed.
type noopTracker struct{}

func (noopTracker) TrackAggregate(_ kernel.UUID, _ any) {}

type FuncOrderUoWFactory func() commands.OrderUoW

func (f FuncOrderUoWFactory) Create() commands.OrderUoW {
	return f()
}

type FuncUoWFactory func() commands.UoW

func (f FuncUoWFactory) Create() commands.UoW {
	return f()
}
