// Package http wires the business and courier REST surface to the
// application's command and query handlers. Authentication lives in front
// of this service; the actor arrives as trusted X-Actor-Id and
// X-Actor-Role headers.
package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/model/task"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

const (
	headerActorID   = "X-Actor-Id"
	headerActorRole = "X-Actor-Role"

	roleBusiness = "business"
	roleCourier  = "courier"
)

// Error is the JSON error body every endpoint returns on failure.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Server coordinates between HTTP handlers and application use cases.
type Server struct {
	// Command handlers
	confirmOrderHandler   commands.ConfirmOrderCommandHandler
	markOrderReadyHandler commands.MarkOrderReadyCommandHandler
	cancelOrderHandler    commands.CancelOrderCommandHandler
	claimTaskHandler      commands.ClaimTaskCommandHandler
	advanceTaskHandler    commands.AdvanceTaskCommandHandler

	// Query handlers
	nearbyBusinessesHandler queries.NearbyBusinessesQueryHandler
	availableTasksHandler   queries.AvailableTasksQueryHandler
	listWaitingTasksHandler queries.ListWaitingTasksQueryHandler
	myTasksHandler          queries.MyTasksQueryHandler

	// Courier directory, read to attribute claims by name.
	couriers ports.CourierRepository
}

// NewServer creates an HTTP server with the required command and query
// handlers.
func NewServer(
	confirmOrderHandler commands.ConfirmOrderCommandHandler,
	markOrderReadyHandler commands.MarkOrderReadyCommandHandler,
	cancelOrderHandler commands.CancelOrderCommandHandler,
	claimTaskHandler commands.ClaimTaskCommandHandler,
	advanceTaskHandler commands.AdvanceTaskCommandHandler,
	nearbyBusinessesHandler queries.NearbyBusinessesQueryHandler,
	availableTasksHandler queries.AvailableTasksQueryHandler,
	listWaitingTasksHandler queries.ListWaitingTasksQueryHandler,
	myTasksHandler queries.MyTasksQueryHandler,
	couriers ports.CourierRepository,
) *Server {
	return &Server{
		confirmOrderHandler:     confirmOrderHandler,
		markOrderReadyHandler:   markOrderReadyHandler,
		cancelOrderHandler:      cancelOrderHandler,
		claimTaskHandler:        claimTaskHandler,
		advanceTaskHandler:      advanceTaskHandler,
		nearbyBusinessesHandler: nearbyBusinessesHandler,
		availableTasksHandler:   availableTasksHandler,
		listWaitingTasksHandler: listWaitingTasksHandler,
		myTasksHandler:          myTasksHandler,
		couriers:                couriers,
	}
}

// RegisterRoutes attaches every REST endpoint to the echo instance.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", s.Health)

	e.PUT("/business/orders/:order_id/confirm", s.ConfirmOrder)
	e.PUT("/business/orders/:order_id/ready", s.MarkOrderReady)
	e.PUT("/business/orders/:order_id/cancel", s.CancelOrder)

	e.GET("/courier/tasks/nearby-businesses", s.NearbyBusinesses)
	e.GET("/courier/tasks/businesses/:business_id/available-orders", s.AvailableTasks)
	e.GET("/courier/tasks", s.ListWaitingTasks)
	e.GET("/courier/tasks/my-orders", s.MyTasks)
	e.PUT("/courier/tasks/:task_id/accept", s.ClaimTask)
	e.PUT("/courier/tasks/:task_id/status", s.AdvanceTask)
}

// Health handles GET /health.
func (s *Server) Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// ConfirmOrder handles PUT /business/orders/:order_id/confirm. Repeating a
// confirmation returns the existing task instead of an error.
func (s *Server) ConfirmOrder(ctx echo.Context) error {
	businessID, err := actor(ctx, roleBusiness)
	if err != nil {
		return errorResponse(ctx, err)
	}

	orderID, err := pathUUID(ctx, "order_id")
	if err != nil {
		return errorResponse(ctx, err)
	}

	var body struct {
		UnitDeliveryFee float64 `json:"unit_delivery_fee"`
	}
	if err = ctx.Bind(&body); err != nil {
		return badRequest(ctx, "invalid request body")
	}

	cmd, err := commands.NewConfirmOrderCommand(orderID, businessID, body.UnitDeliveryFee)
	if err != nil {
		return errorResponse(ctx, err)
	}

	result, err := s.confirmOrderHandler.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return errorResponse(ctx, err)
	}

	return ctx.JSON(http.StatusOK, map[string]any{
		"order_id": result.OrderID.String(),
		"task_id":  result.TaskID.String(),
		"created":  result.Created,
	})
}

// MarkOrderReady handles PUT /business/orders/:order_id/ready.
func (s *Server) MarkOrderReady(ctx echo.Context) error {
	businessID, err := actor(ctx, roleBusiness)
	if err != nil {
		return errorResponse(ctx, err)
	}

	orderID, err := pathUUID(ctx, "order_id")
	if err != nil {
		return errorResponse(ctx, err)
	}

	cmd, err := commands.NewMarkOrderReadyCommand(orderID, businessID)
	if err != nil {
		return errorResponse(ctx, err)
	}

	if err = s.markOrderReadyHandler.Handle(ctx.Request().Context(), cmd); err != nil {
		return errorResponse(ctx, err)
	}

	return ctx.JSON(http.StatusOK, map[string]string{
		"order_id": orderID.String(),
		"status":   order.Ready.String(),
	})
}

// CancelOrder handles PUT /business/orders/:order_id/cancel. Cancellation
// is refused once a courier has physically picked the order up.
func (s *Server) CancelOrder(ctx echo.Context) error {
	businessID, err := actor(ctx, roleBusiness)
	if err != nil {
		return errorResponse(ctx, err)
	}

	orderID, err := pathUUID(ctx, "order_id")
	if err != nil {
		return errorResponse(ctx, err)
	}

	var body struct {
		Reason string `json:"reason"`
	}
	if err = ctx.Bind(&body); err != nil {
		return badRequest(ctx, "invalid request body")
	}

	cmd, err := commands.NewCancelOrderCommand(orderID, businessID, body.Reason)
	if err != nil {
		return errorResponse(ctx, err)
	}

	if err = s.cancelOrderHandler.Handle(ctx.Request().Context(), cmd); err != nil {
		return errorResponse(ctx, err)
	}

	return ctx.JSON(http.StatusOK, map[string]string{
		"order_id": orderID.String(),
		"status":   order.Cancelled.String(),
	})
}

// NearbyBusinesses handles GET /courier/tasks/nearby-businesses.
func (s *Server) NearbyBusinesses(ctx echo.Context) error {
	if _, err := actor(ctx, roleCourier); err != nil {
		return errorResponse(ctx, err)
	}

	lat, err := queryFloat(ctx, "lat")
	if err != nil {
		return errorResponse(ctx, err)
	}
	lng, err := queryFloat(ctx, "lng")
	if err != nil {
		return errorResponse(ctx, err)
	}
	radiusM, err := queryFloat(ctx, "radius_m")
	if err != nil {
		return errorResponse(ctx, err)
	}

	query, err := queries.NewNearbyBusinessesQuery(lat, lng, radiusM)
	if err != nil {
		return errorResponse(ctx, err)
	}

	businesses, err := s.nearbyBusinessesHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return errorResponse(ctx, err)
	}

	response := make([]nearbyBusinessJSON, len(businesses))
	for i, b := range businesses {
		response[i] = nearbyBusinessJSON{
			ID:           b.ID.String(),
			Name:         b.Name,
			Lat:          b.Location.Lat(),
			Lng:          b.Location.Lng(),
			PendingCount: b.PendingCount,
			DistanceM:    b.DistanceM,
		}
	}

	return ctx.JSON(http.StatusOK, response)
}

// AvailableTasks handles GET /courier/tasks/businesses/:business_id/available-orders.
func (s *Server) AvailableTasks(ctx echo.Context) error {
	if _, err := actor(ctx, roleCourier); err != nil {
		return errorResponse(ctx, err)
	}

	businessID, err := pathUUID(ctx, "business_id")
	if err != nil {
		return errorResponse(ctx, err)
	}

	limit := 0
	if raw := ctx.QueryParam("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil {
			return badRequest(ctx, "limit must be an integer")
		}
	}

	query, err := queries.NewAvailableTasksQuery(businessID, limit)
	if err != nil {
		return errorResponse(ctx, err)
	}

	tasks, err := s.availableTasksHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return errorResponse(ctx, err)
	}

	return ctx.JSON(http.StatusOK, tasksFromResponses(tasks))
}

// ListWaitingTasks handles GET /courier/tasks?status=waiting, the global
// unclaimed feed.
func (s *Server) ListWaitingTasks(ctx echo.Context) error {
	if _, err := actor(ctx, roleCourier); err != nil {
		return errorResponse(ctx, err)
	}

	if status := ctx.QueryParam("status"); status != "" && status != task.Waiting.String() {
		return badRequest(ctx, "only status=waiting is supported")
	}

	tasks, err := s.listWaitingTasksHandler.Handle(
		ctx.Request().Context(), queries.NewListWaitingTasksQuery())
	if err != nil {
		return errorResponse(ctx, err)
	}

	return ctx.JSON(http.StatusOK, tasksFromResponses(tasks))
}

// MyTasks handles GET /courier/tasks/my-orders, the courier's active
// workload.
func (s *Server) MyTasks(ctx echo.Context) error {
	courierID, err := actor(ctx, roleCourier)
	if err != nil {
		return errorResponse(ctx, err)
	}

	query, err := queries.NewMyTasksQuery(courierID)
	if err != nil {
		return errorResponse(ctx, err)
	}

	tasks, err := s.myTasksHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return errorResponse(ctx, err)
	}

	return ctx.JSON(http.StatusOK, tasksFromResponses(tasks))
}

// ClaimTask handles PUT /courier/tasks/:task_id/accept. The first courier
// wins; a retry by the winner succeeds again, everyone else gets 409.
func (s *Server) ClaimTask(ctx echo.Context) error {
	courierID, err := actor(ctx, roleCourier)
	if err != nil {
		return errorResponse(ctx, err)
	}

	taskID, err := pathUUID(ctx, "task_id")
	if err != nil {
		return errorResponse(ctx, err)
	}

	courier, err := s.couriers.Get(ctx.Request().Context(), courierID)
	if err != nil {
		return errorResponse(ctx, err)
	}
	if !courier.Approved {
		return errorResponse(ctx, errs.NewForbiddenError(courierID.String(), "task claims"))
	}

	cmd, err := commands.NewClaimTaskCommand(taskID, courierID, courier.Name)
	if err != nil {
		return errorResponse(ctx, err)
	}

	result, err := s.claimTaskHandler.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return errorResponse(ctx, err)
	}

	return ctx.JSON(http.StatusOK, map[string]any{
		"task":          taskFromDomain(result.Task),
		"already_yours": result.AlreadyYours,
	})
}

// AdvanceTask handles PUT /courier/tasks/:task_id/status with body
// {"status": "picked_up"|"delivering"|"delivered"}.
func (s *Server) AdvanceTask(ctx echo.Context) error {
	courierID, err := actor(ctx, roleCourier)
	if err != nil {
		return errorResponse(ctx, err)
	}

	taskID, err := pathUUID(ctx, "task_id")
	if err != nil {
		return errorResponse(ctx, err)
	}

	var body struct {
		Status string `json:"status"`
	}
	if err = ctx.Bind(&body); err != nil {
		return badRequest(ctx, "invalid request body")
	}

	target, err := task.StatusFromString(body.Status)
	if err != nil {
		return errorResponse(ctx, err)
	}

	cmd, err := commands.NewAdvanceTaskCommand(taskID, courierID, target)
	if err != nil {
		return errorResponse(ctx, err)
	}

	advanced, err := s.advanceTaskHandler.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return errorResponse(ctx, err)
	}

	return ctx.JSON(http.StatusOK, taskFromDomain(advanced))
}

// actor extracts and validates the acting identity from the trusted
// headers.
func actor(ctx echo.Context, role string) (kernel.UUID, error) {
	actorID := ctx.Request().Header.Get(headerActorID)

	if got := ctx.Request().Header.Get(headerActorRole); got != role {
		return kernel.UUID{}, errs.NewForbiddenError(actorID, role+" endpoints")
	}

	id, err := kernel.UUIDFromString(actorID)
	if err != nil {
		return kernel.UUID{}, errs.NewValueIsRequiredError(headerActorID)
	}

	return id, nil
}

func pathUUID(ctx echo.Context, name string) (kernel.UUID, error) {
	id, err := kernel.UUIDFromString(ctx.Param(name))
	if err != nil {
		return kernel.UUID{}, errs.NewValueIsInvalidError(name)
	}
	return id, nil
}

func queryFloat(ctx echo.Context, name string) (float64, error) {
	raw := ctx.QueryParam(name)
	if raw == "" {
		return 0, errs.NewValueIsRequiredError(name)
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errs.NewValueIsInvalidError(name)
	}
	return value, nil
}

func badRequest(ctx echo.Context, message string) error {
	return ctx.JSON(http.StatusBadRequest, Error{
		Code:    http.StatusBadRequest,
		Message: message,
	})
}

// errorResponse maps application errors onto the REST status codes.
// Conflict is an expected outcome of racing couriers, not a server fault.
func errorResponse(ctx echo.Context, err error) error {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, errs.ErrObjectNotFound):
		status = http.StatusNotFound
	case errors.Is(err, errs.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, errs.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, errs.ErrInvalidState),
		errors.Is(err, errs.ErrValueIsInvalid),
		errors.Is(err, errs.ErrValueIsOutOfRange),
		errors.Is(err, errs.ErrValueIsRequired):
		status = http.StatusBadRequest
	}

	return ctx.JSON(status, Error{
		Code:    status,
		Message: err.Error(),
	})
}

// nearbyBusinessJSON is the wire shape of one nearby business.
type nearbyBusinessJSON struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Lat          float64 `json:"lat"`
	Lng          float64 `json:"lng"`
	PendingCount int     `json:"pending_count"`
	DistanceM    float64 `json:"distance_m"`
}

// taskJSON is the wire shape of a courier task.
type taskJSON struct {
	ID              string       `json:"id"`
	OrderID         string       `json:"order_id"`
	BusinessID      string       `json:"business_id"`
	CourierID       *string      `json:"courier_id,omitempty"`
	CourierName     string       `json:"courier_name,omitempty"`
	Status          string       `json:"status"`
	PickupAddress   string       `json:"pickup_address"`
	DropoffAddress  string       `json:"dropoff_address"`
	PickupLat       float64      `json:"pickup_lat"`
	PickupLng       float64      `json:"pickup_lng"`
	DropoffLat      float64      `json:"dropoff_lat"`
	DropoffLng      float64      `json:"dropoff_lng"`
	UnitDeliveryFee float64      `json:"unit_delivery_fee"`
	CustomerName    string       `json:"customer_name,omitempty"`
	PaymentMethod   string       `json:"payment_method,omitempty"`
	Items           []order.Item `json:"items,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	AssignedAt      *time.Time   `json:"assigned_at,omitempty"`
}

func taskFromDomain(t *task.Task) taskJSON {
	response := taskJSON{
		ID:              t.ID().String(),
		OrderID:         t.OrderID().String(),
		BusinessID:      t.BusinessID().String(),
		CourierName:     t.CourierName(),
		Status:          t.Status().String(),
		PickupAddress:   t.PickupAddress(),
		DropoffAddress:  t.DropoffAddress(),
		PickupLat:       t.PickupCoords().Lat(),
		PickupLng:       t.PickupCoords().Lng(),
		DropoffLat:      t.DropoffCoords().Lat(),
		DropoffLng:      t.DropoffCoords().Lng(),
		UnitDeliveryFee: t.UnitDeliveryFee(),
		CreatedAt:       t.CreatedAt(),
		AssignedAt:      t.AssignedAt(),
	}

	if courier := t.Courier(); courier != nil {
		id := courier.String()
		response.CourierID = &id
	}

	return response
}

func taskFromResponse(t queries.TaskResponse) taskJSON {
	response := taskJSON{
		ID:              t.ID.String(),
		OrderID:         t.OrderID.String(),
		BusinessID:      t.BusinessID.String(),
		CourierName:     t.CourierName,
		Status:          t.Status,
		PickupAddress:   t.PickupAddress,
		DropoffAddress:  t.DropoffAddress,
		PickupLat:       t.PickupPoint.Lat(),
		PickupLng:       t.PickupPoint.Lng(),
		DropoffLat:      t.DropoffPoint.Lat(),
		DropoffLng:      t.DropoffPoint.Lng(),
		UnitDeliveryFee: t.UnitDeliveryFee,
		CustomerName:    t.CustomerName,
		PaymentMethod:   t.PaymentMethod,
		Items:           t.Items,
		CreatedAt:       t.CreatedAt,
		AssignedAt:      t.AssignedAt,
	}

	if t.CourierID != nil {
		id := t.CourierID.String()
		response.CourierID = &id
	}

	return response
}

func tasksFromResponses(tasks []queries.TaskResponse) []taskJSON {
	response := make([]taskJSON, len(tasks))
	for i, t := range tasks {
		response[i] = taskFromResponse(t)
	}
	return response
}
