package commands

import (
	"errors"

	"dispatch/internal/pkg/guard"
)

var ErrReconcileOrdersCommandIsNotConstructed = errors.New(
	"ReconcileOrdersCommand must be created via NewReconcileOrdersCommand constructor",
)

// ReconcileOrdersCommand triggers one sweep over in-flight orders, pulling
// any order whose status lags its task back in line. The sweep repairs the
// drift left behind when a best-effort order sync after a claim or a
// progress report failed.
type ReconcileOrdersCommand struct {
	guard guard.ConstructorGuard
}

// NewReconcileOrdersCommand creates a reconciliation sweep command.
func NewReconcileOrdersCommand() ReconcileOrdersCommand {
	return ReconcileOrdersCommand{guard: guard.NewConstructorGuard()}
}

// Validate ensures the command was created through the constructor.
func (c ReconcileOrdersCommand) Validate() error {
	return c.guard.Validate(ErrReconcileOrdersCommandIsNotConstructed)
}
