package queries

import (
	"errors"

	"dispatch/internal/pkg/guard"
)

var ErrListWaitingTasksQueryIsNotConstructed = errors.New(
	"ListWaitingTasksQuery must be created via NewListWaitingTasksQuery constructor",
)

// ListWaitingTasksQuery lists every waiting task across all businesses,
// newest first, capped at one page. The courier's global feed.
type ListWaitingTasksQuery struct {
	guard guard.ConstructorGuard
}

// NewListWaitingTasksQuery creates the parameterless waiting-list query.
func NewListWaitingTasksQuery() ListWaitingTasksQuery {
	return ListWaitingTasksQuery{guard: guard.NewConstructorGuard()}
}

// Validate ensures the query was created through the constructor.
func (q ListWaitingTasksQuery) Validate() error {
	return q.guard.Validate(ErrListWaitingTasksQueryIsNotConstructed)
}
