// Package errs provides standardized error types for the dispatch application.
// It implements a consistent pattern for error creation, formatting, and unwrapping
// that is used throughout the application.
//
// The package includes error types for common scenarios:
//   - ObjectNotFoundError: an object with the given identifier does not exist
//   - InvalidStateError: the operation is not valid for the current status
//   - ForbiddenError: the actor does not own the resource
//   - ConflictError: the caller lost a race for a contested resource
//   - ValueIsRequiredError / ValueIsInvalidError / ValueIsOutOfRangeError:
//     input validation failures
//
// Each error type follows a consistent pattern:
//   - A sentinel error variable (e.g. ErrConflict) for errors.Is classification
//   - A struct type with fields for error details
//   - Constructor functions, with and without a cause where it makes sense
//   - Error() method for formatting the error message
//   - Unwrap() method returning the sentinel
//
// The HTTP adapter maps the sentinels onto response codes (404, 400, 403, 409),
// so business code never deals in status codes directly.
package errs
