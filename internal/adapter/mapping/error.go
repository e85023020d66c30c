package mapping

import (
	"errors"

	"connectrpc.com/connect"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"google.golang.org/grpc/codes"

	"github.com/eslsoft/vocdrill/internal/entity"
)

// Code maps a domain error to its gRPC code.
func Code(err error) codes.Code {
	switch {
	case err == nil:
		return codes.OK
	case errors.Is(err, entity.ErrEmptyAnswer),
		errors.Is(err, entity.ErrInvalidPool),
		errors.Is(err, entity.ErrInvalidPeriod),
		errors.Is(err, entity.ErrInvalidMonth),
		errors.Is(err, entity.ErrInvalidSort),
		errors.Is(err, entity.ErrInvalidFilter),
		errors.Is(err, entity.ErrInvalidWord),
		errors.Is(err, entity.ErrInvalidLearner),
		errors.Is(err, entity.ErrInvalidLearnerRef):
		return codes.InvalidArgument
	case errors.Is(err, entity.ErrWordNotFound), errors.Is(err, entity.ErrLearnerNotFound):
		return codes.NotFound
	case errors.Is(err, entity.ErrDuplicateWord),
		errors.Is(err, entity.ErrDuplicateLearner),
		errors.Is(err, entity.ErrSubmissionConflict):
		return codes.AlreadyExists
	case errors.Is(err, entity.ErrForbidden):
		return codes.PermissionDenied
	case errors.Is(err, entity.ErrUnauthenticated):
		return codes.Unauthenticated
	case errors.Is(err, entity.ErrImportInProgress):
		return codes.Aborted
	case errors.Is(err, entity.ErrTransient):
		return codes.Unavailable
	default:
		return codes.Internal
	}
}

// ToConnectError converts a domain error into a Connect error. Connect and gRPC
// share code numbers.
func ToConnectError(err error) error {
	if err == nil {
		return nil
	}
	var cerr *connect.Error
	if errors.As(err, &cerr) {
		return err
	}
	return connect.NewError(connect.Code(Code(err)), err)
}

// HTTPStatus is the REST status for a domain error.
func HTTPStatus(err error) int {
	return runtime.HTTPStatusFromCode(Code(err))
}
