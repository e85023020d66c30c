package mapping

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"

	"github.com/eslsoft/vocdrill/internal/entity"
)

func TestCode(t *testing.T) {
	cases := []struct {
		err  error
		want codes.Code
	}{
		{entity.ErrEmptyAnswer, codes.InvalidArgument},
		{entity.ErrInvalidPeriod, codes.InvalidArgument},
		{entity.ErrInvalidFilter, codes.InvalidArgument},
		{entity.ErrWordNotFound, codes.NotFound},
		{entity.ErrLearnerNotFound, codes.NotFound},
		{entity.ErrForbidden, codes.PermissionDenied},
		{entity.ErrUnauthenticated, codes.Unauthenticated},
		{entity.ErrImportInProgress, codes.Aborted},
		{fmt.Errorf("%w: boom", entity.ErrTransient), codes.Unavailable},
		{fmt.Errorf("wrapped: %w", entity.ErrDuplicateLearner), codes.AlreadyExists},
		{fmt.Errorf("%w: reused", entity.ErrSubmissionConflict), codes.AlreadyExists},
		{errors.New("unexpected"), codes.Internal},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Code(tc.err), tc.err.Error())
	}
	assert.Equal(t, codes.OK, Code(nil))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(entity.ErrInvalidPool))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(entity.ErrWordNotFound))
	assert.Equal(t, http.StatusForbidden, HTTPStatus(entity.ErrForbidden))
	assert.Equal(t, http.StatusUnauthorized, HTTPStatus(entity.ErrUnauthenticated))
	assert.Equal(t, http.StatusConflict, HTTPStatus(entity.ErrImportInProgress))
	assert.Equal(t, http.StatusServiceUnavailable, HTTPStatus(entity.ErrTransient))
	assert.Equal(t, http.StatusConflict, HTTPStatus(entity.ErrSubmissionConflict))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("x")))
}

func TestToConnectError(t *testing.T) {
	err := ToConnectError(entity.ErrEmptyAnswer)
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
	assert.ErrorIs(t, err, entity.ErrEmptyAnswer)

	assert.Equal(t, connect.CodeAlreadyExists, connect.CodeOf(ToConnectError(entity.ErrSubmissionConflict)))
	assert.NoError(t, ToConnectError(nil))
}
