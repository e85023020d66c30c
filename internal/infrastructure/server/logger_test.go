package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"connectrpc.com/connect"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/logging"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eslsoft/vocdrill/internal/infrastructure/config"
)

func TestInterceptorLogger(t *testing.T) {
	l, hook := test.NewNullLogger()
	l.SetLevel(logrus.DebugLevel)

	InterceptorLogger(l).Log(context.Background(), logging.LevelWarn, "finished call", "grpc.code", "NotFound", "grpc.method", "Check")

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "finished call", entry.Message)
	assert.Equal(t, "NotFound", entry.Data["grpc.code"])
	assert.Equal(t, "Check", entry.Data["grpc.method"])
}

func TestDetermineLogLevel(t *testing.T) {
	tests := []struct {
		code connect.Code
		err  error
		want logrus.Level
	}{
		{code: 0, err: nil, want: logrus.InfoLevel},
		{code: connect.CodeInvalidArgument, err: errors.New("bad"), want: logrus.WarnLevel},
		{code: connect.CodeAborted, err: errors.New("busy"), want: logrus.WarnLevel},
		{code: connect.CodeUnauthenticated, err: errors.New("who"), want: logrus.WarnLevel},
		{code: connect.CodeUnavailable, err: errors.New("db"), want: logrus.ErrorLevel},
		{code: connect.CodeInternal, err: errors.New("boom"), want: logrus.ErrorLevel},
	}
	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, determineLogLevel(tt.code, tt.err))
		})
	}
}

func TestConnectLogger(t *testing.T) {
	l, hook := test.NewNullLogger()
	interceptor := Logger(l)

	failing := interceptor(func(context.Context, connect.AnyRequest) (connect.AnyResponse, error) {
		return nil, connect.NewError(connect.CodeNotFound, errors.New("word not found"))
	})
	req := connect.NewRequest(&struct{}{})
	req.Header().Set("X-Forwarded-For", " , 10.0.0.7, 10.0.0.8")
	req.Header().Set("X-Request-Id", "req-1")

	_, err := failing(context.Background(), req)
	require.Error(t, err)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "not_found", entry.Data["status"])
	assert.Equal(t, "10.0.0.7", entry.Data["client_ip"])
	assert.Equal(t, "req-1", entry.Data["request_id"])
	assert.NotNil(t, entry.Data[logrus.ErrorKey])

	ok := interceptor(func(context.Context, connect.AnyRequest) (connect.AnyResponse, error) {
		return connect.NewResponse(&struct{}{}), nil
	})
	_, err = ok(context.Background(), connect.NewRequest(&struct{}{}))
	require.NoError(t, err)
	assert.Equal(t, logrus.InfoLevel, hook.LastEntry().Level)
}

func TestRequestLogger(t *testing.T) {
	tests := []struct {
		status int
		want   logrus.Level
	}{
		{status: http.StatusOK, want: logrus.InfoLevel},
		{status: http.StatusNotFound, want: logrus.WarnLevel},
		{status: http.StatusServiceUnavailable, want: logrus.ErrorLevel},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			l, hook := test.NewNullLogger()
			h := RequestLogger(l, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/learning/today", nil))

			entry := hook.LastEntry()
			require.NotNil(t, entry)
			assert.Equal(t, tt.want, entry.Level)
			assert.Equal(t, tt.status, entry.Data["status"])
			assert.Equal(t, "/api/learning/today", entry.Data["path"])
		})
	}
}

func TestNewLogger(t *testing.T) {
	l, err := NewLogger(&config.Config{Log: config.LogConfig{Level: "debug", Format: "text"}})
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, l.Formatter)

	l, err = NewLogger(&config.Config{Log: config.LogConfig{Level: "info"}})
	require.NoError(t, err)
	assert.IsType(t, &logrus.JSONFormatter{}, l.Formatter)

	_, err = NewLogger(&config.Config{Log: config.LogConfig{Level: "loud"}})
	assert.Error(t, err)
}
