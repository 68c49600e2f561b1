package logger

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func devLogger(t *testing.T) *zap.Logger {
	t.Helper()
	logger, err := NewForEnvironment("development")
	require.NoError(t, err)
	return logger
}

// capturedLogger returns a logger writing JSON lines into the buffer.
func capturedLogger() (*zap.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.AddSync(&buf),
		zapcore.DebugLevel,
	)
	return zap.New(core), &buf
}

func TestWithContext_RoundTrip(t *testing.T) {
	logger := devLogger(t)

	ctx := WithContext(context.Background(), logger)

	assert.NotNil(t, FromContext(ctx))
}

func TestFromContext_Fallbacks(t *testing.T) {
	t.Run("empty context yields a working no-op logger", func(t *testing.T) {
		logger := FromContext(context.Background())

		assert.NotNil(t, logger)
		assert.NotPanics(t, func() {
			logger.Info("recorded nowhere")
			logger.With(zap.String("key", "value")).Error("still nowhere")
		})
	})

	t.Run("wrong value type yields a no-op logger", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), LoggerKey, "not a logger")
		logger := FromContext(ctx)

		assert.NotNil(t, logger)
		assert.NotPanics(t, func() { logger.Info("noop") })
	})
}

func TestWithRequestID(t *testing.T) {
	logger := devLogger(t)

	ctx, enriched := WithRequestID(context.Background(), logger, "req-123")

	assert.Equal(t, "req-123", GetRequestID(ctx))
	assert.NotEqual(t, logger, enriched)
	// the enriched logger replaces the one stored in the context
	assert.NotNil(t, FromContext(ctx))
}

func TestWithUserID(t *testing.T) {
	logger := devLogger(t)

	ctx, enriched := WithUserID(context.Background(), logger, "user-789")

	assert.Equal(t, "user-789", GetUserID(ctx))
	assert.NotNil(t, enriched)
}

func TestContextIdentifiers_Absent(t *testing.T) {
	ctx := context.Background()

	assert.Empty(t, GetRequestID(ctx))
	assert.Empty(t, GetUserID(ctx))
}

func TestContextChaining(t *testing.T) {
	logger := devLogger(t)
	ctx := context.Background()

	ctx, logger = WithRequestID(ctx, logger, "req-1")
	ctx, logger = WithUserID(ctx, logger, "user-1")

	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, "user-1", GetUserID(ctx))
	assert.NotNil(t, logger)

	// a later request id replaces the earlier one
	ctx, _ = WithRequestID(ctx, logger, "req-2")
	assert.Equal(t, "req-2", GetRequestID(ctx))
}

func TestContextKeys_Distinct(t *testing.T) {
	assert.NotEqual(t, LoggerKey, RequestIDKey)
	assert.NotEqual(t, RequestIDKey, UserIDKey)
	assert.NotEqual(t, LoggerKey, UserIDKey)
}

func noopSpanContext(t *testing.T) (context.Context, trace.Span) {
	t.Helper()
	tracer := noop.NewTracerProvider().Tracer("test")
	return tracer.Start(context.Background(), "test-span")
}

func TestTraceCorrelation_NoSpan(t *testing.T) {
	ctx := context.Background()

	assert.Empty(t, GetTraceID(ctx))
	assert.Empty(t, GetSpanID(ctx))

	base := zap.NewNop()
	assert.Equal(t, base, WithTraceContext(ctx, base))
}

func TestTraceCorrelation_InvalidSpan(t *testing.T) {
	ctx, span := noopSpanContext(t)
	defer span.End()

	// noop tracer spans carry an invalid span context
	require.False(t, trace.SpanFromContext(ctx).SpanContext().IsValid())

	assert.Empty(t, GetTraceID(ctx))
	assert.Empty(t, GetSpanID(ctx))

	base := zap.NewNop()
	assert.Equal(t, base, WithTraceContext(ctx, base))
}

func TestL(t *testing.T) {
	t.Run("empty context", func(t *testing.T) {
		cl := L(context.Background())

		require.NotNil(t, cl)
		assert.NotNil(t, cl.logger)
	})

	t.Run("picks up the context logger", func(t *testing.T) {
		ctx := WithContext(context.Background(), devLogger(t))
		cl := L(ctx)

		require.NotNil(t, cl)
		assert.NotNil(t, cl.logger)
	})
}

func TestWithLogger_UsesProvidedLogger(t *testing.T) {
	logger := devLogger(t)

	cl := WithLogger(context.Background(), logger)

	require.NotNil(t, cl)
	assert.Equal(t, logger, cl.logger)
}

func TestContextLogger_With(t *testing.T) {
	base, _ := capturedLogger()
	ctx := context.Background()

	child := WithLogger(ctx, base).With(zap.String("move_id", "m-1"))

	require.NotNil(t, child)
	assert.Equal(t, ctx, child.ctx)
	assert.NotEqual(t, base, child.logger)

	// chaining keeps working
	assert.NotPanics(t, func() {
		child.With(zap.String("receipt_id", "r-1")).Info("chained")
	})
}

func TestContextLogger_LevelsDoNotPanic(t *testing.T) {
	cl := WithLogger(context.Background(), zap.NewNop())

	assert.NotPanics(t, func() {
		cl.Debug("debug message")
		cl.Info("info message")
		cl.Warn("warn message")
		cl.Error("error message")
	})
}

func TestContextLogger_NilLogger(t *testing.T) {
	cl := &ContextLogger{ctx: context.Background()}

	assert.NotPanics(t, func() {
		cl.Info("falls back to a no-op logger")
	})
}

func TestContextLogger_ZapAndSugar(t *testing.T) {
	cl := WithLogger(context.Background(), zap.NewNop())

	assert.NotPanics(t, func() {
		cl.Zap().Info("as zap")
		cl.Sugar().Infof("as sugar %s", "message")
	})
}

func TestContextLogger_EnrichesWithContextFields(t *testing.T) {
	base, buf := capturedLogger()

	ctx := context.Background()
	ctx, _ = WithRequestID(ctx, base, "req-123")
	ctx, _ = WithUserID(ctx, base, "user-789")
	ctx = WithContext(ctx, base)

	L(ctx).Info("receipt recorded", zap.String("move_id", "m-42"))

	output := buf.String()
	assert.Contains(t, output, `"request_id":"req-123"`)
	assert.Contains(t, output, `"user_id":"user-789"`)
	assert.Contains(t, output, `"move_id":"m-42"`)
	assert.Contains(t, output, `"msg":"receipt recorded"`)
}

func TestContextLogger_SkipsEmptyContextFields(t *testing.T) {
	base, buf := capturedLogger()

	WithLogger(context.Background(), base).Info("bare entry")

	output := buf.String()
	assert.Contains(t, output, `"msg":"bare entry"`)
	assert.NotContains(t, output, `"request_id"`)
	assert.NotContains(t, output, `"user_id"`)
}
