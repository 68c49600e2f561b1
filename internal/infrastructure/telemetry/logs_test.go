package telemetry

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func disabledLogsConfig() LogsConfig {
	return LogsConfig{
		Enabled:           false,
		CollectorEndpoint: "localhost:14317",
		ServiceName:       "shopfloor-test",
		Insecure:          true,
	}
}

// bufferedLogsConfig points at a dead endpoint. The OTLP exporter connects
// lazily, so an enabled provider still constructs and buffers.
func bufferedLogsConfig() LogsConfig {
	return LogsConfig{
		Enabled:           true,
		CollectorEndpoint: "localhost:19999",
		ServiceName:       "shopfloor-test",
		Insecure:          true,
	}
}

func TestNewLoggerProvider_Disabled(t *testing.T) {
	ctx := context.Background()

	provider, err := NewLoggerProvider(ctx, disabledLogsConfig(), zap.NewNop())
	require.NoError(t, err)
	assert.NotNil(t, provider)
	assert.False(t, provider.IsEnabled())
	assert.Nil(t, provider.GetLoggerProvider())

	assert.NoError(t, provider.Shutdown(ctx))
}

func TestNewLoggerProvider_EnabledWithoutCollector(t *testing.T) {
	ctx := context.Background()

	provider, err := NewLoggerProvider(ctx, bufferedLogsConfig(), zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, provider)
	assert.True(t, provider.IsEnabled())
	assert.NotNil(t, provider.GetLoggerProvider())

	assert.NoError(t, provider.Shutdown(ctx))
}

func TestLoggerProvider_GetConfig(t *testing.T) {
	ctx := context.Background()
	cfg := disabledLogsConfig()

	provider, err := NewLoggerProvider(ctx, cfg, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, cfg, provider.GetConfig())
}

func TestLoggerProvider_DisabledLifecycle(t *testing.T) {
	ctx := context.Background()

	provider, err := NewLoggerProvider(ctx, LogsConfig{Enabled: false}, zap.NewNop())
	require.NoError(t, err)

	// Flush and repeated shutdowns are no-ops without a provider
	assert.NoError(t, provider.ForceFlush(ctx))
	assert.NoError(t, provider.Shutdown(ctx))
	assert.NoError(t, provider.Shutdown(ctx))
}

func TestNewZapOTELCore(t *testing.T) {
	ctx := context.Background()

	t.Run("nil provider yields a nop core", func(t *testing.T) {
		core := NewZapOTELCore(ZapBridgeConfig{
			ServiceName:    "shopfloor-test",
			LoggerProvider: nil,
			Level:          zapcore.InfoLevel,
		})
		require.NotNil(t, core)
		assert.False(t, core.Enabled(zapcore.InfoLevel))
	})

	t.Run("disabled provider yields a nop core", func(t *testing.T) {
		provider, err := NewLoggerProvider(ctx, LogsConfig{Enabled: false}, zap.NewNop())
		require.NoError(t, err)

		core := NewZapOTELCore(ZapBridgeConfig{
			ServiceName:    "shopfloor-test",
			LoggerProvider: provider,
			Level:          zapcore.InfoLevel,
		})
		require.NotNil(t, core)
		assert.False(t, core.Enabled(zapcore.InfoLevel))
	})

	t.Run("debug level passes everything through", func(t *testing.T) {
		provider, err := NewLoggerProvider(ctx, bufferedLogsConfig(), zap.NewNop())
		require.NoError(t, err)
		defer provider.Shutdown(ctx)

		core := NewZapOTELCore(ZapBridgeConfig{
			ServiceName:    "shopfloor-test",
			LoggerProvider: provider,
			Level:          zapcore.DebugLevel,
		})
		require.NotNil(t, core)

		for _, lvl := range []zapcore.Level{zapcore.DebugLevel, zapcore.InfoLevel, zapcore.WarnLevel, zapcore.ErrorLevel} {
			assert.True(t, core.Enabled(lvl))
		}
	})

	t.Run("higher level wraps the core in a filter", func(t *testing.T) {
		provider, err := NewLoggerProvider(ctx, bufferedLogsConfig(), zap.NewNop())
		require.NoError(t, err)
		defer provider.Shutdown(ctx)

		core := NewZapOTELCore(ZapBridgeConfig{
			ServiceName:    "shopfloor-test",
			LoggerProvider: provider,
			Level:          zapcore.WarnLevel,
		})
		require.NotNil(t, core)

		_, isFiltered := core.(*levelFilterCore)
		assert.True(t, isFiltered)

		assert.False(t, core.Enabled(zapcore.DebugLevel))
		assert.False(t, core.Enabled(zapcore.InfoLevel))
		assert.True(t, core.Enabled(zapcore.WarnLevel))
		assert.True(t, core.Enabled(zapcore.ErrorLevel))
	})
}

func TestNewBridgedLogger(t *testing.T) {
	observedCore, observedLogs := observer.New(zapcore.InfoLevel)

	// The OTEL side is a nop core; only the observed side captures output
	logger := NewBridgedLogger(observedCore, zapcore.NewNopCore(), zap.AddCaller())

	logger.Info("receipt recorded", zap.String("move_id", "m-1"))
	logger.Debug("below threshold")
	logger.Warn("move overdue")

	logs := observedLogs.All()
	require.Len(t, logs, 2)

	assert.Equal(t, "receipt recorded", logs[0].Message)
	assert.Equal(t, zapcore.InfoLevel, logs[0].Level)
	assert.Contains(t, logs[0].Context, zap.String("move_id", "m-1"))

	assert.Equal(t, "move overdue", logs[1].Message)
	assert.Equal(t, zapcore.WarnLevel, logs[1].Level)
}

func TestCreateBridgedLoggerFromConfig(t *testing.T) {
	ctx := context.Background()

	provider, err := NewLoggerProvider(ctx, LogsConfig{Enabled: false}, zap.NewNop())
	require.NoError(t, err)

	baseConfig := &BaseLoggerConfig{
		Level:      "info",
		Format:     "json",
		Output:     "stdout",
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	}

	logger, err := CreateBridgedLoggerFromConfig(baseConfig, provider, "shopfloor-test")
	require.NoError(t, err)
	require.NotNil(t, logger)

	logger.Info("bridged setup works",
		zap.String("request_id", "req-123"),
		zap.String("partner_id", "partner-456"),
	)
	_ = logger.Sync()
}

func TestDefaultBaseLoggerConfig(t *testing.T) {
	cfg := DefaultBaseLoggerConfig()
	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "console", cfg.Format)
	assert.Equal(t, "stdout", cfg.Output)
	assert.NotEmpty(t, cfg.TimeFormat)
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"fatal", zapcore.FatalLevel},
		{"unknown", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, parseLogLevel(tc.input))
		})
	}
}

func TestCreateLogEncoder(t *testing.T) {
	entry := zapcore.Entry{
		Level:   zapcore.InfoLevel,
		Message: "test",
	}

	t.Run("json", func(t *testing.T) {
		encoder := createLogEncoder(&BaseLoggerConfig{
			Format:     "json",
			TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		})
		require.NotNil(t, encoder)

		buf, err := encoder.EncodeEntry(entry, nil)
		require.NoError(t, err)
		assert.Contains(t, buf.String(), `"level":"info"`)
		assert.Contains(t, buf.String(), `"msg":"test"`)
	})

	t.Run("console", func(t *testing.T) {
		encoder := createLogEncoder(&BaseLoggerConfig{
			Format:     "console",
			TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		})
		require.NotNil(t, encoder)

		buf, err := encoder.EncodeEntry(entry, nil)
		require.NoError(t, err)
		assert.NotContains(t, buf.String(), `"level"`)
	})
}

func TestCreateLogWriter(t *testing.T) {
	// File paths are unsupported and fall back to stdout
	for _, output := range []string{"stdout", "stderr", "/tmp/shopfloor.log"} {
		t.Run(output, func(t *testing.T) {
			assert.NotNil(t, createLogWriter(output))
		})
	}
}

func TestCreateBaseCore(t *testing.T) {
	core := createBaseCore(&BaseLoggerConfig{
		Level:      "info",
		Format:     "json",
		Output:     "stdout",
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	require.NotNil(t, core)

	assert.True(t, core.Enabled(zapcore.InfoLevel))
	assert.True(t, core.Enabled(zapcore.WarnLevel))
	assert.False(t, core.Enabled(zapcore.DebugLevel))
}

func TestLevelFilterCore(t *testing.T) {
	observedCore, observedLogs := observer.New(zapcore.DebugLevel)

	filteredCore := &levelFilterCore{
		Core:     observedCore,
		minLevel: zapcore.WarnLevel,
	}

	assert.True(t, filteredCore.Enabled(zapcore.WarnLevel))
	assert.True(t, filteredCore.Enabled(zapcore.ErrorLevel))
	assert.False(t, filteredCore.Enabled(zapcore.InfoLevel))
	assert.False(t, filteredCore.Enabled(zapcore.DebugLevel))

	// Everything below the filter level must be swallowed even though the
	// wrapped core accepts debug
	logger := zap.New(filteredCore)
	logger.Debug("debug")
	logger.Info("info")
	logger.Warn("warn")
	logger.Error("error")

	logs := observedLogs.All()
	require.Len(t, logs, 2)
	assert.Equal(t, "warn", logs[0].Message)
	assert.Equal(t, "error", logs[1].Message)
}

func TestLevelFilterCore_WithKeepsFilter(t *testing.T) {
	observedCore, observedLogs := observer.New(zapcore.DebugLevel)

	filteredCore := &levelFilterCore{
		Core:     observedCore,
		minLevel: zapcore.WarnLevel,
	}

	childCore := filteredCore.With([]zapcore.Field{zap.String("service", "shopfloor")})
	require.NotNil(t, childCore)

	lfCore, ok := childCore.(*levelFilterCore)
	require.True(t, ok, "With must return another levelFilterCore")
	assert.Equal(t, zapcore.WarnLevel, lfCore.minLevel)

	logger := zap.New(childCore)
	logger.Warn("child message")

	logs := observedLogs.All()
	require.Len(t, logs, 1)
	assert.Equal(t, "child message", logs[0].Message)

	hasServiceField := false
	for _, field := range logs[0].Context {
		if field.Key == "service" && field.String == "shopfloor" {
			hasServiceField = true
			break
		}
	}
	assert.True(t, hasServiceField, "inherited field should be present")
}

func TestLogFieldEncoding(t *testing.T) {
	var buf bytes.Buffer
	encoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	core := zapcore.NewCore(encoder, zapcore.AddSync(&buf), zapcore.DebugLevel)
	logger := zap.New(core)

	logger.Info("test",
		zap.String("string_field", "value"),
		zap.Int("int_field", 42),
		zap.Float64("float_field", 3.14),
		zap.Bool("bool_field", true),
		zap.Strings("strings_field", []string{"a", "b"}),
	)

	output := buf.String()
	assert.Contains(t, output, `"string_field":"value"`)
	assert.Contains(t, output, `"int_field":42`)
	assert.True(t, strings.Contains(output, `"float_field":3.14`) || strings.Contains(output, `"float_field":3.1`))
	assert.Contains(t, output, `"bool_field":true`)
	assert.Contains(t, output, `"strings_field":["a","b"]`)
}
