package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	t.Run("creates logger with defaults", func(t *testing.T) {
		logger, err := NewLogger(nil)
		require.NoError(t, err)
		assert.NotNil(t, logger)
	})

	t.Run("creates console logger", func(t *testing.T) {
		cfg := &Config{Level: "debug", Format: "console"}
		logger, err := NewLogger(cfg)
		require.NoError(t, err)
		assert.NotNil(t, logger)
	})

	t.Run("rejects unknown format", func(t *testing.T) {
		cfg := &Config{Level: "info", Format: "xml"}
		_, err := NewLogger(cfg)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported log format")
	})

	t.Run("rejects unknown level", func(t *testing.T) {
		cfg := &Config{Level: "loud", Format: "json"}
		_, err := NewLogger(cfg)
		assert.Error(t, err)
	})
}

func TestContextFields(t *testing.T) {
	t.Run("empty context yields no fields", func(t *testing.T) {
		assert.Empty(t, ContextFields(context.Background()))
	})

	t.Run("request and session ids are extracted", func(t *testing.T) {
		ctx := WithRequestID(context.Background(), "req-1")
		ctx = WithSessionID(ctx, "sess-1")

		fields := ContextFields(ctx)
		require.Len(t, fields, 2)
		assert.Equal(t, "request.id", fields[0].Key)
		assert.Equal(t, "session.id", fields[1].Key)
	})

	t.Run("empty ids are not attached", func(t *testing.T) {
		ctx := WithRequestID(context.Background(), "")
		assert.Empty(t, ContextFields(ctx))
	})
}
