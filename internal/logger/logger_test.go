package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSanitizeRedactsSensitiveKeys(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := &Logger{SugaredLogger: zap.New(core).Sugar()}

	l.Info("connecting", "dsn", "host=db password=x", "db_password", "x", "host", "db")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "[REDACTED]", fields["dsn"])
	assert.Equal(t, "[REDACTED]", fields["db_password"])
	assert.Equal(t, "db", fields["host"])
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New("development", "chatty")
	assert.Error(t, err)

	l, err := New("production", "warn")
	require.NoError(t, err)
	assert.NotNil(t, l.With("service", "test"))
}
