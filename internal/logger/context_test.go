package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// TestFromContext_FallsBackToGlobal verifies the global logger is used for bare contexts.
func TestFromContext_FallsBackToGlobal(t *testing.T) {
	t.Parallel()

	require.Same(t, Logger(), FromContext(context.Background()))
}

// TestWithFields_AttachesKeyValues checks that fields set on the context reach the output.
func TestWithFields_AttachesKeyValues(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.DebugLevel)
	ctx := ToContext(context.Background(), zap.New(core).Sugar())

	ctx = WithName(ctx, "router")
	ctx = WithKV(ctx, "entry", "COLD_START")
	ctx = WithFields(ctx, "alert_id", "a-1")

	InfoKV(ctx, "Routed", "destination", "DASHBOARD")

	entries := logs.All()
	require.Len(t, entries, 1)
	require.Equal(t, "router", entries[0].LoggerName)

	fields := entries[0].ContextMap()
	require.Equal(t, "COLD_START", fields["entry"])
	require.Equal(t, "a-1", fields["alert_id"])
	require.Equal(t, "DASHBOARD", fields["destination"])
}
