package mailbox

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/fall-guard/internal/domain/alert"
)

// TestMemoryRepository_DepthOne checks overwrite and consume-once semantics.
func TestMemoryRepository_DepthOne(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewMemoryRepository()

	for i := range 5 {
		replaced, err := repo.Put(ctx, alert.NewFallDetected(time.Unix(int64(100+i), 0), nil))
		require.NoError(t, err)
		require.Equal(t, i > 0, replaced)
	}

	got, err := repo.Take(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(104), got.RaisedAt.Unix())

	_, err = repo.Take(ctx)
	require.ErrorIs(t, err, ErrEmpty)
}
