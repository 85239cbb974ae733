package mailbox

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/fall-guard/internal/domain/alert"
)

// TestFileRepository_Empty verifies Take returns ErrEmpty for a missing file.
func TestFileRepository_Empty(t *testing.T) {
	t.Parallel()

	repo := NewFileRepository(filepath.Join(t.TempDir(), "mailbox.json"))

	_, err := repo.Take(context.Background())
	require.ErrorIs(t, err, ErrEmpty)
}

// TestFileRepository_LastWriteWins ensures a second Put overwrites the first
// and Take consumes the slot once.
func TestFileRepository_LastWriteWins(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "mailbox.json")
	repo := NewFileRepository(path)

	replaced, err := repo.Put(ctx, alert.NewFallDetected(time.Unix(100, 0), nil))
	require.NoError(t, err)
	require.False(t, replaced)

	source := &alert.Actor{Hostname: "phone", Username: "ann"}

	replaced, err = repo.Put(ctx, alert.NewFallDetected(time.Unix(200, 0), source))
	require.NoError(t, err)
	require.True(t, replaced)

	got, err := repo.Take(ctx)
	require.NoError(t, err)
	require.Equal(t, alert.KindFallDetected, got.Kind)
	require.Equal(t, int64(200), got.RaisedAt.Unix())
	require.Equal(t, source, got.Source)

	_, err = repo.Take(ctx)
	require.ErrorIs(t, err, ErrEmpty)

	// Nothing but the directory is left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Empty(t, entries)
}

// TestFileRepository_SharedBetweenInstances models two processes using the same file.
func TestFileRepository_SharedBetweenInstances(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "mailbox.json")

	producer := NewFileRepository(path)
	consumer := NewFileRepository(path)

	_, err := producer.Put(ctx, alert.NewFallDetected(time.Unix(100, 0), nil))
	require.NoError(t, err)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		delivered int
	)

	for range 8 {
		wg.Go(func() {
			if _, err := consumer.Take(ctx); err == nil {
				mu.Lock()
				delivered++
				mu.Unlock()
			}
		})
	}

	wg.Wait()
	require.Equal(t, 1, delivered)
}

// TestFileRepository_ReplacedMatchesTakes checks that a Put reports a replacement
// only when it actually removed an unclaimed alert.
func TestFileRepository_ReplacedMatchesTakes(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "mailbox.json")

	producer := NewFileRepository(path)
	consumer := NewFileRepository(path)

	const puts = 200

	var (
		wg    sync.WaitGroup
		fresh int
		taken int
		stop  = make(chan struct{})
	)

	wg.Go(func() {
		for {
			select {
			case <-stop:
				return
			default:
			}

			if _, err := consumer.Take(ctx); err == nil {
				taken++
			}
		}
	})

	for i := range puts {
		replaced, err := producer.Put(ctx, alert.NewFallDetected(time.Unix(int64(i), 0), nil))
		require.NoError(t, err)

		if !replaced {
			fresh++
		}
	}

	close(stop)
	wg.Wait()

	if _, err := consumer.Take(ctx); err == nil {
		taken++
	}

	require.Equal(t, fresh, taken)
}

// TestFileRepository_CorruptFileIsConsumed makes sure a bad payload does not block the slot.
func TestFileRepository_CorruptFileIsConsumed(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "mailbox.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	repo := NewFileRepository(path)

	_, err := repo.Take(ctx)
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrEmpty)

	_, err = repo.Take(ctx)
	require.ErrorIs(t, err, ErrEmpty)
}
