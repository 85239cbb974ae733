package mailbox

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/google/uuid"

	"github.com/oshokin/fall-guard/internal/config"
	"github.com/oshokin/fall-guard/internal/domain/alert"
	"github.com/oshokin/fall-guard/internal/wire"
)

// FileRepository keeps the slot in a JSON file on disk.
type FileRepository struct {
	// path is the filesystem location of the slot.
	path string
	// mu serializes access from goroutines of this process;
	// renames serialize access between processes.
	mu sync.Mutex
}

// NewFileRepository creates a mailbox stored at the provided path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Path returns the location of the slot file.
func (r *FileRepository) Path() string {
	return r.path
}

// Put writes the event to a temporary file and renames it over the slot.
func (r *FileRepository) Put(_ context.Context, event alert.Event) (bool, error) {
	data, err := wire.MarshalFile(wire.FromEvent(event))
	if err != nil {
		return false, fmt.Errorf("encode alert: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	dir := filepath.Dir(r.path)
	if err = os.MkdirAll(dir, 0o750); err != nil {
		return false, fmt.Errorf("create mailbox directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return false, fmt.Errorf("create mailbox file: %w", err)
	}

	tmpPath := tmp.Name()

	defer func() {
		// Only left behind when the rename below did not happen.
		_ = os.Remove(tmpPath)
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()

		return false, fmt.Errorf("write mailbox file: %w", err)
	}

	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()

		return false, fmt.Errorf("sync mailbox file: %w", err)
	}

	if err = tmp.Close(); err != nil {
		return false, fmt.Errorf("close mailbox file: %w", err)
	}

	if err = os.Chmod(tmpPath, config.DefaultFilePermissions); err != nil {
		return false, fmt.Errorf("chmod mailbox file: %w", err)
	}

	replaced, err := r.supersede()
	if err != nil {
		return false, err
	}

	if err = os.Rename(tmpPath, r.path); err != nil {
		return false, fmt.Errorf("publish mailbox file: %w", err)
	}

	return replaced, nil
}

// supersede claims and removes the current slot. It reports whether there
// was one, so an alert taken by another process never counts as replaced.
func (r *FileRepository) supersede() (bool, error) {
	stale := r.privateName("stale")

	if err := os.Rename(r.path, stale); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}

		return false, fmt.Errorf("supersede mailbox file: %w", err)
	}

	_ = os.Remove(stale)

	return true, nil
}

// privateName returns a sibling path owned by this call only.
func (r *FileRepository) privateName(suffix string) string {
	return r.path + "." + strconv.Itoa(os.Getpid()) + "." + uuid.NewString() + "." + suffix
}

// Take claims the slot by renaming it to a private name, then reads it.
// When two processes race, only one rename succeeds.
func (r *FileRepository) Take(_ context.Context) (alert.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	claimed := r.privateName("claimed")

	if err := os.Rename(r.path, claimed); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return alert.Event{}, ErrEmpty
		}

		return alert.Event{}, fmt.Errorf("claim mailbox file: %w", err)
	}

	defer func() {
		_ = os.Remove(claimed)
	}()

	contents, err := os.ReadFile(claimed)
	if err != nil {
		return alert.Event{}, fmt.Errorf("read mailbox file: %w", err)
	}

	var message wire.Event
	if err = wire.UnmarshalFile(contents, &message); err != nil {
		return alert.Event{}, fmt.Errorf("decode mailbox file: %w", err)
	}

	event, err := message.Domain()
	if err != nil {
		return alert.Event{}, fmt.Errorf("invalid alert in mailbox: %w", err)
	}

	return event, nil
}
