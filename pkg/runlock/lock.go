// Package runlock enforces single-run execution against a destination
// root via an advisory file lock, grounded on five82-spindle's
// internal/daemon.Daemon's use of github.com/gofrs/flock to keep two
// instances of a long-running process from colliding over the same state.
// Here the "state" is the destination tree itself: two concurrent runs
// against the same destination root could both rename or prune the same
// orphan and race each other's `.part` commits.
package runlock

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrAlreadyLocked is returned by Acquire when another run already holds
// the lock for this destination root.
var ErrAlreadyLocked = errors.New("runlock: another run already holds the lock for this destination root")

// Lock guards a destination root against concurrent runs. The zero value
// is not usable; construct with Acquire.
type Lock struct {
	path string
	fl   *flock.Flock
}

const lockFileName = ".pac.lock"

// Acquire takes the advisory lock for destRoot, failing immediately
// (non-blocking) if another run already holds it rather than queuing
// behind it — a second run against the same tree should fail fast, not
// silently wait and then operate on a tree the first run has since
// mutated out from under the second run's stale plan.
func Acquire(destRoot string) (*Lock, error) {
	path := filepath.Join(destRoot, lockFileName)
	fl := flock.New(path)

	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("runlock: acquire %s: %w", path, err)
	}
	if !ok {
		return nil, ErrAlreadyLocked
	}
	return &Lock{path: path, fl: fl}, nil
}

// Release drops the lock. Safe to call once; calling it more than once is
// a caller bug but does not panic.
func (l *Lock) Release() error {
	if l == nil || l.fl == nil {
		return nil
	}
	return l.fl.Unlock()
}
