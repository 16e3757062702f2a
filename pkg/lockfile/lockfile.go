// Package lockfile serializes cross-process access to a file through
// an advisory lock on a ".lock" sidecar. The manifest's
// read-migrate-merge-write sequence is the only consumer; everything
// else in ckit shares state within one process only.
package lockfile

import (
	"encoding/json"
	"os"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ckit-sh/ckit/pkg/errors"
	"github.com/ckit-sh/ckit/pkg/logging"
)

// Suffix is appended to the target path to form the sidecar path.
const Suffix = ".lock"

// Default acquisition parameters. A lock older than DefaultStaleAfter
// belongs to a crashed or wedged holder and is reclaimed.
const (
	DefaultRetries    = 10
	DefaultRetryDelay = 250 * time.Millisecond
	DefaultStaleAfter = 60 * time.Second
)

// Options tune lock acquisition. Zero values fall back to the defaults.
type Options struct {
	Retries    int
	RetryDelay time.Duration
	StaleAfter time.Duration
}

func (o Options) withDefaults() Options {
	if o.Retries <= 0 {
		o.Retries = DefaultRetries
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = DefaultRetryDelay
	}
	if o.StaleAfter <= 0 {
		o.StaleAfter = DefaultStaleAfter
	}
	return o
}

// Info identifies a lock holder. It is written into the sidecar so a
// contending process can judge staleness and logs can name the culprit.
type Info struct {
	PID       int       `json:"pid"`
	Holder    string    `json:"holder"`
	CreatedAt time.Time `json:"createdAt"`
}

// Guard is a held lock. Release it on every exit path, normally with
// defer right after acquisition.
type Guard struct {
	fl       *flock.Flock
	lockPath string
	info     Info
	released bool
	logger   zerolog.Logger
}

// Acquire takes an exclusive advisory lock guarding targetPath. The
// target file is created empty if it does not exist yet, since callers
// are about to read-modify-write it. Contention is retried with a
// fixed delay; a sidecar whose holder metadata (or mtime) is older than
// StaleAfter is treated as abandoned, removed, and re-acquired.
func Acquire(targetPath string, opts Options) (*Guard, error) {
	opts = opts.withDefaults()
	logger := logging.GetLogger("lockfile")
	lockPath := targetPath + Suffix

	if err := ensureTarget(targetPath); err != nil {
		return nil, err
	}

	start := time.Now()
	attempts := 0
	for attempt := 0; attempt <= opts.Retries; attempt++ {
		attempts++

		// A fresh flock per attempt: a stale sidecar may have been
		// unlinked and recreated between attempts, and a held file
		// descriptor would silently lock the dead inode.
		fl := flock.New(lockPath)
		locked, err := fl.TryLock()
		if err != nil {
			_ = fl.Close()
			return nil, errors.Wrapf(err, errors.ErrLockAcquisition,
				"cannot lock %s", lockPath)
		}

		if locked {
			info := Info{
				PID:       os.Getpid(),
				Holder:    uuid.NewString(),
				CreatedAt: time.Now().UTC(),
			}
			writeInfo(lockPath, info)

			logger.Debug().
				Str("lock", lockPath).
				Int("attempts", attempts).
				Msg("Lock acquired")

			return &Guard{fl: fl, lockPath: lockPath, info: info, logger: logger}, nil
		}
		_ = fl.Close()

		if holder, stale := staleHolder(lockPath, opts.StaleAfter); stale {
			logger.Warn().
				Str("lock", lockPath).
				Int("holderPid", holder.PID).
				Time("heldSince", holder.CreatedAt).
				Msg("Reclaiming stale lock")
			_ = os.Remove(lockPath)
			continue
		}

		time.Sleep(opts.RetryDelay)
	}

	return nil, errors.Newf(errors.ErrLockAcquisition,
		"could not lock %s after %d attempts over %s", lockPath, attempts, time.Since(start).Round(time.Millisecond)).
		WithDetail("lock", lockPath).
		WithDetail("attempts", attempts)
}

// Path returns the sidecar path the guard holds.
func (g *Guard) Path() string {
	return g.lockPath
}

// Release unlocks and forgets the lock. Safe to call more than once.
// The sidecar file stays behind; the advisory lock, not the file's
// existence, is what serializes access.
func (g *Guard) Release() error {
	if g == nil || g.released {
		return nil
	}
	g.released = true

	if err := g.fl.Close(); err != nil {
		return errors.Wrapf(err, errors.ErrInternal, "cannot release %s", g.lockPath)
	}

	g.logger.Debug().Str("lock", g.lockPath).Msg("Lock released")
	return nil
}

// ensureTarget creates the guarded file if it is missing. Locking
// guards a read-modify-write, so the target must exist before the
// first writer commits.
func ensureTarget(targetPath string) error {
	f, err := os.OpenFile(targetPath, os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileAccess, "cannot create %s", targetPath)
	}
	return f.Close()
}

// writeInfo records holder identity in the sidecar. Best effort: the
// lock itself is already held, metadata only aids staleness checks and
// debugging.
func writeInfo(lockPath string, info Info) {
	data, err := json.Marshal(info)
	if err != nil {
		return
	}
	_ = os.WriteFile(lockPath, append(data, '\n'), 0644)
}

// staleHolder reads holder metadata from a contended sidecar and
// reports whether it is old enough to reclaim. Files without readable
// metadata are judged by mtime.
func staleHolder(lockPath string, staleAfter time.Duration) (Info, bool) {
	var info Info

	data, err := os.ReadFile(lockPath)
	if err == nil {
		if jsonErr := json.Unmarshal(data, &info); jsonErr == nil && !info.CreatedAt.IsZero() {
			return info, time.Since(info.CreatedAt) > staleAfter
		}
	}

	fi, err := os.Stat(lockPath)
	if err != nil {
		// Sidecar vanished between the failed TryLock and now; the next
		// attempt will take it.
		return info, false
	}
	return info, time.Since(fi.ModTime()) > staleAfter
}
