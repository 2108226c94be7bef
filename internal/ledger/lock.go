package ledger

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sys/unix"

	"github.com/ndnm/ndnm/internal/messages"
)

// ErrLockTimeout is returned when another process holds the ledger lock for longer than lockWait.
var ErrLockTimeout = errors.New(messages.LedgerLockBusy)

// lockSuffix names the sidecar file that carries the ledger lock. The ledger itself is
// replaced by rename on every write, so it cannot hold a stable lock.
const lockSuffix = ".lock"

var (
	flock     = unix.Flock
	lockNow   = time.Now
	lockSleep = time.Sleep
	lockWait  = 30 * time.Second
	lockPoll  = 100 * time.Millisecond
)

// held is an acquired ledger lock.
type held struct {
	ledger string
	file   *os.File
}

// locked runs fn while holding the exclusive lock for this ledger. op describes the
// ledger operation and appears in lock errors.
func (l *Ledger) locked(op string, fn func() error) (err error) {
	h, err := acquire(l.path, op)
	if err != nil {
		return err
	}
	defer func() {
		if relErr := h.release(); relErr != nil {
			err = multierror.Append(err, relErr).ErrorOrNil()
		}
	}()
	return fn()
}

// acquire opens the sidecar lock of ledgerPath and polls flock until it is granted or
// lockWait elapses.
func acquire(ledgerPath, op string) (*held, error) {
	file, err := os.OpenFile(ledgerPath+lockSuffix, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf(messages.LedgerOpenLockFmt, ledgerPath, err)
	}
	deadline := lockNow().Add(lockWait)
	for {
		err := flock(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB)
		if err == nil {
			return &held{ledger: ledgerPath, file: file}, nil
		}
		if !errors.Is(err, unix.EWOULDBLOCK) && !errors.Is(err, unix.EAGAIN) {
			_ = file.Close()
			return nil, fmt.Errorf(messages.LedgerLockFmt, ledgerPath, op, err)
		}
		if lockNow().After(deadline) {
			_ = file.Close()
			return nil, fmt.Errorf("%w: "+messages.LedgerLockTimeoutFmt, ErrLockTimeout, lockWait, op, ledgerPath)
		}
		lockSleep(lockPoll)
	}
}

// release unlocks and closes the sidecar. Both failures are reported.
func (h *held) release() error {
	if h == nil || h.file == nil {
		return nil
	}
	var result *multierror.Error
	if err := flock(int(h.file.Fd()), unix.LOCK_UN); err != nil {
		result = multierror.Append(result, err)
	}
	if err := h.file.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := result.ErrorOrNil(); err != nil {
		return fmt.Errorf(messages.LedgerReleaseLockFmt, h.ledger, err)
	}
	return nil
}
