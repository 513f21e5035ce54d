package workdir

import (
	"errors"
	"fmt"
	"os"
)

// ErrAlreadyLocked is returned when another process holds the updater lock
var ErrAlreadyLocked = errors.New("cannot acquire lock, already locked")

// Lock is an exclusive advisory lock on the updater directory
type Lock struct {
	file *os.File
}

// TryLock acquires the updater lock without blocking.
// The lock is released by Unlock or when the process exits.
func (d *Dir) TryLock() (*Lock, error) {
	if err := d.Ensure(); err != nil {
		return nil, err
	}

	f, err := os.OpenFile(d.Path(LockFile), os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}
	if err := tryLockFile(f); err != nil {
		_ = f.Close()
		return nil, err
	}
	return &Lock{file: f}, nil
}

// Path returns the path of the lock file
func (l *Lock) Path() string {
	return l.file.Name()
}

// Unlock releases the lock
func (l *Lock) Unlock() error {
	if err := unlockFile(l.file); err != nil {
		_ = l.file.Close()
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return l.file.Close()
}
