package hostfs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/hnrobert/debspawn/internal/logger"
)

// ErrForeignOwner is returned when an in-place rewrite would modify a file
// that belongs to someone other than the effective uid.
var ErrForeignOwner = errors.New("file owned by another user")

var (
	locksMu sync.Mutex
	locks   = map[string]*sync.Mutex{}
)

// Test hooks.
var (
	rename       = os.Rename
	effectiveIDs = func() (uid, gid int) { return os.Geteuid(), os.Getegid() }
)

// lockFor returns the mutex guarding path. Spellings of the same file share
// one lock.
func lockFor(path string) *sync.Mutex {
	key := filepath.Clean(path)
	if abs, err := filepath.Abs(key); err == nil {
		key = abs
	}
	locksMu.Lock()
	defer locksMu.Unlock()
	m := locks[key]
	if m == nil {
		m = &sync.Mutex{}
		locks[key] = m
	}
	return m
}

func ReadFile(path string) ([]byte, error) {
	m := lockFor(path)
	m.Lock()
	defer m.Unlock()
	return os.ReadFile(path)
}

// WriteFileAtomic replaces path with data through a temp file in the same
// directory.
//
// The result belongs to the caller's effective uid and gid, which inside an
// unprivileged scope is the owner. A gid inherited from a set-group-ID
// directory is reset to the effective gid. When the target cannot be renamed
// over (bind mounts), the file is rewritten in place, which keeps its current
// owner; that is refused with ErrForeignOwner unless the caller is root or
// already owns it.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	m := lockFor(path)
	m.Lock()
	defer m.Unlock()

	euid, egid := effectiveIDs()
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".debspawn-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if err := fillTemp(tmp, data, perm, egid); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	err = rename(tmpName, path)
	switch {
	case err == nil:
		syncDir(dir)
		return nil
	case errors.Is(err, syscall.EBUSY) || errors.Is(err, syscall.EXDEV) || errors.Is(err, syscall.EPERM):
		logger.Warn("rename onto %s failed (%v); rewriting in place", path, err)
		return rewriteInPlace(path, data, perm, euid)
	default:
		return err
	}
}

func fillTemp(f *os.File, data []byte, perm os.FileMode, egid int) error {
	if _, err := f.Write(data); err != nil {
		return err
	}
	if err := f.Chmod(perm); err != nil {
		return err
	}
	st, err := f.Stat()
	if err != nil {
		return err
	}
	if _, gid, ok := fileOwner(st); ok && gid != egid {
		if err := f.Chown(-1, egid); err != nil {
			return fmt.Errorf("set group of %s to %d: %w", f.Name(), egid, err)
		}
	}
	return f.Sync()
}

func rewriteInPlace(path string, data []byte, perm os.FileMode, euid int) error {
	if st, err := os.Stat(path); err == nil && euid != 0 {
		if uid, _, ok := fileOwner(st); ok && uid != euid {
			return fmt.Errorf("%w: %s belongs to uid %d, writing as %d", ErrForeignOwner, path, uid, euid)
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, perm)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	_ = f.Sync()
	return f.Close()
}

func syncDir(dir string) {
	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}
}

// EnsureDir creates path and any missing parents.
func EnsureDir(path string, perm os.FileMode) error {
	m := lockFor(path)
	m.Lock()
	defer m.Unlock()
	return os.MkdirAll(path, perm)
}
