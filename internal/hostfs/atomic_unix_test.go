//go:build unix

package hostfs

import (
	"errors"
	"os"
	"path/filepath"
	"syscall"
	"testing"
)

func stubRename(t *testing.T, err error) {
	t.Helper()
	saved := rename
	rename = func(string, string) error { return err }
	t.Cleanup(func() { rename = saved })
}

func TestWriteFileAtomicOwnedByEffectiveIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "owned.yaml")
	if err := WriteFileAtomic(path, []byte("x\n"), 0o644); err != nil {
		t.Fatalf("WriteFileAtomic failed: %v", err)
	}
	st, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	uid, gid, ok := fileOwner(st)
	if !ok {
		t.Fatal("no ownership information")
	}
	if uid != os.Geteuid() || gid != os.Getegid() {
		t.Errorf("owner = %d:%d, want %d:%d", uid, gid, os.Geteuid(), os.Getegid())
	}
}

func TestWriteFileAtomicInPlaceFallback(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mounted.yaml")
	if err := os.WriteFile(path, []byte("old contents\n"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	stubRename(t, &os.LinkError{Op: "rename", Err: syscall.EXDEV})

	if err := WriteFileAtomic(path, []byte("new\n"), 0o644); err != nil {
		t.Fatalf("WriteFileAtomic failed: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(got) != "new\n" {
		t.Errorf("content = %q, want %q", got, "new\n")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("temp file left behind: %d entries", len(entries))
	}
}

func TestWriteFileAtomicRefusesForeignInPlace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "theirs.yaml")
	if err := os.WriteFile(path, []byte("keep\n"), 0o666); err != nil {
		t.Fatalf("seed: %v", err)
	}
	stubRename(t, &os.LinkError{Op: "rename", Err: syscall.EBUSY})

	savedIDs := effectiveIDs
	effectiveIDs = func() (int, int) { return os.Geteuid() + 1, os.Getegid() }
	t.Cleanup(func() { effectiveIDs = savedIDs })

	err := WriteFileAtomic(path, []byte("overwrite\n"), 0o644)
	if !errors.Is(err, ErrForeignOwner) {
		t.Fatalf("expected ErrForeignOwner, got %v", err)
	}
	got, _ := os.ReadFile(path)
	if string(got) != "keep\n" {
		t.Errorf("file modified despite refusal: %q", got)
	}
}

func TestWriteFileAtomicOtherRenameError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.yaml")
	stubRename(t, &os.LinkError{Op: "rename", Err: syscall.ENOSPC})

	if err := WriteFileAtomic(path, []byte("x"), 0o644); !errors.Is(err, syscall.ENOSPC) {
		t.Fatalf("expected ENOSPC, got %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("target should not exist, stat err = %v", err)
	}
}

func TestLockForSharesSpellings(t *testing.T) {
	dir := t.TempDir()
	a := lockFor(filepath.Join(dir, "sub", "..", "f"))
	b := lockFor(filepath.Join(dir, "f"))
	if a != b {
		t.Error("equivalent paths should share a lock")
	}
	if lockFor(filepath.Join(dir, "g")) == a {
		t.Error("different paths should not share a lock")
	}
}
