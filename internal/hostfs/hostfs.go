// Package hostfs provides safe access helpers for files below a filesystem root.
//
// The identity database reads passwd and group files through a Root, so an
// owner can be resolved against the running system ("/") or against another
// tree mounted somewhere else:
//
//	/etc/passwd -> <root>/etc/passwd
//	/etc/group  -> <root>/etc/group
package hostfs

import (
	"errors"
	"path/filepath"
	"strings"
)

// Well-known locations relative to a Root.
const (
	EtcPasswdRel = "etc/passwd"
	EtcGroupRel  = "etc/group"
)

var ErrInvalidPath = errors.New("invalid host path")

// Root is a directory that relative and absolute paths are mapped into.
type Root struct {
	dir string
}

// New returns a Root for dir. An empty dir means "/".
func New(dir string) Root {
	if dir == "" {
		dir = "/"
	}
	return Root{dir: filepath.Clean(dir)}
}

func (r Root) Dir() string {
	if r.dir == "" {
		return "/"
	}
	return r.dir
}

// Path joins the root with a relative path (no leading slash).
// Example: New("/srv/sysroot").Path("etc/passwd") -> /srv/sysroot/etc/passwd
func (r Root) Path(rel string) (string, error) {
	rel = strings.TrimPrefix(rel, "/")
	clean := filepath.Clean(rel)
	if clean == "." || clean == "" {
		return "", ErrInvalidPath
	}
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", ErrInvalidPath
	}
	return filepath.Join(r.Dir(), clean), nil
}
