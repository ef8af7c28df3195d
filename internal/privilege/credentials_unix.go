//go:build unix && !linux

package privilege

import (
	"os"

	"golang.org/x/sys/unix"
)

// systemCredentials uses the BSD-style seteuid/setegid calls.
type systemCredentials struct{}

func (systemCredentials) Getuid() int  { return unix.Getuid() }
func (systemCredentials) Getgid() int  { return unix.Getgid() }
func (systemCredentials) Geteuid() int { return unix.Geteuid() }
func (systemCredentials) Getegid() int { return unix.Getegid() }

func (systemCredentials) Seteuid(uid int) error { return unix.Seteuid(uid) }
func (systemCredentials) Setegid(gid int) error { return unix.Setegid(gid) }

// execImage replaces the running program. It only returns on failure.
func execImage(path string, argv []string) error {
	return unix.Exec(path, argv, os.Environ())
}
