//go:build linux

package privilege

import (
	"os"

	"golang.org/x/sys/unix"
)

// systemCredentials changes ids for all threads of the process. Linux has
// no seteuid(2) wrapper in x/sys; setres[ug]id with -1 leaves the real and
// saved ids untouched.
type systemCredentials struct{}

func (systemCredentials) Getuid() int  { return unix.Getuid() }
func (systemCredentials) Getgid() int  { return unix.Getgid() }
func (systemCredentials) Geteuid() int { return unix.Geteuid() }
func (systemCredentials) Getegid() int { return unix.Getegid() }

func (systemCredentials) Seteuid(uid int) error { return unix.Setresuid(-1, uid, -1) }
func (systemCredentials) Setegid(gid int) error { return unix.Setresgid(-1, gid, -1) }

// execImage replaces the running program. It only returns on failure.
func execImage(path string, argv []string) error {
	return unix.Exec(path, argv, os.Environ())
}
