package privilege

import (
	"fmt"
	"os"
	"strings"

	"github.com/hnrobert/debspawn/internal/logger"
)

// EscalationArgs returns the argument vector for the escalated process.
//
// If args already carries an --owner= flag it is returned unchanged: the
// caller chose whom to impersonate. Otherwise the result is args[0], then
// --owner=<uid>:<gid> naming the current real identity (omitted when that
// is root), then args[1:].
func EscalationArgs(args []string, uid, gid int) []string {
	for _, a := range args {
		if strings.HasPrefix(a, OwnerFlag+"=") {
			return append([]string(nil), args...)
		}
	}
	if len(args) == 0 {
		return nil
	}
	out := make([]string, 0, len(args)+1)
	out = append(out, args[0])
	if uid != 0 || gid != 0 {
		out = append(out, fmt.Sprintf("%s=%d:%d", OwnerFlag, uid, gid))
	}
	return append(out, args[1:]...)
}

// EnsureRoot returns immediately when the effective uid is 0. Otherwise it
// replaces the process with the first escalation helper found on $PATH,
// running the same program with EscalationArgs. Nothing in this process
// survives a successful escalation.
//
// When no helper exists, a message is printed and the process exits with
// status 1. If the image cannot be replaced, the helper is run as a child
// and the process exits with the child's status.
func (c *Controller) EnsureRoot() error {
	if c.creds.Geteuid() == 0 {
		return nil
	}

	args := c.args
	if len(args) == 0 {
		exe, err := os.Executable()
		if err != nil {
			return fmt.Errorf("%w: cannot determine program path: %w", ErrEscalationUnavailable, err)
		}
		args = []string{exe}
	}
	argv := EscalationArgs(args, c.creds.Getuid(), c.creds.Getgid())

	for _, helper := range c.helpers {
		path, err := c.lookPath(helper)
		if err != nil {
			continue
		}
		logger.Debug("escalating via %s: %v", path, argv)
		err = c.exec(path, append([]string{helper}, argv...))
		// Only reached when the image was not replaced.
		logger.Warn("exec %s failed (%v); running it as a child process", path, err)
		code, err := c.spawn(path, argv)
		if err != nil {
			logger.Error("running %s: %v", path, err)
			code = 1
		}
		c.exit(code)
		return fmt.Errorf("escalation via %s exited with status %d", helper, code)
	}

	fmt.Fprintln(c.stderr, needRootMessage)
	c.exit(1)
	return ErrEscalationUnavailable
}
