package privilege

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/hnrobert/debspawn/internal/identity"
	"github.com/hnrobert/debspawn/internal/logger"
	"github.com/hnrobert/debspawn/internal/usercmd"
)

// OwnerFlag is the command-line flag carrying the owner into an escalated process.
const OwnerFlag = "--owner"

const needRootMessage = "This command needs to be run as root."

// credentialOps is the slice of the OS credential API the controller needs.
type credentialOps interface {
	Getuid() int
	Getgid() int
	Geteuid() int
	Getegid() int
	Seteuid(uid int) error
	Setegid(gid int) error
}

type Options struct {
	// Identities resolves owner names. Defaults to identity.Default("").
	Identities identity.Database
	// Helpers are the escalation programs tried on $PATH, in order.
	// Defaults to sudo.
	Helpers []string
	// Args is the original invocation. Defaults to os.Args.
	Args []string
	// Stderr receives the message printed when escalation is impossible.
	Stderr io.Writer
}

// Controller owns the process identity state. Create one per process.
type Controller struct {
	ids     identity.Database
	helpers []string
	args    []string
	stderr  io.Writer

	creds    credentialOps
	lookPath func(file string) (string, error)
	exec     func(path string, argv []string) error
	spawn    func(path string, args []string) (int, error)
	exit     func(code int)

	ownerMu  sync.RWMutex
	ownerUID uint32
	ownerGID uint32

	// scopeMu serializes WithUnprivileged; effective ids are process-wide.
	scopeMu sync.Mutex
}

func New(opts Options) *Controller {
	c := &Controller{
		ids:      opts.Identities,
		helpers:  opts.Helpers,
		args:     opts.Args,
		stderr:   opts.Stderr,
		creds:    systemCredentials{},
		lookPath: exec.LookPath,
		exec:     execImage,
		spawn:    spawnAttached,
		exit:     os.Exit,
	}
	if c.ids == nil {
		c.ids = identity.Default("")
	}
	if len(c.helpers) == 0 {
		c.helpers = []string{"sudo"}
	}
	if c.args == nil {
		c.args = os.Args
	}
	if c.stderr == nil {
		c.stderr = os.Stderr
	}
	return c
}

func spawnAttached(path string, args []string) (int, error) {
	return usercmd.New().RunAttached(context.Background(), path, args...)
}

// OwnerUIDGID returns the recorded owner. 0/0 means no owner is known.
func (c *Controller) OwnerUIDGID() (uid, gid uint32) {
	c.ownerMu.RLock()
	defer c.ownerMu.RUnlock()
	return c.ownerUID, c.ownerGID
}

// IsRoot reports whether the effective uid is 0.
func (c *Controller) IsRoot() bool {
	return c.creds.Geteuid() == 0
}

// SetOwningUser records the user on whose behalf the process runs.
//
// user and group are either decimal ids, used as-is without a database
// lookup, or names resolved through the identity database. An empty group
// selects the primary group of the resolved uid. The recorded owner is left
// unchanged on error.
func (c *Controller) SetOwningUser(ctx context.Context, user, group string) error {
	uid, err := c.resolveUser(ctx, user)
	if err != nil {
		return err
	}
	gid, err := c.resolveGroup(ctx, uid, group)
	if err != nil {
		return err
	}

	c.ownerMu.Lock()
	c.ownerUID, c.ownerGID = uid, gid
	c.ownerMu.Unlock()
	logger.Debug("owner set to %d:%d (user %q, group %q)", uid, gid, user, group)
	return nil
}

func (c *Controller) resolveUser(ctx context.Context, user string) (uint32, error) {
	if isDecimal(user) {
		return parseNumericID(user, "uid")
	}
	u, err := c.ids.UserByName(ctx, user)
	if err != nil {
		return 0, fmt.Errorf("%w: user %q: %w", ErrUnknownIdentity, user, err)
	}
	return u.UID, nil
}

func (c *Controller) resolveGroup(ctx context.Context, uid uint32, group string) (uint32, error) {
	switch {
	case group == "":
		u, err := c.ids.UserByID(ctx, uid)
		if err != nil {
			return 0, fmt.Errorf("%w: primary group of uid %d: %w", ErrUnknownIdentity, uid, err)
		}
		return u.GID, nil
	case isDecimal(group):
		return parseNumericID(group, "gid")
	}
	g, err := c.ids.GroupByName(ctx, group)
	if err != nil {
		return 0, fmt.Errorf("%w: group %q: %w", ErrUnknownIdentity, group, err)
	}
	return g.GID, nil
}

func isDecimal(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func parseNumericID(s, kind string) (uint32, error) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q out of range", ErrUnknownIdentity, kind, s)
	}
	return uint32(n), nil
}

// SplitOwner splits an --owner value of the form user[:group].
func SplitOwner(value string) (user, group string) {
	user, group, _ = strings.Cut(value, ":")
	return user, group
}
