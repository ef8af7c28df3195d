package privilege

import (
	"context"
	"errors"
	"fmt"

	"github.com/hnrobert/debspawn/internal/logger"
)

type credentials struct {
	euid int
	egid int
}

// scopeKey marks a context as running inside a controller's scope.
type scopeKey struct{}

// WithUnprivileged runs fn with the owner's effective uid and gid and
// restores the previous effective ids when fn returns or panics.
//
// Without a recorded owner fn runs with the current credentials. If the
// switch itself fails, any partial change is undone, fn is not run, and the
// error wraps ErrPrivilegeTransitionFailed. An error from fn is returned
// as-is once the credentials are back.
//
// Calls are serialized across goroutines. fn must not call WithUnprivileged
// on the same Controller; the nested call would block forever. Use
// WithUnprivilegedContext for scopes that nest.
func (c *Controller) WithUnprivileged(fn func() error) error {
	return c.WithUnprivilegedContext(context.Background(), func(context.Context) error {
		return fn()
	})
}

// WithUnprivilegedContext is WithUnprivileged with a context that marks the
// scope. Called again with a context derived from the one passed to fn, it
// runs the inner fn directly: the credentials are already the owner's and
// the outer scope restores them.
func (c *Controller) WithUnprivilegedContext(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if owner, _ := ctx.Value(scopeKey{}).(*Controller); owner == c {
		return fn(ctx)
	}

	uid, gid := c.OwnerUIDGID()
	if uid == 0 && gid == 0 {
		return fn(ctx)
	}

	c.scopeMu.Lock()
	defer c.scopeMu.Unlock()

	saved := credentials{euid: c.creds.Geteuid(), egid: c.creds.Getegid()}
	if err := c.drop(int(uid), int(gid), saved); err != nil {
		return err
	}
	defer func() {
		if rerr := c.restore(saved); rerr != nil {
			logger.Error("%v", rerr)
			if err == nil {
				err = rerr
			}
		}
	}()

	return fn(context.WithValue(ctx, scopeKey{}, c))
}

// drop sets the effective gid, then the effective uid. Once the uid is gone
// the gid can no longer be changed.
func (c *Controller) drop(uid, gid int, saved credentials) error {
	if err := c.creds.Setegid(gid); err != nil {
		return fmt.Errorf("%w: setegid(%d): %w", ErrPrivilegeTransitionFailed, gid, err)
	}
	if err := c.creds.Seteuid(uid); err != nil {
		dropErr := fmt.Errorf("%w: seteuid(%d): %w", ErrPrivilegeTransitionFailed, uid, err)
		if rerr := c.creds.Setegid(saved.egid); rerr != nil {
			return errors.Join(dropErr, fmt.Errorf("rolling back setegid(%d): %w", saved.egid, rerr))
		}
		return dropErr
	}
	return nil
}

// restore undoes drop in reverse order: uid first, which regains the right
// to change the gid.
func (c *Controller) restore(saved credentials) error {
	var errs []error
	if err := c.creds.Seteuid(saved.euid); err != nil {
		errs = append(errs, fmt.Errorf("seteuid(%d): %w", saved.euid, err))
	}
	if err := c.creds.Setegid(saved.egid); err != nil {
		errs = append(errs, fmt.Errorf("setegid(%d): %w", saved.egid, err))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: restoring credentials: %w", ErrPrivilegeTransitionFailed, errors.Join(errs...))
}
