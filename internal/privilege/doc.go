// Package privilege manages the process's root escalation and its temporary
// switches to an unprivileged owner.
//
// A typical program calls EnsureRoot first thing in main, which re-executes
// the process through an escalation helper such as sudo when it is not
// already root. The re-executed process receives an --owner=<uid>:<gid>
// flag naming the user who started it; passing that to SetOwningUser lets
// later code wrap file operations in WithUnprivileged so they run with the
// owner's effective credentials:
//
//	ctrl := privilege.New(privilege.Options{})
//	if err := ctrl.EnsureRoot(); err != nil {
//		return err
//	}
//	if err := ctrl.SetOwningUser(ctx, user, group); err != nil {
//		return err
//	}
//	err := ctrl.WithUnprivileged(func() error {
//		return os.WriteFile(path, data, 0o644)
//	})
//
// Effective uid and gid are process-wide. The Controller serializes
// unprivileged scopes, so at most one is active at any time.
package privilege
