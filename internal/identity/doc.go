// Package identity resolves user and group names to numeric ids.
//
// Lookups go either through the system user database (os/user, NSS when
// built with cgo) or through passwd/group files below a filesystem root:
//
//	<root>/etc/passwd
//	<root>/etc/group
//
// Files are parsed read-only; unknown and comment lines are skipped.
package identity
