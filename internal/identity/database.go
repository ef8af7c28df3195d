package identity

import (
	"context"
	"errors"
	"fmt"
	"os/user"
	"strconv"

	"github.com/hnrobert/debspawn/internal/hostfs"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrGroupNotFound = errors.New("group not found")
)

// Database maps user and group names to numeric ids.
type Database interface {
	UserByName(ctx context.Context, name string) (*User, error)
	UserByID(ctx context.Context, uid uint32) (*User, error)
	GroupByName(ctx context.Context, name string) (*Group, error)

	// Name identifies the backend in log lines.
	Name() string
}

// Default returns the database used when nothing else is configured.
// An empty root consults the system database first and /etc files second;
// any other root reads only the files below it.
func Default(root string) Database {
	if root == "" {
		return Chain(SystemDatabase{}, NewFileDatabase(hostfs.New("/")))
	}
	return NewFileDatabase(hostfs.New(root))
}

// FileDatabase reads passwd and group files below a root on every lookup.
type FileDatabase struct {
	root hostfs.Root
}

func NewFileDatabase(root hostfs.Root) *FileDatabase {
	return &FileDatabase{root: root}
}

func (d *FileDatabase) loadPasswd() (*PasswdFile, error) {
	p, err := d.root.Path(hostfs.EtcPasswdRel)
	if err != nil {
		return nil, err
	}
	return LoadPasswd(p)
}

func (d *FileDatabase) loadGroup() (*GroupFile, error) {
	p, err := d.root.Path(hostfs.EtcGroupRel)
	if err != nil {
		return nil, err
	}
	return LoadGroup(p)
}

func (d *FileDatabase) UserByName(_ context.Context, name string) (*User, error) {
	pw, err := d.loadPasswd()
	if err != nil {
		return nil, err
	}
	if e := pw.Find(name); e != nil {
		u := *e
		return &u, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUserNotFound, name)
}

func (d *FileDatabase) UserByID(_ context.Context, uid uint32) (*User, error) {
	pw, err := d.loadPasswd()
	if err != nil {
		return nil, err
	}
	if e := pw.FindByUID(uid); e != nil {
		u := *e
		return &u, nil
	}
	return nil, fmt.Errorf("%w: uid %d", ErrUserNotFound, uid)
}

func (d *FileDatabase) GroupByName(_ context.Context, name string) (*Group, error) {
	gr, err := d.loadGroup()
	if err != nil {
		return nil, err
	}
	if e := gr.Find(name); e != nil {
		g := *e
		g.Members = append([]string(nil), e.Members...)
		return &g, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrGroupNotFound, name)
}

func (d *FileDatabase) Name() string {
	return "files:" + d.root.Dir()
}

// SystemDatabase uses Go's os/user package. With cgo this goes through
// getpwnam_r and friends, so NSS modules (LDAP, sssd) are honoured.
type SystemDatabase struct{}

func (SystemDatabase) UserByName(_ context.Context, name string) (*User, error) {
	u, err := user.Lookup(name)
	if err != nil {
		var unknown user.UnknownUserError
		if errors.As(err, &unknown) {
			return nil, fmt.Errorf("%w: %s", ErrUserNotFound, name)
		}
		return nil, fmt.Errorf("user lookup failed: %w", err)
	}
	return convertUser(u)
}

func (SystemDatabase) UserByID(_ context.Context, uid uint32) (*User, error) {
	u, err := user.LookupId(strconv.FormatUint(uint64(uid), 10))
	if err != nil {
		var unknown user.UnknownUserIdError
		if errors.As(err, &unknown) {
			return nil, fmt.Errorf("%w: uid %d", ErrUserNotFound, uid)
		}
		return nil, fmt.Errorf("user lookup failed: %w", err)
	}
	return convertUser(u)
}

func (SystemDatabase) GroupByName(_ context.Context, name string) (*Group, error) {
	g, err := user.LookupGroup(name)
	if err != nil {
		var unknown user.UnknownGroupError
		if errors.As(err, &unknown) {
			return nil, fmt.Errorf("%w: %s", ErrGroupNotFound, name)
		}
		return nil, fmt.Errorf("group lookup failed: %w", err)
	}
	gid, err := parseID(g.Gid, "group.gid")
	if err != nil {
		return nil, err
	}
	return &Group{Name: g.Name, GID: gid}, nil
}

func (SystemDatabase) Name() string {
	return "go-os-user"
}

func convertUser(u *user.User) (*User, error) {
	uid, err := parseID(u.Uid, "passwd.uid")
	if err != nil {
		return nil, err
	}
	gid, err := parseID(u.Gid, "passwd.gid")
	if err != nil {
		return nil, err
	}
	return &User{Name: u.Username, UID: uid, GID: gid, Gecos: u.Name, Home: u.HomeDir}, nil
}
