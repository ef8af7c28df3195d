package privilege

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hnrobert/debspawn/internal/identity"
)

// fakeCredentials models one process's ids. seteuid away from 0 loses the
// right to change the gid, as on Linux.
type fakeCredentials struct {
	mu         sync.Mutex
	uid, gid   int
	euid, egid int
	calls      []string

	failSeteuid map[int]error
	failSetegid map[int]error
}

func newFakeCredentials(uid, gid, euid, egid int) *fakeCredentials {
	return &fakeCredentials{uid: uid, gid: gid, euid: euid, egid: egid}
}

func (f *fakeCredentials) Getuid() int { f.mu.Lock(); defer f.mu.Unlock(); return f.uid }
func (f *fakeCredentials) Getgid() int { f.mu.Lock(); defer f.mu.Unlock(); return f.gid }

func (f *fakeCredentials) Geteuid() int { f.mu.Lock(); defer f.mu.Unlock(); return f.euid }
func (f *fakeCredentials) Getegid() int { f.mu.Lock(); defer f.mu.Unlock(); return f.egid }

func (f *fakeCredentials) Seteuid(uid int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf("seteuid %d", uid))
	if err := f.failSeteuid[uid]; err != nil {
		return err
	}
	if f.euid != 0 && uid != f.uid && uid != 0 {
		return errors.New("EPERM")
	}
	f.euid = uid
	return nil
}

func (f *fakeCredentials) Setegid(gid int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf("setegid %d", gid))
	if err := f.failSetegid[gid]; err != nil {
		return err
	}
	if f.euid != 0 && gid != f.gid {
		return errors.New("EPERM")
	}
	f.egid = gid
	return nil
}

func (f *fakeCredentials) effective() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.euid, f.egid
}

func (f *fakeCredentials) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// fakeDB is an identity database backed by maps. It counts lookups so tests
// can assert that numeric ids skip the database.
type fakeDB struct {
	mu      sync.Mutex
	users   []identity.User
	groups  []identity.Group
	lookups int
}

func (d *fakeDB) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lookups
}

func (d *fakeDB) UserByName(_ context.Context, name string) (*identity.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lookups++
	for _, u := range d.users {
		if u.Name == name {
			u := u
			return &u, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", identity.ErrUserNotFound, name)
}

func (d *fakeDB) UserByID(_ context.Context, uid uint32) (*identity.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lookups++
	for _, u := range d.users {
		if u.UID == uid {
			u := u
			return &u, nil
		}
	}
	return nil, fmt.Errorf("%w: uid %d", identity.ErrUserNotFound, uid)
}

func (d *fakeDB) GroupByName(_ context.Context, name string) (*identity.Group, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lookups++
	for _, g := range d.groups {
		if g.Name == name {
			g := g
			return &g, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", identity.ErrGroupNotFound, name)
}

func (d *fakeDB) Name() string { return "fake" }

func testDB() *fakeDB {
	return &fakeDB{
		users: []identity.User{
			{Name: "root", UID: 0, GID: 0},
			{Name: "builder", UID: 1000, GID: 1000},
			{Name: "alice", UID: 1001, GID: 100},
		},
		groups: []identity.Group{
			{Name: "root", GID: 0},
			{Name: "users", GID: 100},
			{Name: "sbuild", GID: 132},
		},
	}
}

// newTestController returns a controller wired to fakes. The exec, spawn and
// exit hooks fail the escalation tests unless they replace them.
func newTestController(creds *fakeCredentials, db identity.Database) *Controller {
	c := New(Options{Identities: db, Args: []string{"prog"}})
	c.creds = creds
	c.lookPath = func(file string) (string, error) { return "", errors.New("not found: " + file) }
	c.exec = func(string, []string) error { return errors.New("exec disabled in tests") }
	c.spawn = func(string, []string) (int, error) { return 0, errors.New("spawn disabled in tests") }
	c.exit = func(int) {}
	return c
}
