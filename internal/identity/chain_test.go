package identity

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

type stubDB struct {
	name   string
	users  map[string]*User
	groups map[string]*Group
	err    error
	calls  int
}

func (s *stubDB) UserByName(_ context.Context, name string) (*User, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if u, ok := s.users[name]; ok {
		return u, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUserNotFound, name)
}

func (s *stubDB) UserByID(_ context.Context, uid uint32) (*User, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	for _, u := range s.users {
		if u.UID == uid {
			return u, nil
		}
	}
	return nil, fmt.Errorf("%w: uid %d", ErrUserNotFound, uid)
}

func (s *stubDB) GroupByName(_ context.Context, name string) (*Group, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if g, ok := s.groups[name]; ok {
		return g, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrGroupNotFound, name)
}

func (s *stubDB) Name() string { return s.name }

func TestChainFallsThrough(t *testing.T) {
	a := &stubDB{name: "a"}
	b := &stubDB{name: "b", users: map[string]*User{"alice": {Name: "alice", UID: 1001, GID: 1001}}}
	db := Chain(a, b)

	u, err := db.UserByName(context.Background(), "alice")
	if err != nil {
		t.Fatalf("UserByName failed: %v", err)
	}
	if u.UID != 1001 {
		t.Errorf("uid = %d, want 1001", u.UID)
	}
	if a.calls != 1 || b.calls != 1 {
		t.Errorf("expected one call per database, got a=%d b=%d", a.calls, b.calls)
	}

	u, err = db.UserByID(context.Background(), 1001)
	if err != nil || u.Name != "alice" {
		t.Errorf("UserByID(1001) = %+v, %v", u, err)
	}
}

func TestChainStopsAtFirstHit(t *testing.T) {
	a := &stubDB{name: "a", groups: map[string]*Group{"sbuild": {Name: "sbuild", GID: 132}}}
	b := &stubDB{name: "b"}
	db := Chain(a, b)

	if _, err := db.GroupByName(context.Background(), "sbuild"); err != nil {
		t.Fatalf("GroupByName failed: %v", err)
	}
	if b.calls != 0 {
		t.Errorf("second database should not be consulted, got %d calls", b.calls)
	}
}

func TestChainErrors(t *testing.T) {
	backendErr := errors.New("backend down")

	db := Chain(&stubDB{name: "a", err: backendErr}, &stubDB{name: "b"})
	if _, err := db.UserByName(context.Background(), "ghost"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected not-found to win, got %v", err)
	}

	db = Chain(&stubDB{name: "a", err: backendErr})
	if _, err := db.GroupByName(context.Background(), "ghost"); !errors.Is(err, backendErr) {
		t.Errorf("expected backend error, got %v", err)
	}

	if _, err := Chain().UserByName(context.Background(), "ghost"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("empty chain should report not found, got %v", err)
	}
}

func TestChainName(t *testing.T) {
	if got := Chain().Name(); got != "chained-empty" {
		t.Errorf("Name() = %q", got)
	}
	if got := Chain(&stubDB{name: "a"}, &stubDB{name: "b"}).Name(); got != "chained:a,b" {
		t.Errorf("Name() = %q", got)
	}
	if got := Default("").Name(); got != "chained:go-os-user,files:/" {
		t.Errorf("Default(\"\").Name() = %q", got)
	}
	if got := Default("/srv/sysroot").Name(); got != "files:/srv/sysroot" {
		t.Errorf("Default(root).Name() = %q", got)
	}
}
