package identity

import (
	"context"
	"errors"
	"strings"
)

type chained struct {
	dbs []Database
}

// Chain tries each database in order and returns the first hit. When all of
// them fail, a not-found answer from any database wins over other errors.
func Chain(dbs ...Database) Database {
	return &chained{dbs: dbs}
}

func (c *chained) UserByName(ctx context.Context, name string) (*User, error) {
	return first(c.dbs, ErrUserNotFound, func(db Database) (*User, error) {
		return db.UserByName(ctx, name)
	})
}

func (c *chained) UserByID(ctx context.Context, uid uint32) (*User, error) {
	return first(c.dbs, ErrUserNotFound, func(db Database) (*User, error) {
		return db.UserByID(ctx, uid)
	})
}

func (c *chained) GroupByName(ctx context.Context, name string) (*Group, error) {
	return first(c.dbs, ErrGroupNotFound, func(db Database) (*Group, error) {
		return db.GroupByName(ctx, name)
	})
}

func first[T any](dbs []Database, notFound error, lookup func(Database) (*T, error)) (*T, error) {
	var lastErr, notFoundErr error
	for _, db := range dbs {
		v, err := lookup(db)
		if err == nil {
			return v, nil
		}
		if errors.Is(err, notFound) {
			notFoundErr = err
			continue
		}
		lastErr = err
	}
	if notFoundErr != nil {
		return nil, notFoundErr
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, notFound
}

func (c *chained) Name() string {
	if len(c.dbs) == 0 {
		return "chained-empty"
	}
	names := make([]string, 0, len(c.dbs))
	for _, db := range c.dbs {
		names = append(names, db.Name())
	}
	return "chained:" + strings.Join(names, ",")
}
