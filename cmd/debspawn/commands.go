package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/hnrobert/debspawn/internal/config"
	"github.com/hnrobert/debspawn/internal/console"
	"github.com/hnrobert/debspawn/internal/logger"
	"github.com/hnrobert/debspawn/internal/privilege"
)

// controller is the part of privilege.Controller the commands use.
type controller interface {
	OwnerUIDGID() (uid, gid uint32)
	IsRoot() bool
	WithUnprivileged(fn func() error) error
}

// rootController adds the startup steps run performs before dispatch.
type rootController interface {
	controller
	EnsureRoot() error
	SetOwningUser(ctx context.Context, user, group string) error
}

var newController = func(opts privilege.Options) rootController {
	return privilege.New(opts)
}

func cmdWhoami(ctrl controller, w io.Writer) error {
	uid, gid := ctrl.OwnerUIDGID()
	if uid == 0 && gid == 0 {
		fmt.Fprintf(w, "owner:      none\n")
	} else {
		fmt.Fprintf(w, "owner:      %d:%d\n", uid, gid)
	}
	fmt.Fprintf(w, "root:       %s\n", console.Mark(ctrl.IsRoot()))
	return ctrl.WithUnprivileged(func() error {
		fmt.Fprintf(w, "unprivileged euid/egid: %d/%d\n", os.Geteuid(), os.Getegid())
		return nil
	})
}

func cmdWriteConfig(ctrl controller, path string, w io.Writer) error {
	err := ctrl.WithUnprivileged(func() error {
		return config.NewStore(path).Save(config.Default())
	})
	if err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	logger.Info("wrote default configuration to %s", path)
	fmt.Fprintf(w, "%s %s\n", console.Mark(true), path)
	return nil
}
