//go:build !unix

package privilege

import "os"

type systemCredentials struct{}

func (systemCredentials) Getuid() int  { return os.Getuid() }
func (systemCredentials) Getgid() int  { return os.Getgid() }
func (systemCredentials) Geteuid() int { return os.Geteuid() }
func (systemCredentials) Getegid() int { return os.Getegid() }

func (systemCredentials) Seteuid(int) error { return ErrUnsupported }
func (systemCredentials) Setegid(int) error { return ErrUnsupported }

func execImage(string, []string) error { return ErrUnsupported }
