package identity

import (
	"bytes"
	"strings"

	"github.com/hnrobert/debspawn/internal/hostfs"
)

type GroupFile struct {
	entries []Group
}

func LoadGroup(path string) (*GroupFile, error) {
	b, err := hostfs.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseGroup(b)
}

func parseGroup(b []byte) (*GroupFile, error) {
	lines, err := readLines(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}

	f := &GroupFile{}
	for _, line := range lines {
		if isComment(line) {
			continue
		}
		parts := parseColonLine(line)
		if len(parts) < 4 {
			continue
		}
		gid, err := parseID(parts[2], "group.gid")
		if err != nil {
			return nil, err
		}
		members := []string{}
		if parts[3] != "" {
			members = strings.Split(parts[3], ",")
		}
		f.entries = append(f.entries, Group{Name: parts[0], GID: gid, Members: members})
	}
	return f, nil
}

func (f *GroupFile) Find(name string) *Group {
	for i := range f.entries {
		if f.entries[i].Name == name {
			return &f.entries[i]
		}
	}
	return nil
}
