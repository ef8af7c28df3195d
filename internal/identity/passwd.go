package identity

import (
	"bytes"

	"github.com/hnrobert/debspawn/internal/hostfs"
)

type PasswdFile struct {
	entries []User
}

func LoadPasswd(path string) (*PasswdFile, error) {
	b, err := hostfs.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parsePasswd(b)
}

func parsePasswd(b []byte) (*PasswdFile, error) {
	lines, err := readLines(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}

	f := &PasswdFile{}
	for _, line := range lines {
		if isComment(line) {
			continue
		}
		parts := parseColonLine(line)
		if len(parts) < 7 {
			// Lines with too few fields carry no usable entry.
			continue
		}
		uid, err := parseID(parts[2], "passwd.uid")
		if err != nil {
			return nil, err
		}
		gid, err := parseID(parts[3], "passwd.gid")
		if err != nil {
			return nil, err
		}
		f.entries = append(f.entries, User{
			Name:  parts[0],
			UID:   uid,
			GID:   gid,
			Gecos: parts[4],
			Home:  parts[5],
			Shell: parts[6],
		})
	}
	return f, nil
}

func (f *PasswdFile) Find(name string) *User {
	for i := range f.entries {
		if f.entries[i].Name == name {
			return &f.entries[i]
		}
	}
	return nil
}

// FindByUID returns the first entry with uid, matching getpwuid(3).
func (f *PasswdFile) FindByUID(uid uint32) *User {
	for i := range f.entries {
		if f.entries[i].UID == uid {
			return &f.entries[i]
		}
	}
	return nil
}
