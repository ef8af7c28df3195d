package identity

type User struct {
	Name  string
	UID   uint32
	GID   uint32
	Gecos string
	Home  string
	Shell string
}

type Group struct {
	Name    string
	GID     uint32
	Members []string
}
