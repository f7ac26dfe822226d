package model

// Site-wide roles carried in the identity token.  ADMIN passes every
// capability check; everyone else is authorized per program through
// their participant row.
const (
	RoleAdmin  = "ADMIN"
	RoleMember = "MEMBER"
)

// Actor is the authenticated caller as presented by the external
// identity module: an opaque user id plus a site-wide role.  All
// finer-grained authorization derives from program participant rows.
type Actor struct {
	UserID uint64
	Role   string
}

// IsAdmin reports whether the actor holds the site-wide admin role.
func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }
