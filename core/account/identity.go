package account

// Identity is the authenticated user held by a session.
type Identity struct {
	Authenticated bool     `json:"is_authenticated"`
	UserType      UserType `json:"user_type"`
	Username      string   `json:"username"`
	Role          Role     `json:"role"`
}

// Anonymous is the identity of a visitor who has not signed in.
var Anonymous = Identity{}

func NewIdentity(acc Account) Identity {
	return Identity{
		Authenticated: true,
		UserType:      acc.UserType(),
		Username:      acc.Username,
		Role:          acc.Role,
	}
}

func (id Identity) IsAdmin() bool { return id.Authenticated && id.Role.IsAdmin() }

// Session is the per-client state an Identity lives in between requests.
type Session interface {
	// Identity returns the stored identity, if any.
	Identity() (Identity, bool)
	SetIdentity(id Identity)
	// Clear drops the identity and any other session values.
	Clear()
}
