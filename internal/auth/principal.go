package auth

// Principal is the authenticated caller handed to the engine by the identity
// collaborator (the JWT middleware at the HTTP seam). The engine never looks
// up credentials itself.
type Principal struct {
	UserID         uint
	Role           string
	OrganizationID *uint
}

// Authenticated reports whether the principal carries a real user identity.
func (p Principal) Authenticated() bool { return p.UserID != 0 }
