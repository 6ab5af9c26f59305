package auth

// Roles carried in token claims. New customers register with RoleDefault.
const (
	RoleDefault = "default"
	RoleAdmin   = "admin"
)

// Principal is the authenticated identity reconstructed per request from a
// verified token. It is never persisted.
type Principal struct {
	UserID    string
	Email     string
	Role      string
	TokenKind Kind
}

// IsAdmin reports whether the principal carries the admin role.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// principalFromClaims derives the request principal from verified claims.
func principalFromClaims(c *Claims) Principal {
	return Principal{
		UserID:    c.UserID,
		Email:     c.Email,
		Role:      c.Role,
		TokenKind: Kind(c.TokenType),
	}
}
