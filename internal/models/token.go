package models

import "github.com/golang-jwt/jwt/v5"

// ActorClaims are the bearer token claims used to identify who performed an
// action. Tokens are issued by an external identity provider.
type ActorClaims struct {
	Name              string `json:"name,omitempty"`
	PreferredUsername string `json:"preferred_username,omitempty"`
	Email             string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Actor returns the most descriptive identity present.
func (c *ActorClaims) Actor() string {
	switch {
	case c == nil:
		return ""
	case c.Name != "":
		return c.Name
	case c.PreferredUsername != "":
		return c.PreferredUsername
	case c.Email != "":
		return c.Email
	}
	return c.Subject
}
