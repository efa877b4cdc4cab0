package app

import (
	"strings"

	"github.com/charlesng35/apartment/internal/auth"
)

const defaultSessionCookie = "apartment_session"

// JWTServiceConfig converts AuthConfig into the parameters expected by the JWT service.
func (c AuthConfig) JWTServiceConfig() auth.JWTConfig {
	ttl := c.JWT.TTL
	if ttl <= 0 {
		ttl = auth.DefaultAccessTokenTTL
	}

	return auth.JWTConfig{
		Secret:         c.JWT.Secret,
		Issuer:         c.JWT.Issuer,
		AccessTokenTTL: ttl,
	}
}

// CookieName returns the cookie that may carry the access token for browser clients.
func (c AuthConfig) CookieName() string {
	if name := strings.TrimSpace(c.SessionCookie); name != "" {
		return name
	}
	return defaultSessionCookie
}
