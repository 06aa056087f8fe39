package auth

import "time"

// Config holds the session token settings. Load it through pkg/config.
type Config struct {
	// SigningKey signs session tokens. Rotate by redeploying; there is no
	// key versioning, outstanding tokens become invalid on rotation.
	SigningKey string `env:"JWT_SECRET_KEY,required"`

	// AccessTokenTTL is the lifetime of issued session tokens.
	AccessTokenTTL time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"30m"`
}
