package google

import "time"

// Config holds the Google provider endpoints and retry policy. The endpoint
// URLs are configurable so tests and self-hosted mock providers can point the
// validator elsewhere.
type Config struct {
	TokenInfoURL string `env:"GOOGLE_TOKENINFO_URL" envDefault:"https://www.googleapis.com/oauth2/v1/tokeninfo"`
	UserInfoURL  string `env:"GOOGLE_USERINFO_URL" envDefault:"https://www.googleapis.com/oauth2/v2/userinfo"`

	RequestTimeout time.Duration `env:"GOOGLE_REQUEST_TIMEOUT" envDefault:"10s"` // RequestTimeout bounds each HTTP call.
	MaxAttempts    int           `env:"GOOGLE_MAX_ATTEMPTS" envDefault:"3"`      // MaxAttempts caps validation attempts against transient failures.

	// OAuth application credentials, used only for authorization-code
	// exchange. Validation of bare access tokens does not need them.
	ClientID     string   `env:"GOOGLE_OAUTH_CLIENT_ID"`
	ClientSecret string   `env:"GOOGLE_OAUTH_CLIENT_SECRET"`
	RedirectURL  string   `env:"GOOGLE_OAUTH_REDIRECT_URL"`
	Scopes       []string `env:"GOOGLE_OAUTH_SCOPES" envSeparator:"," envDefault:"https://www.googleapis.com/auth/userinfo.email,https://www.googleapis.com/auth/userinfo.profile"`
}
