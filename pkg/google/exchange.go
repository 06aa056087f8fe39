package google

import (
	"context"
	"errors"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
)

// Exchanger swaps authorization codes for access tokens, so callers that run
// the browser consent flow can feed the resulting token into the validator.
type Exchanger struct {
	conf *oauth2.Config
}

// NewExchanger builds an Exchanger from the OAuth application credentials in
// Config.
func NewExchanger(cfg Config) (*Exchanger, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("google: oauth client id and secret are required for code exchange")
	}

	return &Exchanger{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint:     googleoauth.Endpoint,
		},
	}, nil
}

// AuthURL builds the provider consent URL carrying the given CSRF state.
func (e *Exchanger) AuthURL(state string) string {
	return e.conf.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// ExchangeCode redeems an authorization code for an access token. Exchange
// failures collapse to ErrCodeExchangeFailed; the provider's reason is
// attached for logs but callers should treat the code as spent either way.
func (e *Exchanger) ExchangeCode(ctx context.Context, code string) (string, error) {
	if code == "" {
		return "", ErrCodeExchangeFailed
	}

	tok, err := e.conf.Exchange(ctx, code)
	if err != nil {
		return "", errors.Join(ErrCodeExchangeFailed, err)
	}
	return tok.AccessToken, nil
}
