package crm

import (
	"leadqual_backend/platform/config"
)

// NewPusher returns a Zoho client when credentials are configured,
// otherwise a no-op pusher so development environments work without CRM access.
func NewPusher(cfg config.ZohoConfig) Pusher {
	if !cfg.IsZohoEnabled() {
		return NoopPusher{}
	}
	return NewZohoClient(ZohoConfig{
		ClientID:     cfg.GetZohoClientID(),
		ClientSecret: cfg.GetZohoClientSecret(),
		RefreshToken: cfg.GetZohoRefreshToken(),
		AccountsURL:  cfg.GetZohoAccountsURL(),
		APIURL:       cfg.GetZohoCRMAPIURL(),
	})
}
