package domain

// TargetProfile is a named account profile from the configuration file.
// Profiles are loaded once at startup and never mutated afterwards.
type TargetProfile struct {
	// Name is the unique key from the [targets.<name>] section.
	Name string
	// Username is the account sign-in name (email address).
	Username string
	// Password is optional. When empty the authenticator must solicit it:
	// a terminal prompt in CLI mode, or the login form in the visible
	// browser window in GUI mode.
	Password string
}

// MTLSPaths holds the certificate material for mutual-TLS delivery.
// All three paths are required whenever a POST destination is configured.
type MTLSPaths struct {
	CA   string
	Cert string
	Key  string
}

// GraphApp identifies the Azure app registration used by the programmatic
// (Graph API) session variant.
type GraphApp struct {
	TenantID string
	ClientID string
}
