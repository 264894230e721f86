package configuration

import (
	"fmt"
	"os"
	"strings"
)

// GoogleConfig carries the platform-level OAuth defaults. Per-channel client
// credentials come from the credential store, not from here.
type GoogleConfig struct {
	DefaultRedirectURI string
}

// GetGoogleConfig resolves the default redirect URI used when a channel row
// has no redirect URI of its own. The callback path must match what the
// tenant registered with Google.
func GetGoogleConfig() *GoogleConfig {
	scheme := "http"
	if C.App.TLSEnabled {
		scheme = "https"
	}
	port := C.App.Port
	if port == 0 {
		port = 10010
	}
	defaultRedirect := fmt.Sprintf("%s://localhost:%d/auth/youtube/callback", scheme, port)

	return &GoogleConfig{
		DefaultRedirectURI: getConfigValue(C.Google.DefaultRedirectURI, "GOOGLE_REDIRECT_URL", defaultRedirect),
	}
}

// getConfigValue gets value from environment first, then config, then default
func getConfigValue(configValue, envKey, defaultValue string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	if configValue != "" && !strings.HasPrefix(configValue, "YOUR_") {
		return configValue
	}
	return defaultValue
}
