package backoffice

import (
	"strings"

	"github.com/devicelab-dev/backoffice-runner/pkg/logger"
)

// Tier selects the deployment stage a tenant is hosted on.
type Tier string

const (
	TierFAT        Tier = "fat"
	TierStaging    Tier = "staging"
	TierProduction Tier = "production"
)

// domainSuffix maps each tier to the host suffix after the tenant subdomain.
var domainSuffix = map[Tier]string{
	TierFAT:        ".backoffice.test17.shub.us",
	TierStaging:    ".backoffice.staging.mymyhub.com",
	TierProduction: ".storehubhq.com",
}

// ParseTier normalizes a tier keyword. Unknown values fall back to fat and
// report ok=false; an empty value falls back silently.
func ParseTier(s string) (tier Tier, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fat":
		return TierFAT, true
	case "staging":
		return TierStaging, true
	case "production", "prod":
		return TierProduction, true
	default:
		return TierFAT, false
	}
}

// BaseURL returns the backoffice root for a tenant on a tier, without a
// trailing slash.
func BaseURL(tenant, tier string) string {
	t, ok := ParseTier(tier)
	if !ok {
		logger.Warn("Unknown ENV %q, defaulting to fat backoffice domain", tier)
	}
	base := "https://" + tenant + domainSuffix[t]
	logger.Info("Using base URL: %s", base)
	return base
}

// NormalizeBaseURL strips trailing slashes from an explicit base URL.
func NormalizeBaseURL(raw string) string {
	return strings.TrimRight(strings.TrimSpace(raw), "/")
}

func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}
