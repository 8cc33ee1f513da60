package config

import (
	"time"
)

// SiteConfig holds per-domain overrides loaded from the sites file.
// This allows tuning harvest behavior for individual domains that are
// known to be slower, stricter, or structured unusually.
type SiteConfig struct {
	// DelayFloor overrides the global delay floor for this domain.
	// Zero means use the global value.
	DelayFloor time.Duration `yaml:"delayFloor,omitempty"`

	// MaxPages overrides the per-domain page cap for this domain.
	MaxPages int `yaml:"maxPages,omitempty"`

	// Headers are extra HTTP headers sent with every request to this
	// domain, layered over the assigned fingerprint profile.
	Headers map[string]string `yaml:"headers,omitempty"`

	// IgnorePatterns are URL substrings never crawled on this domain
	// (e.g. "/login", "?session=").
	IgnorePatterns []string `yaml:"ignorePatterns,omitempty"`
}

// SitesFile represents the structure of the optional YAML sites file.
type SitesFile struct {
	// Sites maps domains (lowercase host, no scheme) to their overrides.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults is applied to every domain unless overridden per site.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// ForDomain returns the effective configuration for a domain, merging the
// site-specific entry over the defaults.
func (f *SitesFile) ForDomain(domain string) SiteConfig {
	result := f.Defaults

	site, ok := f.Sites[domain]
	if !ok {
		return result
	}
	if site.DelayFloor != 0 {
		result.DelayFloor = site.DelayFloor
	}
	if site.MaxPages != 0 {
		result.MaxPages = site.MaxPages
	}
	if len(site.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string)
		}
		for k, v := range site.Headers {
			result.Headers[k] = v
		}
	}
	if len(site.IgnorePatterns) > 0 {
		result.IgnorePatterns = site.IgnorePatterns
	}
	return result
}
