package config

import "net/url"

// SiteConfig holds request settings for one site.
type SiteConfig struct {
	// Cookie is sent as the Cookie header, for pages behind a login or
	// a consent wall.
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are extra request headers.
	Headers map[string]string `yaml:"headers,omitempty"`

	// UserAgent overrides the global user agent for this site.
	UserAgent string `yaml:"userAgent,omitempty"`

	// Extended enables the extended checks for this site.
	Extended bool `yaml:"extended,omitempty"`
}

// File is the on-disk configuration file layout.
type File struct {
	// Sites maps a page URL or a host name to its settings.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults apply to every site and are overridden by Sites entries.
	Defaults SiteConfig `yaml:"defaults,omitempty"`

	// History stores every check run in the history database, as --save does.
	History bool `yaml:"history,omitempty"`
}

// GetSiteConfig returns the settings for target, merging the defaults with
// the most specific entry. An exact URL match wins over a host match.
func (cf *File) GetSiteConfig(target string) SiteConfig {
	if cf == nil {
		return SiteConfig{}
	}
	if site, ok := cf.Sites[target]; ok {
		return Merge(cf.Defaults, site)
	}
	if u, err := url.Parse(target); err == nil && u.Host != "" {
		if site, ok := cf.Sites[u.Host]; ok {
			return Merge(cf.Defaults, site)
		}
	}
	return Merge(cf.Defaults, SiteConfig{})
}

// Merge overlays the non-zero fields of override on top of defaults.
// Header maps are merged key by key; the result never aliases defaults.Headers.
func Merge(defaults, override SiteConfig) SiteConfig {
	result := defaults
	result.Headers = nil
	if len(defaults.Headers) > 0 || len(override.Headers) > 0 {
		result.Headers = make(map[string]string, len(defaults.Headers)+len(override.Headers))
		for k, v := range defaults.Headers {
			result.Headers[k] = v
		}
		for k, v := range override.Headers {
			result.Headers[k] = v
		}
	}
	if override.Cookie != "" {
		result.Cookie = override.Cookie
	}
	if override.UserAgent != "" {
		result.UserAgent = override.UserAgent
	}
	if override.Extended {
		result.Extended = true
	}
	return result
}
