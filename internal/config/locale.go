package config

// LocaleConfig holds request identity settings for one locale.
// Empty fields leave the current value untouched.
type LocaleConfig struct {
	// Domain is the scheme and host relative links are rewritten against,
	// e.g. "https://de.pinterest.com".
	Domain string `yaml:"domain,omitempty"`

	// AcceptLanguage is the Accept-Language header value.
	AcceptLanguage string `yaml:"acceptLanguage,omitempty"`

	// UserAgents replaces the User-Agent rotation.
	UserAgents []string `yaml:"userAgents,omitempty"`

	// Headers are custom HTTP headers to include in requests.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Cookie is an HTTP cookie to send.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Proxy is a SOCKS5 proxy address in "host:port" format.
	Proxy string `yaml:"proxy,omitempty"`
}

// File represents the structure of the .ideagraph configuration file.
type File struct {
	// Locales maps language hints (e.g. "de-DE") to their settings.
	Locales map[string]LocaleConfig `yaml:"locales,omitempty"`

	// Defaults apply to every locale unless overridden.
	Defaults LocaleConfig `yaml:"defaults,omitempty"`
}

// GetLocaleConfig returns the configuration for a language hint.
// It merges the locale-specific configuration with defaults. An empty or
// unknown hint returns the defaults.
func (cf *File) GetLocaleConfig(hint string) LocaleConfig {
	result := cf.Defaults
	// Copy so callers can't mutate the defaults through the map.
	if cf.Defaults.Headers != nil {
		result.Headers = make(map[string]string, len(cf.Defaults.Headers))
		for k, v := range cf.Defaults.Headers {
			result.Headers[k] = v
		}
	}

	lc, ok := cf.Locales[hint]
	if !ok {
		return result
	}

	if lc.Domain != "" {
		result.Domain = lc.Domain
	}
	if lc.AcceptLanguage != "" {
		result.AcceptLanguage = lc.AcceptLanguage
	}
	if len(lc.UserAgents) > 0 {
		result.UserAgents = lc.UserAgents
	}
	if len(lc.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string)
		}
		for k, v := range lc.Headers {
			result.Headers[k] = v
		}
	}
	if lc.Cookie != "" {
		result.Cookie = lc.Cookie
	}
	if lc.Proxy != "" {
		result.Proxy = lc.Proxy
	}

	return result
}
