package identity

// Fingerprint is one outbound browser identity: a coherent set of HTTP
// headers that a real browser of that family would send. Mixing headers
// from different browsers is a well-known detection signal, so profiles
// are kept whole and applied atomically.
type Fingerprint struct {
	// Name identifies the profile in logs.
	Name string

	// UserAgent is the User-Agent header value.
	UserAgent string

	// Accept is the Accept header value.
	Accept string

	// AcceptLanguage is the Accept-Language header value.
	AcceptLanguage string

	// SecChUA is the Sec-CH-UA client-hint header. Empty for browsers
	// that do not send client hints (Firefox, Safari).
	SecChUA string

	// SecChUAMobile is the Sec-CH-UA-Mobile client-hint header.
	SecChUAMobile string

	// SecChUAPlatform is the Sec-CH-UA-Platform client-hint header.
	SecChUAPlatform string
}

// Headers returns the profile as a header map, omitting client-hint
// headers for profiles that do not carry them.
func (f Fingerprint) Headers() map[string]string {
	h := map[string]string{
		"User-Agent":      f.UserAgent,
		"Accept":          f.Accept,
		"Accept-Language": f.AcceptLanguage,
		// No "br": the transport decodes gzip and deflate itself and must
		// not advertise encodings it cannot undo.
		"Accept-Encoding":           "gzip, deflate",
		"Sec-Fetch-Site":            "none",
		"Sec-Fetch-Mode":            "navigate",
		"Sec-Fetch-Dest":            "document",
		"Upgrade-Insecure-Requests": "1",
	}
	if f.SecChUA != "" {
		h["Sec-CH-UA"] = f.SecChUA
		h["Sec-CH-UA-Mobile"] = f.SecChUAMobile
		h["Sec-CH-UA-Platform"] = f.SecChUAPlatform
	}
	return h
}

// builtinFingerprints is the full set of browser profiles available to the
// pool. Chromium-family profiles carry client hints; Firefox and Safari
// do not.
var builtinFingerprints = []Fingerprint{
	{
		Name:            "chrome-windows",
		UserAgent:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
		Accept:          "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8",
		AcceptLanguage:  "en-US,en;q=0.9",
		SecChUA:         `"Chromium";v="122", "Not(A:Brand";v="24", "Google Chrome";v="122"`,
		SecChUAMobile:   "?0",
		SecChUAPlatform: `"Windows"`,
	},
	{
		Name:            "chrome-macos",
		UserAgent:       "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
		Accept:          "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8",
		AcceptLanguage:  "en-US,en;q=0.9",
		SecChUA:         `"Chromium";v="122", "Not(A:Brand";v="24", "Google Chrome";v="122"`,
		SecChUAMobile:   "?0",
		SecChUAPlatform: `"macOS"`,
	},
	{
		Name:           "firefox-windows",
		UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:123.0) Gecko/20100101 Firefox/123.0",
		Accept:         "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
		AcceptLanguage: "en-US,en;q=0.5",
	},
	{
		Name:           "safari-macos",
		UserAgent:      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2.1 Safari/605.1.15",
		Accept:         "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		AcceptLanguage: "en-US,en;q=0.9",
	},
	{
		Name:            "edge-windows",
		UserAgent:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36 Edg/122.0.0.0",
		Accept:          "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8",
		AcceptLanguage:  "en-US,en;q=0.9",
		SecChUA:         `"Chromium";v="122", "Not(A:Brand";v="24", "Microsoft Edge";v="122"`,
		SecChUAMobile:   "?0",
		SecChUAPlatform: `"Windows"`,
	},
}

// BuiltinFingerprints returns a copy of the built-in profile set.
func BuiltinFingerprints() []Fingerprint {
	out := make([]Fingerprint, len(builtinFingerprints))
	copy(out, builtinFingerprints)
	return out
}
