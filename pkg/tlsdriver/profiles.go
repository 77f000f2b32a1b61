package tlsdriver

import "crypto/tls"

// VersionProfile bundles a MinVersion/MaxVersion pair under a descriptive
// name, the way a deployment picks a compatibility/security tradeoff once
// instead of wiring raw tls.Version* constants at every call site.
type VersionProfile struct {
	Min, Max uint16
	Description string
}

var (
	// ProfileModern restricts the handshake to TLS 1.3 only.
	ProfileModern = VersionProfile{tls.VersionTLS13, tls.VersionTLS13, "TLS 1.3 only"}
	// ProfileSecure allows TLS 1.2 and 1.3, the recommended default.
	ProfileSecure = VersionProfile{tls.VersionTLS12, tls.VersionTLS13, "TLS 1.2+"}
	// ProfileCompatible allows TLS 1.0 through 1.3 for legacy peers.
	ProfileCompatible = VersionProfile{tls.VersionTLS10, tls.VersionTLS13, "TLS 1.0+, legacy compatible"}
)

// secureCipherSuites are ECDHE+AEAD suites, applied under ProfileSecure/
// ProfileCompatible when MinVersion < TLS 1.3 (TLS 1.3 negotiates its own
// suites and ignores CipherSuites entirely).
var secureCipherSuites = []uint16{
	tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
	tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
	tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256,
	tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305_SHA256,
}

// ApplyProfile sets MinVersion/MaxVersion from profile and, below TLS 1.3,
// the recommended ECDHE cipher suite list.
func (o *Opts) ApplyProfile(profile VersionProfile) {
	o.MinVersion = profile.Min
	o.MaxVersion = profile.Max
	if profile.Min < tls.VersionTLS13 {
		o.CipherSuites = secureCipherSuites
	} else {
		o.CipherSuites = nil
	}
}

// VersionName returns a human-readable name for a tls.Version* constant,
// used in log lines and error messages.
func VersionName(version uint16) string {
	switch version {
	case tls.VersionTLS10:
		return "TLS 1.0"
	case tls.VersionTLS11:
		return "TLS 1.1"
	case tls.VersionTLS12:
		return "TLS 1.2"
	case tls.VersionTLS13:
		return "TLS 1.3"
	default:
		return "unknown"
	}
}
