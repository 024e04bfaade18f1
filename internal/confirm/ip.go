package confirm

import (
	"net"
	"strings"
)

// resolveOrigin determines the confirming client's true origin address.
// Precedence, first match wins: the trusted-proxy real-IP header, the first
// hop of the forwarded-for chain, then the raw transport peer address.
// The result always carries a /32 single-host mask.
//
// Proxy-supplied headers are trusted as-is, with no allow-list of proxy
// hops. That trust boundary is a known weakness of the scheme, kept because
// tightening it would change which address gets authorized.
func resolveOrigin(v Visit) string {
	if ip := strings.TrimSpace(v.RealIP); ip != "" {
		return ip + "/32"
	}
	if chain := strings.TrimSpace(v.ForwardedFor); chain != "" {
		first := strings.TrimSpace(strings.Split(chain, ",")[0])
		if first != "" {
			return first + "/32"
		}
	}
	host := strings.TrimSpace(v.RemoteAddr)
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return host + "/32"
}
