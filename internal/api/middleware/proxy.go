package middleware

import (
	"fmt"
	"net"
	"strings"

	"github.com/labstack/echo/v4"
)

// NewIPExtractor returns the client IP strategy for the server. Without
// trusted proxies the peer address is used and forwarding headers are
// ignored. With proxies, X-Forwarded-For is walked from the nearest hop and
// the first address outside the trusted ranges is the client.
func NewIPExtractor(trustedProxies []string) (echo.IPExtractor, error) {
	if len(trustedProxies) == 0 {
		return echo.ExtractIPDirect(), nil
	}

	ranges, err := ParseTrustedProxies(trustedProxies)
	if err != nil {
		return nil, err
	}

	// Only explicitly listed ranges are trusted, not echo's loopback and
	// private network defaults
	options := []echo.TrustOption{
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	}
	for _, r := range ranges {
		options = append(options, echo.TrustIPRange(r))
	}

	return echo.ExtractIPFromXFFHeader(options...), nil
}

// ParseTrustedProxies parses CIDR ranges or single addresses. A single
// address is treated as a host range (/32 or /128).
func ParseTrustedProxies(entries []string) ([]*net.IPNet, error) {
	ranges := make([]*net.IPNet, 0, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		if strings.Contains(entry, "/") {
			_, ipNet, err := net.ParseCIDR(entry)
			if err != nil {
				return nil, fmt.Errorf("invalid trusted proxy range %q: %w", entry, err)
			}
			ranges = append(ranges, ipNet)
			continue
		}

		ip := net.ParseIP(entry)
		if ip == nil {
			return nil, fmt.Errorf("invalid trusted proxy address %q", entry)
		}
		bits := net.IPv6len * 8
		if v4 := ip.To4(); v4 != nil {
			ip = v4
			bits = net.IPv4len * 8
		}
		ranges = append(ranges, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
	}
	return ranges, nil
}
