package middleware

import (
	"net"

	"github.com/labstack/echo/v4"
)

// IPExtractor decides what echo's RealIP returns. Without trusted proxies it
// is the peer address, so request headers cannot pick a rate limit bucket.
// With proxies, X-Forwarded-For is walked back only through those ranges.
func IPExtractor(trusted []*net.IPNet) echo.IPExtractor {
	if len(trusted) == 0 {
		return echo.ExtractIPDirect()
	}
	options := []echo.TrustOption{
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	}
	for _, network := range trusted {
		options = append(options, echo.TrustIPRange(network))
	}
	return echo.ExtractIPFromXFFHeader(options...)
}
