package utils

import (
	"net/http"
	"strings"
)

const (
	HeaderForwardedFor   = "X-Forwarded-For"
	HeaderRealIP         = "X-Real-Ip"
	HeaderCFConnectingIP = "CF-Connecting-Ip"
	HeaderClientIP       = "X-Client-Ip"
)

var loopbackAddresses = map[string]struct{}{
	"127.0.0.1":        {},
	"::1":              {},
	"::ffff:127.0.0.1": {},
}

// ClientIPResolver picks the address reported to the platform API in the
// myip header. Outside production the header chain is skipped and Override
// is used as is.
type ClientIPResolver struct {
	Production bool
	Override   string
}

func (r ClientIPResolver) Resolve(header http.Header) *string {
	if !r.Production {
		return stringPtr(r.Override)
	}

	forwarded := firstForwarded(header.Get(HeaderForwardedFor))
	if usable(forwarded) {
		return &forwarded
	}
	for _, name := range []string{HeaderRealIP, HeaderCFConnectingIP, HeaderClientIP} {
		value := strings.TrimSpace(header.Get(name))
		if usable(value) {
			return &value
		}
	}
	// Deployments without a reverse proxy only ever see loopback here.
	return stringPtr(forwarded)
}

func IsLoopback(ip string) bool {
	_, ok := loopbackAddresses[strings.TrimSpace(ip)]
	return ok
}

func firstForwarded(value string) string {
	first, _, _ := strings.Cut(value, ",")
	return strings.TrimSpace(first)
}

func usable(ip string) bool {
	return ip != "" && !IsLoopback(ip)
}

func stringPtr(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return &value
}
