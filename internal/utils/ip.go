package utils

import (
	"net"
	"net/http"
	"strings"
)

// UnknownIP is returned by ClientIP when no source yields an address.
const UnknownIP = "Unknown"

// ClientIP picks the visitor address from, in order: the first entry of
// X-Forwarded-For, X-Real-IP, then the host part of the peer address.
// Header values are trusted as sent; no proxy allow-list is applied. Some
// load balancers append a port to forwarded entries; it is dropped.
func ClientIP(h http.Header, remoteAddr string) string {
	if xf := h.Get("X-Forwarded-For"); xf != "" {
		first, _, _ := strings.Cut(xf, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return stripPort(ip)
		}
	}
	if xr := strings.TrimSpace(h.Get("X-Real-IP")); xr != "" {
		return stripPort(xr)
	}

	remoteAddr = strings.TrimSpace(remoteAddr)
	if remoteAddr == "" {
		return UnknownIP
	}
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	if host == "" {
		return UnknownIP
	}
	return host
}

// stripPort turns "203.0.113.7:4711" or "[2001:db8::1]:443" into the bare
// address. Bare IPv4 and IPv6 values come back unchanged.
func stripPort(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil && host != "" {
		return host
	}
	return addr
}
