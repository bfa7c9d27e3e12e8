package session

import (
	"net/http"
	"strings"
)

const unknown = "unknown"

// Device classes.
const (
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceBot     = "bot"
	DeviceDesktop = "desktop"
)

// Metadata describes the connection that opened a session.
type Metadata struct {
	IPAddress  string
	UserAgent  string
	DeviceType string
}

// MetadataFromRequest extracts connection metadata from request headers.
func MetadataFromRequest(r *http.Request) Metadata {
	ua := strings.TrimSpace(r.Header.Get("User-Agent"))
	if ua == "" {
		ua = unknown
	}
	return Metadata{
		IPAddress:  clientIP(r.Header),
		UserAgent:  ua,
		DeviceType: DeviceClass(ua),
	}
}

func clientIP(h http.Header) string {
	if xff := h.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(h.Get("X-Real-IP")); ip != "" {
		return ip
	}
	return unknown
}

// DeviceClass classifies a user agent. Checks run in order, so Android
// tablets match "android" and count as mobile.
func DeviceClass(userAgent string) string {
	ua := strings.ToLower(userAgent)
	switch {
	case containsAny(ua, "mobile", "android", "iphone"):
		return DeviceMobile
	case containsAny(ua, "tablet", "ipad"):
		return DeviceTablet
	case containsAny(ua, "bot", "crawler", "spider"):
		return DeviceBot
	default:
		return DeviceDesktop
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
