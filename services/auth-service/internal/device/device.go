// Package device classifies user-agent strings into coarse device classes.
package device

import "strings"

// Class is the coarse device category derived from a user-agent string.
type Class string

const (
	ClassDesktop Class = "desktop"
	ClassMobile  Class = "mobile"
	ClassTablet  Class = "tablet"
	ClassUnknown Class = "unknown"
)

// Marker tables are checked in order: tablet markers first, because tablet
// user-agents routinely also carry a mobile-OS token ("Android", "Mobile")
// and would otherwise be misclassified.
var (
	tabletMarkers  = []string{"ipad", "tablet", "kindle", "silk", "playbook"}
	mobileMarkers  = []string{"mobile", "iphone", "ipod", "android", "blackberry", "windows phone", "opera mini"}
	desktopMarkers = []string{"windows", "macintosh", "x11", "cros", "linux"}
)

// Classify maps a raw user-agent string to a device class. Classification is
// a substring heuristic; an empty or unrecognized user-agent yields
// ClassUnknown, which is a legitimate terminal classification, not an error.
func Classify(userAgent string) Class {
	ua := strings.ToLower(strings.TrimSpace(userAgent))
	if ua == "" {
		return ClassUnknown
	}

	for _, marker := range tabletMarkers {
		if strings.Contains(ua, marker) {
			return ClassTablet
		}
	}

	for _, marker := range mobileMarkers {
		if strings.Contains(ua, marker) {
			return ClassMobile
		}
	}

	for _, marker := range desktopMarkers {
		if strings.Contains(ua, marker) {
			return ClassDesktop
		}
	}

	return ClassUnknown
}

// Label derives a short human-readable device label from a user-agent, used
// when the client does not supply a device-name header.
func Label(userAgent string) string {
	ua := strings.ToLower(userAgent)

	var platform string
	switch {
	case strings.Contains(ua, "ipad"):
		platform = "iPad"
	case strings.Contains(ua, "iphone"):
		platform = "iPhone"
	case strings.Contains(ua, "android"):
		platform = "Android"
	case strings.Contains(ua, "windows"):
		platform = "Windows"
	case strings.Contains(ua, "macintosh"):
		platform = "Mac"
	case strings.Contains(ua, "linux"), strings.Contains(ua, "x11"):
		platform = "Linux"
	default:
		return "Unknown device"
	}

	switch {
	case strings.Contains(ua, "edg/"):
		return platform + " · Edge"
	case strings.Contains(ua, "firefox"):
		return platform + " · Firefox"
	case strings.Contains(ua, "chrome"):
		return platform + " · Chrome"
	case strings.Contains(ua, "safari"):
		return platform + " · Safari"
	}

	return platform
}
