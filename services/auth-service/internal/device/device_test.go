package device_test

import (
	"testing"

	"github.com/Perfect-QA/DevTinder-sub000/services/auth-service/internal/device"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		userAgent string
		want      device.Class
	}{
		{
			name:      "ipad safari",
			userAgent: "Mozilla/5.0 (iPad; CPU OS 16_6 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.6 Mobile/15E148 Safari/604.1",
			want:      device.ClassTablet,
		},
		{
			name:      "android tablet wins over mobile token",
			userAgent: "Mozilla/5.0 (Linux; Android 13; SM-X700) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/114.0 Safari/537.36 Tablet",
			want:      device.ClassTablet,
		},
		{
			name:      "kindle silk",
			userAgent: "Mozilla/5.0 (Linux; Android 9; KFTRWI) AppleWebKit/537.36 Silk/112.4 Mobile Safari/537.36",
			want:      device.ClassTablet,
		},
		{
			name:      "iphone",
			userAgent: "Mozilla/5.0 (iPhone; CPU iPhone OS 16_6 like Mac OS X) AppleWebKit/605.1.15 Mobile/15E148 Safari/604.1",
			want:      device.ClassMobile,
		},
		{
			name:      "android phone",
			userAgent: "Mozilla/5.0 (Linux; Android 13; Pixel 7) AppleWebKit/537.36 Chrome/114.0 Mobile Safari/537.36",
			want:      device.ClassMobile,
		},
		{
			name:      "windows desktop",
			userAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 Chrome/114.0 Safari/537.36",
			want:      device.ClassDesktop,
		},
		{
			name:      "mac desktop",
			userAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 13_4) AppleWebKit/605.1.15 Version/16.5 Safari/605.1.15",
			want:      device.ClassDesktop,
		},
		{
			name:      "empty",
			userAgent: "",
			want:      device.ClassUnknown,
		},
		{
			name:      "unrecognized client",
			userAgent: "curl/8.1.2",
			want:      device.ClassUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := device.Classify(tt.userAgent); got != tt.want {
				t.Fatalf("Classify(%q) = %q, want %q", tt.userAgent, got, tt.want)
			}
		})
	}
}

func TestLabel(t *testing.T) {
	tests := []struct {
		userAgent string
		want      string
	}{
		{"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 Chrome/114.0 Safari/537.36", "Windows · Chrome"},
		{"Mozilla/5.0 (Macintosh; Intel Mac OS X 13_4) AppleWebKit/605.1.15 Version/16.5 Safari/605.1.15", "Mac · Safari"},
		{"Mozilla/5.0 (X11; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/115.0", "Linux · Firefox"},
		{"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 Chrome/114.0 Safari/537.36 Edg/114.0", "Windows · Edge"},
		{"curl/8.1.2", "Unknown device"},
	}

	for _, tt := range tests {
		if got := device.Label(tt.userAgent); got != tt.want {
			t.Fatalf("Label(%q) = %q, want %q", tt.userAgent, got, tt.want)
		}
	}
}
