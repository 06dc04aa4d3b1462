package deviceid_test

import (
	"testing"
	"unicode/utf8"

	"github.com/seroft/pharmhub-auth/pkg/deviceid"
	"github.com/stretchr/testify/require"
)

const (
	uaChromeMac    = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	uaChromeMac121 = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.6099.129 Safari/537.36"
	uaFirefoxLinux = "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0"
	uaSafariIPhone = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"
	uaSafariIPad   = "Mozilla/5.0 (iPad; CPU OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"
	uaAndroidTab   = "Mozilla/5.0 (Linux; Android 13; SM-X700) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	uaEdgeWindows  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.0.0"
)

func TestParseUserAgent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		ua         string
		browser    string
		deviceType string
		vendor     string
	}{
		{"chrome on mac", uaChromeMac, "Chrome", deviceid.TypeDesktop, "Apple"},
		{"firefox on linux", uaFirefoxLinux, "Firefox", deviceid.TypeDesktop, "Unknown"},
		{"safari on iphone", uaSafariIPhone, "Safari", deviceid.TypeMobile, "Apple"},
		{"safari on ipad", uaSafariIPad, "Safari", deviceid.TypeTablet, "Apple"},
		{"android tablet", uaAndroidTab, "Chrome", deviceid.TypeTablet, "Google"},
		{"edge on windows", uaEdgeWindows, "Edge", deviceid.TypeDesktop, "Microsoft"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			info := deviceid.ParseUserAgent(tt.ua)
			require.Equal(t, tt.browser, info.Browser.Name)
			require.NotEqual(t, "Unknown", info.Browser.Version)
			require.NotEqual(t, "Unknown", info.OS.Name)
			require.Equal(t, tt.deviceType, info.DeviceType)
			require.Equal(t, tt.vendor, info.Vendor)
		})
	}
}

func TestParseUserAgentUnknown(t *testing.T) {
	t.Parallel()

	for _, ua := range []string{"", "   "} {
		info := deviceid.ParseUserAgent(ua)
		require.Equal(t, deviceid.Info{
			Browser:    deviceid.Browser{Name: "Unknown", Version: "Unknown"},
			OS:         deviceid.OS{Name: "Unknown", Version: "Unknown"},
			DeviceType: deviceid.TypeDesktop,
			Vendor:     "Unknown",
		}, info)
	}

	for _, ua := range []string{"garbage", "curl/8.4.0", "\xff\xfe"} {
		info := deviceid.ParseUserAgent(ua)
		require.Equal(t, deviceid.Browser{Name: "Unknown", Version: "Unknown"}, info.Browser, "ua %q", ua)
		require.Equal(t, deviceid.TypeDesktop, info.DeviceType)
	}
}

func TestParseUserAgentTokenFallback(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		ua      string
		browser deviceid.Browser
	}{
		{"elided chrome", "Mozilla/5.0 ... Chrome/90.0", deviceid.Browser{Name: "Chrome", Version: "90.0"}},
		{"bare chrome", "Mozilla/5.0 Chrome/90.0", deviceid.Browser{Name: "Chrome", Version: "90.0"}},
		{"bare firefox", "Mozilla/5.0 Firefox/115.0", deviceid.Browser{Name: "Firefox", Version: "115.0"}},
		{"legacy edge", "Mozilla/5.0 (Windows NT 10.0) Chrome/70.0 Safari/537.36 Edge/18.17763", deviceid.Browser{Name: "Edge", Version: "18.17763"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.browser, deviceid.ParseUserAgent(tt.ua).Browser)
		})
	}
}

func TestParseUserAgentInvalidUTF8(t *testing.T) {
	t.Parallel()

	info := deviceid.ParseUserAgent("Mozilla/5.0 (X11; Linux x86_64) Firefox/121.0\xff")
	require.Equal(t, "Firefox", info.Browser.Name)
	require.True(t, utf8.ValidString(info.Browser.Version))
	require.True(t, utf8.ValidString(info.OS.Name))
}

func TestParseUserAgentDeterministic(t *testing.T) {
	t.Parallel()
	require.Equal(t, deviceid.ParseUserAgent(uaSafariIPhone), deviceid.ParseUserAgent(uaSafariIPhone))
}

func TestFingerprint(t *testing.T) {
	t.Parallel()

	require.Equal(t, deviceid.Fingerprint(uaChromeMac), deviceid.Fingerprint(uaChromeMac121), "minor updates keep the fingerprint")
	require.NotEqual(t, deviceid.Fingerprint(uaChromeMac), deviceid.Fingerprint(uaFirefoxLinux))
	require.NotEqual(t, deviceid.Fingerprint(uaSafariIPhone), deviceid.Fingerprint(uaSafariIPad))
	require.Empty(t, deviceid.Fingerprint(""))
}
