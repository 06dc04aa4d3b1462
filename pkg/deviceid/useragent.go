package deviceid

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/mssola/useragent"
)

const unknown = "Unknown"

// Device types.
const (
	TypeMobile  = "mobile"
	TypeTablet  = "tablet"
	TypeDesktop = "desktop"
)

type Browser struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type OS struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Info is a best-effort description of the client software. It is for
// display and audit only and must never gate access.
type Info struct {
	Browser    Browser `json:"browser"`
	OS         OS      `json:"os"`
	DeviceType string  `json:"deviceType"`
	Vendor     string  `json:"vendor"`
}

// knownBrowsers are the parser's browser names worth showing. Anything else
// it reports (tools, bots, the product token of an unknown agent) falls
// through to token matching.
var knownBrowsers = map[string]bool{
	"Chrome":            true,
	"Chromium":          true,
	"Firefox":           true,
	"Safari":            true,
	"Edge":              true,
	"Opera":             true,
	"Internet Explorer": true,
	"Android":           true,
	"Vivaldi":           true,
}

// fallbackTokens are tried in order. Chrome agents also carry a Safari
// token, so Chrome comes first.
var fallbackTokens = []struct{ token, name string }{
	{"Firefox/", "Firefox"},
	{"Chrome/", "Chrome"},
	{"Safari/", "Safari"},
}

// ParseUserAgent classifies ua. It never fails: anything it cannot read is
// reported as "Unknown" on a desktop.
func ParseUserAgent(ua string) Info {
	ua = strings.TrimSpace(strings.ToValidUTF8(ua, ""))
	info := Info{
		Browser:    Browser{Name: unknown, Version: unknown},
		OS:         OS{Name: unknown, Version: unknown},
		DeviceType: TypeDesktop,
		Vendor:     unknown,
	}
	if ua == "" {
		return info
	}

	p := useragent.New(ua)
	info.Browser = browser(ua, p)

	osInfo := p.OSInfo()
	osName := strings.TrimSpace(osInfo.Name)
	if osName == "" {
		osName = osFromTokens(ua)
	}
	info.OS = OS{Name: orUnknown(osName), Version: orUnknown(osInfo.Version)}

	platform := p.Platform()
	info.DeviceType = deviceType(ua, platform, osName, p.Mobile())
	info.Vendor = vendor(platform, osName)
	return info
}

func browser(ua string, p *useragent.UserAgent) Browser {
	// Edge carries Chrome and Safari tokens too.
	for _, token := range []string{"Edg/", "Edge/"} {
		if v, ok := tokenVersion(ua, token); ok {
			return Browser{Name: "Edge", Version: v}
		}
	}
	if name, version := p.Browser(); knownBrowsers[name] {
		if strings.TrimSpace(version) == "" {
			version, _ = tokenVersion(ua, name+"/")
		}
		return Browser{Name: name, Version: orUnknown(version)}
	}
	for _, t := range fallbackTokens {
		if v, ok := tokenVersion(ua, t.token); ok {
			return Browser{Name: t.name, Version: v}
		}
	}
	return Browser{Name: unknown, Version: unknown}
}

// tokenVersion returns what follows token up to the next space, ';' or ')'.
func tokenVersion(ua, token string) (string, bool) {
	_, rest, ok := strings.Cut(ua, token)
	if !ok {
		return "", false
	}
	if end := strings.IndexAny(rest, " ;)"); end >= 0 {
		rest = rest[:end]
	}
	return orUnknown(rest), true
}

func osFromTokens(ua string) string {
	switch {
	case strings.Contains(ua, "Windows"):
		return "Windows"
	case strings.Contains(ua, "iPhone"), strings.Contains(ua, "iPad"):
		return "iOS"
	case strings.Contains(ua, "Mac OS"):
		return "Mac OS X"
	case strings.Contains(ua, "Android"):
		return "Android"
	case strings.Contains(ua, "Linux"):
		return "Linux"
	}
	return ""
}

func deviceType(ua, platform, osName string, mobile bool) string {
	lower := strings.ToLower(ua)
	switch {
	case platform == "iPad", strings.Contains(lower, "tablet"):
		return TypeTablet
	case strings.Contains(osName, "Android") && !strings.Contains(ua, "Mobile"):
		return TypeTablet
	case mobile:
		return TypeMobile
	}
	return TypeDesktop
}

func vendor(platform, osName string) string {
	switch {
	case platform == "iPhone", platform == "iPad", platform == "iPod", platform == "Macintosh":
		return "Apple"
	case strings.Contains(osName, "Android"), strings.Contains(osName, "Chrome OS"):
		return "Google"
	case strings.HasPrefix(osName, "Windows"):
		return "Microsoft"
	}
	return unknown
}

func orUnknown(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return unknown
	}
	return s
}

// Fingerprint condenses ua to browser family, browser major version, OS and
// device type. Minor browser updates keep the same value; a different
// machine presenting a copied device ID usually does not.
func Fingerprint(ua string) string {
	info := ParseUserAgent(ua)
	if info.Browser.Name == unknown && info.OS.Name == unknown {
		return ""
	}
	major, _, _ := strings.Cut(info.Browser.Version, ".")
	sum := sha256.Sum256([]byte(strings.Join([]string{
		info.Browser.Name, major, info.OS.Name, info.DeviceType,
	}, "|")))
	return hex.EncodeToString(sum[:16])
}
