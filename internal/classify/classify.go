// Package classify derives browser, OS, engine and device labels from a
// User-Agent string.
//
// Each dimension is an ordered list of rules; the first rule whose pattern
// matches wins, so more specific products (Edge, Opera, Samsung Internet)
// are listed before the engines they are built on (Chrome, Safari). The
// result is a pure function of the input: Parse never fails and returns
// "Unknown" for anything it cannot place.
package classify

import (
	"regexp"
	"strings"

	ua "github.com/mileusna/useragent"

	"github.com/tbourn/go-link-tracker/internal/domain"
)

// Unknown is the label used for every field that could not be classified.
const Unknown = "Unknown"

// Device labels.
const (
	DeviceDesktop = "Desktop"
	DeviceMobile  = "Mobile"
	DeviceTablet  = "Tablet"
)

// rule maps a pattern to a label. When the pattern has a capture group, its
// first submatch is the version; norm rewrites it when set.
type rule struct {
	name string
	re   *regexp.Regexp
	norm func(string) string
}

func (r rule) match(s string) (name, version string, ok bool) {
	m := r.re.FindStringSubmatch(s)
	if m == nil {
		return "", "", false
	}
	version = Unknown
	if len(m) > 1 && m[1] != "" {
		version = m[1]
		if r.norm != nil {
			version = r.norm(version)
		}
	}
	return r.name, version, true
}

func firstMatch(rules []rule, s string) (string, string) {
	for _, r := range rules {
		if name, version, ok := r.match(s); ok {
			return name, version
		}
	}
	return Unknown, Unknown
}

var browserRules = []rule{
	{name: "Edge", re: regexp.MustCompile(`(?:Edg|Edge|EdgA|EdgiOS)/([\d.]+)`)},
	{name: "Opera", re: regexp.MustCompile(`(?:OPR|OPiOS|Opera)/([\d.]+)`)},
	{name: "Samsung Internet", re: regexp.MustCompile(`SamsungBrowser/([\d.]+)`)},
	{name: "Yandex", re: regexp.MustCompile(`YaBrowser/([\d.]+)`)},
	{name: "Vivaldi", re: regexp.MustCompile(`Vivaldi/([\d.]+)`)},
	{name: "Firefox", re: regexp.MustCompile(`(?:Firefox|FxiOS)/([\d.]+)`)},
	{name: "Chrome", re: regexp.MustCompile(`(?:Chrome|CriOS)/([\d.]+)`)},
	{name: "Safari", re: regexp.MustCompile(`Version/([\d.]+).*Safari/`)},
	{name: "Safari", re: regexp.MustCompile(`Safari/`)},
	{name: "Internet Explorer", re: regexp.MustCompile(`MSIE ([\d.]+)`)},
	{name: "Internet Explorer", re: regexp.MustCompile(`Trident/.*rv:([\d.]+)`)},
}

var osRules = []rule{
	{name: "Windows", re: regexp.MustCompile(`Windows NT ([\d.]+)`), norm: windowsRelease},
	{name: "iOS", re: regexp.MustCompile(`(?:iPhone|iPad|iPod).*? OS ([\d_]+)`), norm: underscoresToDots},
	{name: "Android", re: regexp.MustCompile(`Android ([\d.]+)`)},
	{name: "Android", re: regexp.MustCompile(`Android`)},
	{name: "Chrome OS", re: regexp.MustCompile(`CrOS`)},
	{name: "macOS", re: regexp.MustCompile(`Mac OS X ([\d_.]+)`), norm: underscoresToDots},
	{name: "Linux", re: regexp.MustCompile(`Linux`)},
}

var engineRules = []rule{
	// Every iOS browser is required to use WebKit.
	{name: "WebKit", re: regexp.MustCompile(`iPhone|iPad|iPod`)},
	{name: "Trident", re: regexp.MustCompile(`Trident/`)},
	{name: "EdgeHTML", re: regexp.MustCompile(`Edge/`)},
	{name: "Presto", re: regexp.MustCompile(`Presto/`)},
	{name: "Blink", re: regexp.MustCompile(`(?:Chrome|Chromium)/`)},
	{name: "WebKit", re: regexp.MustCompile(`AppleWebKit/`)},
	{name: "Gecko", re: regexp.MustCompile(`Gecko/`)},
}

// toolRe catches crawlers and HTTP tools useragent does not flag. Bare
// "bot" is not enough: device names such as "Cubot" or "Robot" contain it,
// so only crawler-shaped tokens (Foobot/1.0, Foobot; or a +http contact
// URL) count.
var toolRe = regexp.MustCompile(`(?i)bot[/;)]|\+https?://|crawl|spider|slurp|headless|curl/|wget/|python-requests|go-http-client`)

var desktopOS = map[string]bool{
	"Windows":   true,
	"macOS":     true,
	"Linux":     true,
	"Chrome OS": true,
}

// Parse classifies userAgent. An empty string yields Unknown everywhere.
func Parse(userAgent string) domain.UAInfo {
	s := strings.TrimSpace(userAgent)
	if s == "" {
		return domain.UAInfo{
			Browser:        Unknown,
			BrowserVersion: Unknown,
			OS:             Unknown,
			OSVersion:      Unknown,
			Device:         Unknown,
			Engine:         Unknown,
		}
	}

	var info domain.UAInfo
	info.Browser, info.BrowserVersion = firstMatch(browserRules, s)
	info.OS, info.OSVersion = firstMatch(osRules, s)
	info.Engine, _ = firstMatch(engineRules, s)
	parsed := ua.Parse(s)
	info.Device = device(parsed, s, info.OS)
	info.Bot = parsed.Bot || toolRe.MatchString(s)
	return info
}

func device(parsed ua.UserAgent, s, os string) string {
	switch {
	// useragent calls every Android device mobile; tablets are the ones
	// that leave out the Mobile token.
	case os == "Android" && !strings.Contains(s, "Mobile"):
		return DeviceTablet
	case parsed.Tablet:
		return DeviceTablet
	case parsed.Mobile:
		return DeviceMobile
	case parsed.Desktop, desktopOS[os]:
		return DeviceDesktop
	default:
		return Unknown
	}
}

func underscoresToDots(v string) string {
	return strings.ReplaceAll(v, "_", ".")
}

var windowsReleases = map[string]string{
	"10.0": "10",
	"6.3":  "8.1",
	"6.2":  "8",
	"6.1":  "7",
	"6.0":  "Vista",
	"5.2":  "XP",
	"5.1":  "XP",
}

// windowsRelease maps an NT kernel version to its marketing name. Windows 11
// still reports NT 10.0.
func windowsRelease(nt string) string {
	if r, ok := windowsReleases[nt]; ok {
		return r
	}
	return nt
}
