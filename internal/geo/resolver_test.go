package geo

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/tbourn/go-link-tracker/internal/config"
)

func TestIsPublic(t *testing.T) {
	cases := map[string]bool{
		"8.8.8.8":                  true,
		"203.0.113.7":              true,
		" 1.1.1.1 ":                true,
		"2001:4860:4860::8888":     true,
		"::ffff:8.8.4.4":           true,
		"Unknown":                  false,
		"":                         false,
		"not-an-ip":                false,
		"127.0.0.1":                false,
		"::1":                      false,
		"10.1.2.3":                 false,
		"172.16.0.1":               false,
		"172.31.255.255":           false,
		"192.168.1.1":              false,
		"169.254.10.10":            false,
		"100.64.0.1":               false,
		"0.0.0.0":                  false,
		"::":                       false,
		"224.0.0.1":                false,
		"fd12:3456:789a::1":        false,
		"fe80::1%eth0":             false,
		"::ffff:192.168.0.1":       false,
		"172.32.0.1":               true, // just outside 172.16/12
		"2606:4700:4700::1111":     true,
		"ff02::1":                  false,
		"fc00::1":                  false,
		"192.169.0.1":              true,
		"11.0.0.1":                 true,
		"100.128.0.1":              true,
		"9.255.255.255":            true,
		"169.253.255.255":          true,
		"2001:db8::1":              true, // documentation range is still global unicast
		"1.2.3.4:80":               false,
		"[2001:4860:4860::8888]":   false,
		"::ffff:127.0.0.1":         false,
		"fe80::abcd":               false,
		"192.168.255.255":          false,
		"10.255.255.255":           false,
		"127.255.255.254":          false,
		"255.255.255.255":          false,
		"239.255.255.250":          false,
		"ff00::":                   false,
		"64:ff9b::808:808":         true,
		"2002:c000:0204::1":        true,
		"::ffff:100.64.1.1":        false,
		"100.127.255.255":          false,
		"fdff:ffff:ffff:ffff::1":   false,
		"2a00:1450:4001:80b::200e": true,
	}
	for ip, want := range cases {
		if got := IsPublic(ip); got != want {
			t.Errorf("IsPublic(%q)=%v want %v", ip, got, want)
		}
	}
}

func geoCfg(provider string) config.GeoConfig {
	return config.GeoConfig{
		Provider: provider,
		Endpoint: "http://127.0.0.1:1/json/%s",
		Timeout:  time.Second,
		CacheTTL: time.Minute,
		RPS:      1,
		Burst:    1,
		Workers:  1,
	}
}

func TestNew_Providers(t *testing.T) {
	r, err := New(geoCfg(config.GeoProviderNone))
	if err != nil || r != nil {
		t.Fatalf("none: expected (nil, nil), got (%v, %v)", r, err)
	}

	r, err = New(geoCfg(config.GeoProviderHTTP))
	if err != nil {
		t.Fatalf("http: %v", err)
	}
	cr, ok := r.(*CachedResolver)
	if !ok {
		t.Fatalf("http: expected *CachedResolver, got %T", r)
	}
	if _, ok := cr.next.(*HTTPResolver); !ok {
		t.Fatalf("http: expected HTTPResolver behind cache, got %T", cr.next)
	}
	if cr.limiter == nil {
		t.Fatalf("http: expected limiter when RPS > 0")
	}
	if err := cr.Close(); err != nil {
		t.Fatalf("Close on http resolver: %v", err)
	}

	mm := geoCfg(config.GeoProviderMaxMind)
	mm.DBPath = filepath.Join(t.TempDir(), "missing.mmdb")
	if _, err := New(mm); err == nil {
		t.Fatalf("maxmind: expected error for missing database")
	}

	if _, err := New(geoCfg("carrier-pigeon")); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}

func TestOpenMaxMind_BadPath(t *testing.T) {
	if _, err := OpenMaxMind(filepath.Join(t.TempDir(), "nope.mmdb")); err == nil {
		t.Fatalf("expected error opening missing database")
	}
}
