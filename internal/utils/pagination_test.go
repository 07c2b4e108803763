package utils

import (
	"errors"
	"testing"
)

func TestParseLimit(t *testing.T) {
	cases := []struct {
		raw     string
		want    int
		wantErr error
	}{
		{"", 0, nil},
		{"5", 5, nil},
		{" 12 ", 12, nil},
		{"0", 0, nil},
		{"all", 0, nil},
		{"999999999999999999999999", 0, nil}, // overflow reads as no limit
		{"-1", 0, ErrNegativeLimit},
	}
	for _, tc := range cases {
		got, err := ParseLimit(tc.raw)
		if got != tc.want || !errors.Is(err, tc.wantErr) {
			t.Fatalf("ParseLimit(%q) = %d, %v; want %d, %v", tc.raw, got, err, tc.want, tc.wantErr)
		}
	}
}
