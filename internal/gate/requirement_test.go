package gate

import (
	"testing"

	"github.com/Masterminds/semver/v3"

	"github.com/danmuck/cictl/internal/testutil/testlog"
)

func TestSatisfies(t *testing.T) {
	testlog.Start(t)
	cases := []struct {
		req     string
		version string
		want    bool
	}{
		{"", "3.1.0", true},
		{">= 0", "2.0.0", true},
		{">= 2.7", "3.1.0", true},
		{">= 2.7", "2.6.5", false},
		{">= 2.5, < 4", "3.4.2", true},
		{">= 2.5, < 4", "4.0.1", false},
		{"~> 3.1", "3.9.9", true},
		{"~> 3.1", "4.0.0", false},
		{"~> 3.1.2", "3.1.9", true},
		{"~> 3.1.2", "3.2.0", false},
		{"~> 3", "3.9.0", true},
		{"2.7", "2.7.0", true},
		{">= 2.7.0.1", "3.0.0", true},
	}
	for _, tc := range cases {
		got, err := satisfies(tc.req, semver.MustParse(tc.version))
		if err != nil {
			t.Fatalf("satisfies(%q, %s): %v", tc.req, tc.version, err)
		}
		if got != tc.want {
			t.Fatalf("satisfies(%q, %s) = %v, want %v", tc.req, tc.version, got, tc.want)
		}
	}
}

func TestSatisfiesRejectsUnknownOperator(t *testing.T) {
	testlog.Start(t)
	if _, err := satisfies("=~ 2.7", semver.MustParse("3.0.0")); err == nil {
		t.Fatal("satisfies accepted an unknown operator")
	}
	if _, err := satisfies("garbage", semver.MustParse("3.0.0")); err == nil {
		t.Fatal("satisfies accepted a requirement with no operand")
	}
}
