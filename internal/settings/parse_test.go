package settings

import (
	"encoding/json"
	"testing"
)

func TestParseBool(t *testing.T) {
	cases := []struct {
		raw  string
		want bool
		ok   bool
	}{
		{`true`, true, true},
		{`false`, false, true},
		{`"yes"`, true, true},
		{`"off"`, false, true},
		{`" TRUE "`, true, true},
		{`1`, true, true},
		{`0`, false, true},
		{`2`, false, false},
		{`"maybe"`, false, false},
		{``, false, false},
	}
	for _, tc := range cases {
		got, ok := ParseBool(json.RawMessage(tc.raw))
		if got != tc.want || ok != tc.ok {
			t.Errorf("ParseBool(%q) = (%v, %v), want (%v, %v)", tc.raw, got, ok, tc.want, tc.ok)
		}
	}
}

func TestParseString(t *testing.T) {
	if got, ok := ParseString(json.RawMessage(`" padded "`)); !ok || got != "padded" {
		t.Fatalf("ParseString = (%q, %v)", got, ok)
	}
	if _, ok := ParseString(json.RawMessage(`42`)); ok {
		t.Fatalf("number must not parse as string")
	}
	if _, ok := ParseString(nil); ok {
		t.Fatalf("empty raw must not parse")
	}
}

func TestParseNonNegativeInt(t *testing.T) {
	cases := []struct {
		raw  string
		want int
		ok   bool
	}{
		{`60000`, 60000, true},
		{`"100"`, 100, true},
		{`" 5 "`, 5, true},
		{`0`, 0, true},
		{`12.0`, 12, true},
		{`-1`, 0, false},
		{`12.5`, 0, false},
		{`"abc"`, 0, false},
		{``, 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseNonNegativeInt(json.RawMessage(tc.raw))
		if ok != tc.ok || (ok && got != tc.want) {
			t.Errorf("ParseNonNegativeInt(%q) = (%d, %v), want (%d, %v)", tc.raw, got, ok, tc.want, tc.ok)
		}
	}
}
