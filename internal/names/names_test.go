package names

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIncrementName(t *testing.T) {
	cases := []struct {
		name     string
		taken    []string
		template string
		want     string
	}{
		{"foo", []string{"bar"}, "", "foo"},
		{"foo", []string{"foo", "bar"}, "", "foo (1)"},
		{"foo", []string{"foo", "bar", "foo (1)", "foo (2)"}, "", "foo (3)"},
		{"foo (2)", []string{"foo", "foo (1)", "foo (2)"}, "", "foo (3)"},
		{"foo (2)", []string{"bar"}, "", "foo"},
		{"page", []string{"page", "page-1"}, "{{name}}-{{n}}", "page-2"},
		{"a.b", []string{"a.b"}, "{{name}}.{{n}}", "a.b.1"},
	}
	for _, tc := range cases {
		got := IncrementName(tc.name, tc.taken, tc.template)
		assert.Equal(t, tc.want, got, "IncrementName(%q, %v, %q)", tc.name, tc.taken, tc.template)
		assert.NotContains(t, tc.taken, got)
	}
}

func TestIncrementName_NeverReturnsTaken(t *testing.T) {
	taken := []string{"x"}
	for i := 0; i < 20; i++ {
		next := IncrementName("x", taken, "")
		assert.NotContains(t, taken, next)
		taken = append(taken, next)
	}
	assert.Equal(t, "x (20)", taken[len(taken)-1])
}
