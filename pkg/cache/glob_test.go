package cache_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/tenantkit/pkg/cache"
)

func TestMatchGlob(t *testing.T) {
	t.Parallel()

	tests := []struct {
		pattern string
		s       string
		want    bool
	}{
		{"", "", true},
		{"*", "", true},
		{"*", "anything:at/all", true},
		{"tenant:a:*", "tenant:a:products:p1", true},
		{"tenant:a:*", "tenant:b:products:p1", false},
		{"tenant:a:products:*", "tenant:a:products:a/b", true},
		{"tenant:a:products:*", "tenant:a:orders:1", false},
		{"a?c", "abc", true},
		{"a?c", "ac", false},
		{"h[ae]llo", "hello", true},
		{"h[ae]llo", "hillo", false},
		{"h[^e]llo", "hallo", true},
		{"h[^e]llo", "hello", false},
		{"h[a-b]llo", "hbllo", true},
		{`key\*`, "key*", true},
		{`key\*`, "keyX", false},
		{"*:p1", "tenant:a:products:p1", true},
		{"a*b*c", "aXXbYYc", true},
		{"a*b*c", "aXXbYY", false},
		{"[abc", "a", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, cache.MatchGlob(tt.pattern, tt.s), "pattern %q, input %q", tt.pattern, tt.s)
	}
}
