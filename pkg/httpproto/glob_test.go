package httpproto

import "testing"

func TestMatchURI(t *testing.T) {
	cases := []struct {
		pattern, uri string
		want bool
	}{
		{"/api/*", "/api/users", true},
		{"/api/*", "/api/users/1", false},
		{"/api/#", "/api/users/1", true},
		{"/file?.txt", "/file1.txt", true},
		{"/file?.txt", "/file12.txt", false},
		{"/exact", "/exact", true},
		{"/exact", "/exactly", false},
	}
	for _, c := range cases {
		if got := MatchURI(c.pattern, c.uri); got != c.want {
			t.Errorf("MatchURI(%q, %q) = %v, want %v", c.pattern, c.uri, got, c.want)
		}
	}
}
