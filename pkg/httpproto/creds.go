package httpproto

import (
	"encoding/base64"
	"net/url"
	"strings"
)

// Creds is the result of credential extraction: Authorization:
// Basic fills both User and Password; Authorization: Bearer, the cookie
// access_token, and the query parameter access_token each fill Password
// only. The first source that yields anything wins — extraction stops at
// the first match in that order.
type Creds struct {
	User string
	Password string
}

// ExtractCreds walks the precedence order: Authorization: Basic, then
// Authorization: Bearer, then the access_token cookie, then the
// access_token query parameter.
func ExtractCreds(m *Message) Creds {
	if auth := m.Header("Authorization"); auth != "" {
		if rest, ok := cutPrefixFold(auth, "Basic "); ok {
			if user, pass, ok := decodeBasic(rest); ok {
				return Creds{User: user, Password: pass}
			}
		}
		if rest, ok := cutPrefixFold(auth, "Bearer "); ok {
			return Creds{Password: strings.TrimSpace(rest)}
		}
	}
	if cookie := cookieValue(m.Header("Cookie"), "access_token"); cookie != "" {
		return Creds{Password: cookie}
	}
	if m.Query != "" {
		if vals, err := url.ParseQuery(m.Query); err == nil {
			if tok := vals.Get("access_token"); tok != "" {
				return Creds{Password: tok}
			}
		}
	}
	return Creds{}
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return "", false
	}
	return s[len(prefix):], true
}

func decodeBasic(encoded string) (user, pass string, ok bool) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return "", "", false
	}
	i := strings.IndexByte(string(raw), ':')
	if i < 0 {
		return "", "", false
	}
	return string(raw[:i]), string(raw[i+1:]), true
}

func cookieValue(cookieHeader, name string) string {
	for _, part := range strings.Split(cookieHeader, ";") {
		part = strings.TrimSpace(part)
		k, v, ok := strings.Cut(part, "=")
		if ok && k == name {
			return v
		}
	}
	return ""
}
