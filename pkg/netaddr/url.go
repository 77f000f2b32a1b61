package netaddr

import (
	"strconv"
	"strings"

	"golang.org/x/net/idna"
)

// URL is the result of parsing the grammar:
//
//	[scheme://][user[:pass]@]host[:port][/uri]
//
// Every field except Scheme (lower-cased) and Host (converted to ASCII
// when it is an internationalized name) is a substring of the original
// input, so those fields do not allocate.
type URL struct {
	Scheme string
	User string
	Pass string
	Host string // normalized to ASCII (punycode) if it was an IDN
	Port int
	URI string // includes the leading "/", empty if none was given
	IsSSL bool
}

// DefaultPorts maps a scheme to its default port.
var DefaultPorts = map[string]int{
	"http": 80,
	"https": 443,
	"ws": 80,
	"wss": 443,
	"mqtt": 1883,
	"mqtts": 8883,
}

var sslSchemes = map[string]bool{
	"https": true,
	"wss": true,
	"mqtts": true,
}

// Parse parses s per the grammar above. IPv6 literal hosts must be
// bracketed, e.g. "tcp://[::1]:8080/".
func Parse(s string) (URL, error) {
	var u URL
	rest := s

	if i := strings.Index(rest, "://"); i >= 0 {
		// A scheme is only a run of letters/digits/+/-/.; if the prefix
		// before "://" doesn't look like one, treat the whole thing as
		// schemeless (so "localhost:8080/a://b" isn't misparsed).
		if isScheme(rest[:i]) {
			u.Scheme = strings.ToLower(rest[:i])
			rest = rest[i+3:]
		}
	}

	if i := strings.Index(rest, "/"); i >= 0 {
		u.URI = rest[i:]
		rest = rest[:i]
	}

	if i := strings.LastIndex(rest, "@"); i >= 0 {
		cred := rest[:i]
		rest = rest[i+1:]
		if j := strings.Index(cred, ":"); j >= 0 {
			u.User, u.Pass = cred[:j], cred[j+1:]
		} else {
			u.User = cred
		}
	}

	host, port, err := splitHostPort(rest)
	if err != nil {
		return URL{}, err
	}
	u.Host = host
	u.Port = port

	if ascii, err := idna.Lookup.ToASCII(u.Host); err == nil {
		u.Host = ascii
	}

	if u.Port == 0 {
		u.Port = DefaultPorts[u.Scheme]
	}
	u.IsSSL = sslSchemes[u.Scheme]

	return u, nil
}

// splitHostPort splits "host:port" respecting bracketed IPv6 literals.
func splitHostPort(s string) (host string, port int, err error) {
	if strings.HasPrefix(s, "[") {
		end := strings.Index(s, "]")
		if end < 0 {
			return "", 0, &parseError{"unterminated IPv6 literal"}
		}
		host = s[1:end]
		rest := s[end+1:]
		if strings.HasPrefix(rest, ":") {
			p, perr := strconv.Atoi(rest[1:])
			if perr != nil {
				return "", 0, &parseError{"invalid port"}
			}
			port = p
		}
		return host, port, nil
	}

	if i := strings.LastIndex(s, ":"); i >= 0 && !strings.Contains(s[i+1:], ":") {
		p, perr := strconv.Atoi(s[i+1:])
		if perr == nil {
			return s[:i], p, nil
		}
	}
	return s, 0, nil
}

func isScheme(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		case (r == '+' || r == '-' || r == '.') && i > 0:
		default:
			return false
		}
	}
	return true
}

type parseError struct{ msg string }

func (e *parseError) Error() string { return "netaddr: " + e.msg }

// Join reassembles scheme, user, pass, host, port and uri back into a URL
// string, eliding the port when it equals the scheme's default.
func (u URL) Join() string {
	var b strings.Builder
	if u.Scheme != "" {
		b.WriteString(u.Scheme)
		b.WriteString("://")
	}
	if u.User != "" {
		b.WriteString(u.User)
		if u.Pass != "" {
			b.WriteByte(':')
			b.WriteString(u.Pass)
		}
		b.WriteByte('@')
	}
	if strings.Contains(u.Host, ":") {
		b.WriteByte('[')
		b.WriteString(u.Host)
		b.WriteByte(']')
	} else {
		b.WriteString(u.Host)
	}
	if u.Port != 0 && u.Port != DefaultPorts[u.Scheme] {
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(u.Port))
	}
	b.WriteString(u.URI)
	return b.String()
}
