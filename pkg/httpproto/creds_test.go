package httpproto

import "testing"

func TestExtractCredsBasic(t *testing.T) {
	data := []byte("GET / HTTP/1.1\r\nAuthorization: Basic dXNlcjpwYXNz\r\n\r\n")
	m, err := Parse(data, false)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	creds := ExtractCreds(m)
	if creds.User != "user" || creds.Password != "pass" {
		t.Fatalf("got %+v", creds)
	}
}

func TestExtractCredsBearer(t *testing.T) {
	data := []byte("GET / HTTP/1.1\r\nAuthorization: Bearer tok123\r\n\r\n")
	m, _ := Parse(data, false)
	creds := ExtractCreds(m)
	if creds.Password != "tok123" || creds.User != "" {
		t.Fatalf("got %+v", creds)
	}
}

func TestExtractCredsCookieBeatsQuery(t *testing.T) {
	data := []byte("GET /?access_token=fromquery HTTP/1.1\r\nCookie: access_token=fromcookie\r\n\r\n")
	m, _ := Parse(data, false)
	creds := ExtractCreds(m)
	if creds.Password != "fromcookie" {
		t.Fatalf("got %+v, want cookie to win", creds)
	}
}

func TestExtractCredsQueryFallback(t *testing.T) {
	data := []byte("GET /?access_token=fromquery HTTP/1.1\r\n\r\n")
	m, _ := Parse(data, false)
	creds := ExtractCreds(m)
	if creds.Password != "fromquery" {
		t.Fatalf("got %+v", creds)
	}
}
