package httpproto

import "strings"

// MultipartPart is one part of a multipart/form-data body, views into the
// body string NextMultipart was called on.
type MultipartPart struct {
	Name string
	Filename string
	Body string
}

// Boundary extracts the boundary parameter from a Content-Type header
// value, or "" if the header isn't multipart/form-data with a boundary.
func Boundary(contentType string) string {
	if !strings.HasPrefix(contentType, "multipart/form-data") {
		return ""
	}
	i := strings.Index(contentType, "boundary=")
	if i < 0 {
		return ""
	}
	b := contentType[i+len("boundary="):]
	if j := strings.IndexByte(b, ';'); j >= 0 {
		b = b[:j]
	}
	return strings.Trim(strings.TrimSpace(b), `"`)
}

// NextMultipart iterates the parts of body delimited by boundary: called
// repeatedly with the offset returned by the previous call (0 to start),
// it returns the next part and the offset to resume from, or ok=false once
// parts are exhausted.
func NextMultipart(body, boundary string, offset int) (part MultipartPart, nextOffset int, ok bool) {
	delim := "--" + boundary
	rest := body[offset:]
	start := strings.Index(rest, delim)
	if start < 0 {
		return MultipartPart{}, 0, false
	}
	start += len(delim)
	if strings.HasPrefix(rest[start:], "--") {
		return MultipartPart{}, 0, false // closing delimiter
	}
	rest = rest[start:]
	rest = strings.TrimPrefix(rest, "\r\n")

	hdrEnd := strings.Index(rest, "\r\n\r\n")
	if hdrEnd < 0 {
		return MultipartPart{}, 0, false
	}
	headerBlock := rest[:hdrEnd]
	bodyStart := hdrEnd + 4

	nextDelimIdx := strings.Index(rest[bodyStart:], "--"+boundary)
	if nextDelimIdx < 0 {
		return MultipartPart{}, 0, false
	}
	partBody := rest[bodyStart : bodyStart+nextDelimIdx]
	partBody = strings.TrimSuffix(partBody, "\r\n")

	name, filename := parseContentDisposition(headerBlock)

	consumed := offset + (len(body[offset:]) - len(rest)) + bodyStart + nextDelimIdx
	return MultipartPart{Name: name, Filename: filename, Body: partBody}, consumed, true
}

func parseContentDisposition(headerBlock string) (name, filename string) {
	for _, line := range strings.Split(headerBlock, "\r\n") {
		k, v, ok := strings.Cut(line, ":")
		if !ok || !strings.EqualFold(strings.TrimSpace(k), "Content-Disposition") {
			continue
		}
		for _, field := range strings.Split(v, ";") {
			field = strings.TrimSpace(field)
			if fn, ok := cutQuoted(field, "name="); ok {
				name = fn
			}
			if fn, ok := cutQuoted(field, "filename="); ok {
				filename = fn
			}
		}
	}
	return name, filename
}

func cutQuoted(field, prefix string) (string, bool) {
	if !strings.HasPrefix(field, prefix) {
		return "", false
	}
	return strings.Trim(field[len(prefix):], `"`), true
}
