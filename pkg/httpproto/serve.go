package httpproto

import (
	"fmt"
	"io"
	"io/fs"
	"mime"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/netforge-go/netforge/pkg/iobuf"
)

// FS is the minimal filesystem contract static serving needs, satisfied
// directly by fs.FS for an embed.FS or os.DirFS root.
type FS interface {
	fs.FS
}

// ServeOptions configures ServeDir/ServeFile.
type ServeOptions struct {
	Root FS
	MimeByExt map[string]string // extension (with dot) -> content-type override
	ExtraHeader map[string]string
}

// ServeDir serves the file named by m.URI under opts.Root, joining it to
// the directory listener path it was routed under (stripPrefix is removed
// from the front of m.URI first). It supports Range and a weak ETag
// derived from size and modification time.
func ServeDir(send *iobuf.Buffer, m *Message, stripPrefix string, opts ServeOptions) {
	uri := strings.TrimPrefix(m.URI, stripPrefix)
	uri = strings.TrimPrefix(uri, "/")
	if uri == "" {
		uri = "index.html"
	}
	uri = path.Clean(uri)
	if strings.HasPrefix(uri, "..") {
		Reply(send, 403, nil, "forbidden")
		return
	}
	ServeFile(send, m, uri, opts)
}

// ServeFile serves one named file from opts.Root.
func ServeFile(send *iobuf.Buffer, m *Message, name string, opts ServeOptions) {
	f, err := opts.Root.Open(name)
	if err != nil {
		Reply(send, 404, nil, "not found")
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil || info.IsDir() {
		Reply(send, 404, nil, "not found")
		return
	}

	etag := weakETag(info.Size(), info.ModTime())
	if inm := m.Header("If-None-Match"); inm != "" && inm == etag {
		send.Append([]byte(fmt.Sprintf("HTTP/1.1 304 Not Modified\r\nETag: %s\r\n\r\n", etag)))
		return
	}

	data, err := io.ReadAll(f)
	if err != nil {
		Reply(send, 500, nil, "read error")
		return
	}

	ct := contentType(name, opts.MimeByExt)
	headers := map[string]string{
		"Content-Type": ct,
		"ETag": etag,
		"Last-Modified": info.ModTime().UTC().Format(time.RFC1123),
		"Accept-Ranges": "bytes",
	}
	for k, v := range opts.ExtraHeader {
		headers[k] = v
	}

	if rng := m.Header("Range"); rng != "" {
		start, end, ok := parseRange(rng, len(data))
		if ok {
			headers["Content-Range"] = fmt.Sprintf("bytes %d-%d/%d", start, end, len(data))
			body := data[start : end+1]
			replyWithStatus(send, 206, headers, body)
			return
		}
	}
	replyWithStatus(send, 200, headers, data)
}

func replyWithStatus(send *iobuf.Buffer, status int, headers map[string]string, body []byte) {
	var b strings.Builder
	fmt.Fprintf(&b, "HTTP/1.1 %d %s\r\n", status, statusReason(status))
	for k, v := range headers {
		fmt.Fprintf(&b, "%s: %s\r\n", k, v)
	}
	fmt.Fprintf(&b, "Content-Length: %d\r\n\r\n", len(body))
	send.Append([]byte(b.String()))
	send.Append(body)
}

func statusReason(status int) string {
	switch status {
	case 200:
		return "OK"
	case 206:
		return "Partial Content"
	case 304:
		return "Not Modified"
	case 403:
		return "Forbidden"
	case 404:
		return "Not Found"
	default:
		return "OK"
	}
}

// weakETag builds a weak ETag from file size and modification time, the
// cheapest validator that doesn't require hashing file contents.
func weakETag(size int64, mod time.Time) string {
	return fmt.Sprintf(`W/"%x-%x"`, size, mod.Unix())
}

func contentType(name string, overrides map[string]string) string {
	ext := path.Ext(name)
	if overrides != nil {
		if ct, ok := overrides[ext]; ok {
			return ct
		}
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// parseRange parses a single-range "bytes=start-end" Range header value
// against a resource of the given total length.
func parseRange(header string, total int) (start, end int, ok bool) {
	const prefix = "bytes="
	if !strings.HasPrefix(header, prefix) {
		return 0, 0, false
	}
	spec := strings.TrimPrefix(header, prefix)
	if strings.Contains(spec, ",") {
		return 0, 0, false // multiple ranges not supported
	}
	parts := strings.SplitN(spec, "-", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	if parts[0] == "" {
		// suffix range: "-N" means the last N bytes
		n, err := strconv.Atoi(parts[1])
		if err != nil || n <= 0 {
			return 0, 0, false
		}
		if n > total {
			n = total
		}
		return total - n, total - 1, true
	}
	s, err := strconv.Atoi(parts[0])
	if err != nil || s < 0 || s >= total {
		return 0, 0, false
	}
	e := total - 1
	if parts[1] != "" {
		e, err = strconv.Atoi(parts[1])
		if err != nil || e < s {
			return 0, 0, false
		}
		if e >= total {
			e = total - 1
		}
	}
	return s, e, true
}
