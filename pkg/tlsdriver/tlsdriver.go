// Package tlsdriver implements a pluggable TLS engine contract: init from
// Opts, step a non-blocking handshake, then become a transparent byte pipe.
// The engine itself is crypto/tls; this package defines what the reactor is
// allowed to assume about it.
package tlsdriver

import (
	"bytes"
	"crypto/tls"
	"crypto/x509"
	"fmt"

	"github.com/netforge-go/netforge/pkg/errs"
)

// Step is the outcome of one Handshake call.
type Step int

const (
	NeedRead Step = iota
	NeedWrite
	Done
	HandshakeError
)

// Opts configures a TLS driver instance. CA/Cert/Key accept either a
// filesystem path or inline PEM bytes in CAPEM/CertPEM/KeyPEM; the path
// fields take precedence when both are set.
type Opts struct {
	CAPath, CAPEM string
	CertPath, CertPEM string
	KeyPath, KeyPEM string
	CipherSuites []uint16
	MinVersion uint16
	MaxVersion uint16
	ServerName string
	IsClient bool
	InsecureSkipVerify bool
}

// TwoWayAuth reports whether both a CA and a client certificate are
// configured.
func (o Opts) TwoWayAuth() bool {
	hasCA := o.CAPath != "" || o.CAPEM != ""
	hasCert := (o.CertPath != "" || o.CertPEM != "") && (o.KeyPath != "" || o.KeyPEM != "")
	return hasCA && hasCert
}

// Driver drives one connection's TLS state: the handshake while it is in
// progress, then a transparent byte pipe. It never touches the socket directly —
// Handshake/Read/Write operate purely on in-memory buffers the reactor feeds it,
// via crypto/tls.Conn wired to the in-memory memConn net.Conn adapter.
type Driver struct {
	conf *tls.Config
	hs *tls.Conn
	inbuf bytes.Buffer
	outbuf bytes.Buffer
	adapter *memConn
	done bool
}

// New builds a Driver from Opts. Certificate/key loading failures surface
// immediately as a *errs.Error of type TypeTLS.
func New(o Opts) (*Driver, error) {
	conf := &tls.Config{
		ServerName: o.ServerName,
		InsecureSkipVerify: o.InsecureSkipVerify,
		MinVersion: o.MinVersion,
		MaxVersion: o.MaxVersion,
		CipherSuites: o.CipherSuites,
	}

	if o.CAPath != "" || o.CAPEM != "" {
		pool := x509.NewCertPool()
		pem := []byte(o.CAPEM)
		var err error
		if o.CAPath != "" {
			pem, err = readPEM(o.CAPath)
			if err != nil {
				return nil, errs.NewTLSError("load-ca", err)
			}
		}
		if !pool.AppendCertsFromPEM(pem) {
			return nil, errs.NewTLSError("load-ca", fmt.Errorf("no certificates found"))
		}
		conf.RootCAs = pool
		conf.ClientCAs = pool
	}

	if (o.CertPath != "" || o.CertPEM != "") && (o.KeyPath != "" || o.KeyPEM != "") {
		certPEM, keyPEM := []byte(o.CertPEM), []byte(o.KeyPEM)
		var err error
		if o.CertPath != "" {
			if certPEM, err = readPEM(o.CertPath); err != nil {
				return nil, errs.NewTLSError("load-cert", err)
			}
		}
		if o.KeyPath != "" {
			if keyPEM, err = readPEM(o.KeyPath); err != nil {
				return nil, errs.NewTLSError("load-key", err)
			}
		}
		cert, err := tls.X509KeyPair(certPEM, keyPEM)
		if err != nil {
			return nil, errs.NewTLSError("parse-keypair", err)
		}
		conf.Certificates = []tls.Certificate{cert}
		if o.TwoWayAuth() {
			conf.ClientAuth = tls.RequireAndVerifyClientCert
		}
	}

	adapter := newMemConn()
	var tconn *tls.Conn
	if o.IsClient {
		tconn = tls.Client(adapter, conf)
	} else {
		tconn = tls.Server(adapter, conf)
	}

	return &Driver{conf: conf, hs: tconn, adapter: adapter}, nil
}

// Feed appends bytes the socket just received into the driver's inbound
// staging area, to be consumed by the next Handshake/Read.
func (d *Driver) Feed(p []byte) {
	d.adapter.feedIn(p)
}

// Pending returns and clears bytes the driver wants written to the socket.
func (d *Driver) Pending() []byte {
	return d.adapter.drainOut()
}

// Handshake advances the TLS handshake by one non-blocking step.
func (d *Driver) Handshake() (Step, error) {
	if d.done {
		return Done, nil
	}
	err := d.hs.Handshake()
	if err == nil {
		d.done = true
		return Done, nil
	}
	switch {
	case d.adapter.wantsWrite():
		return NeedWrite, nil
	case d.adapter.wantsRead():
		return NeedRead, nil
	default:
		return HandshakeError, errs.NewTLSError("handshake", err)
	}
}

// Read decrypts application data from the peer. Call only after Handshake
// reports Done.
func (d *Driver) Read(dst []byte) (int, error) {
	n, err := d.hs.Read(dst)
	if err != nil && d.adapter.wantsRead() {
		return n, nil
	}
	return n, err
}

// Write encrypts p for sending to the peer; the ciphertext is retrieved via
// Pending. Call only after Handshake reports Done.
func (d *Driver) Write(p []byte) (int, error) {
	return d.hs.Write(p)
}

// Free releases the underlying TLS session.
func (d *Driver) Free() error {
	return d.hs.Close()
}

func readPEM(path string) ([]byte, error) {
	return readFile(path)
}
