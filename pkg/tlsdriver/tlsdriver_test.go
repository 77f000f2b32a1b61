package tlsdriver

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"testing"
	"time"
)

func genSelfSigned(t *testing.T) (certPEM, keyPEM []byte) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("genkey: %v", err)
	}
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject: pkix.Name{CommonName: "localhost"},
		NotBefore: time.Now().Add(-time.Hour),
		NotAfter: time.Now().Add(time.Hour),
		DNSNames: []string{"localhost"},
		KeyUsage: x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage: []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("createcert: %v", err)
	}
	certPEM = pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM = pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	return
}

func pumpHandshake(t *testing.T, client, server *Driver) {
	t.Helper()
	for i := 0; i < 50; i++ {
		cStep, cErr := client.Handshake()
		if cErr != nil {
			t.Fatalf("client handshake: %v", cErr)
		}
		if out := client.Pending(); len(out) > 0 {
			server.Feed(out)
		}
		sStep, sErr := server.Handshake()
		if sErr != nil {
			t.Fatalf("server handshake: %v", sErr)
		}
		if out := server.Pending(); len(out) > 0 {
			client.Feed(out)
		}
		if cStep == Done && sStep == Done {
			return
		}
	}
	t.Fatalf("handshake did not complete in bounded steps")
}

func TestHandshakeAndDataExchange(t *testing.T) {
	certPEM, keyPEM := genSelfSigned(t)

	server, err := New(Opts{
		IsClient: false,
		CertPEM: string(certPEM),
		KeyPEM: string(keyPEM),
		MinVersion: tls.VersionTLS12,
	})
	if err != nil {
		t.Fatalf("server New: %v", err)
	}
	client, err := New(Opts{
		IsClient: true,
		ServerName: "localhost",
		InsecureSkipVerify: true,
		MinVersion: tls.VersionTLS12,
	})
	if err != nil {
		t.Fatalf("client New: %v", err)
	}

	pumpHandshake(t, client, server)

	if _, err := client.Write([]byte("hello")); err != nil {
		t.Fatalf("client write: %v", err)
	}
	server.Feed(client.Pending())

	buf := make([]byte, 16)
	n, err := server.Read(buf)
	if err != nil {
		t.Fatalf("server read: %v", err)
	}
	if string(buf[:n]) != "hello" {
		t.Fatalf("got %q", buf[:n])
	}
}

func TestTwoWayAuthDetection(t *testing.T) {
	o := Opts{CAPEM: "ca", CertPEM: "cert", KeyPEM: "key"}
	if !o.TwoWayAuth() {
		t.Fatalf("expected two-way auth when CA and cert+key are set")
	}
	if (Opts{CertPEM: "cert", KeyPEM: "key"}).TwoWayAuth() {
		t.Fatalf("expected no two-way auth without a CA")
	}
}

func TestApplyProfile(t *testing.T) {
	var o Opts
	o.ApplyProfile(ProfileModern)
	if o.MinVersion != tls.VersionTLS13 || len(o.CipherSuites) != 0 {
		t.Fatalf("modern profile should not set explicit cipher suites: %+v", o)
	}
	o.ApplyProfile(ProfileSecure)
	if o.MinVersion != tls.VersionTLS12 || len(o.CipherSuites) == 0 {
		t.Fatalf("secure profile should set cipher suites: %+v", o)
	}
}
