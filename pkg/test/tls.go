package test

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"net"
	"testing"
	"time"
)

// TLSFixture holds a self-signed server certificate and a pool trusting it.
type TLSFixture struct {
	Server *tls.Config    // Presents the certificate.
	Roots  *x509.CertPool // Trusts the certificate.
}

// ClientConfig returns a client TLS config trusting the fixture certificate.
func (f *TLSFixture) ClientConfig() *tls.Config {
	return &tls.Config{RootCAs: f.Roots}
}

// GenerateTLS creates a certificate valid for localhost and 127.0.0.1.
func GenerateTLS(t testing.TB) *TLSFixture {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("Failed to generate key; %v", err)
	}
	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject: pkix.Name{
			CommonName: "localhost",
		},
		DNSNames:              []string{"localhost"},
		IPAddresses:           []net.IP{net.ParseIP("127.0.0.1")},
		NotBefore:             time.Now().Add(-time.Minute),
		NotAfter:              time.Now().Add(24 * time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage: x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature |
			x509.KeyUsageCertSign,
		ExtKeyUsage: []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &priv.PublicKey, priv)
	if err != nil {
		t.Fatalf("Certificate generation failed; %v", err)
	}
	leaf, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("Certificate parse failed; %v", err)
	}
	roots := x509.NewCertPool()
	roots.AddCert(leaf)
	return &TLSFixture{
		Server: &tls.Config{
			Certificates: []tls.Certificate{{
				Certificate: [][]byte{der},
				PrivateKey:  priv,
				Leaf:        leaf,
			}},
		},
		Roots: roots,
	}
}
