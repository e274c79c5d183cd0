package http

import (
	"crypto"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net/http"
	"slices"

	pkcs12 "software.sslmate.com/src/go-pkcs12"
)

// LoadPKCS12 decodes a PKCS#12 bundle holding a private key and its
// certificate chain into a TLS client certificate. Both the legacy 3DES/RC2
// and the PBES2/AES encodings are accepted. The certificate matching the key
// becomes the leaf, the others follow in bundle order as intermediates.
func LoadPKCS12(bundle []byte, password string) (tls.Certificate, error) {
	key, cert, cas, err := pkcs12.DecodeChain(bundle, password)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("decoding PKCS#12 bundle: %w", err)
	}
	signer, ok := key.(crypto.Signer)
	if !ok {
		return tls.Certificate{}, fmt.Errorf("PKCS#12 bundle key of type %T cannot sign", key)
	}
	pub, ok := signer.Public().(interface{ Equal(crypto.PublicKey) bool })
	if !ok {
		return tls.Certificate{}, fmt.Errorf("unsupported PKCS#12 public key type %T", signer.Public())
	}

	certs := append([]*x509.Certificate{cert}, cas...)
	i := slices.IndexFunc(certs, func(c *x509.Certificate) bool { return pub.Equal(c.PublicKey) })
	if i < 0 {
		return tls.Certificate{}, errors.New("no certificate in PKCS#12 bundle matches its key")
	}
	leaf := certs[i]
	chain := append([]*x509.Certificate{leaf}, slices.Delete(certs, i, i+1)...)

	pair := tls.Certificate{PrivateKey: key, Leaf: leaf}
	for _, c := range chain {
		pair.Certificate = append(pair.Certificate, c.Raw)
	}
	return pair, nil
}

// NewMutualTLSClient returns a HTTP client that presents cert to servers
// requesting client authentication. A nil roots pool uses the system roots.
func NewMutualTLSClient(cert tls.Certificate, roots *x509.CertPool) *http.Client {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.TLSClientConfig = &tls.Config{
		MinVersion:   tls.VersionTLS12,
		Certificates: []tls.Certificate{cert},
		RootCAs:      roots,
	}
	return &http.Client{Transport: tr}
}
