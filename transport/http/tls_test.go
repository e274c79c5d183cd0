package http

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ubirch/go-certify/testing/helpers"
)

const (
	fixturePassword = "fixture-secret"
	fixtureLeafCN   = "5d8e3f2a-6b1c-4e7d-9a0f-2c4b6d8e0f13"
)

func TestMutualTLSClient(t *testing.T) {
	cert, leaf := helpers.SelfSignedCertificate(t, "identity")

	clientCAs := x509.NewCertPool()
	clientCAs.AddCert(leaf)

	var seenCN string
	server := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenCN = r.TLS.PeerCertificates[0].Subject.CommonName
		w.WriteHeader(http.StatusOK)
	}))
	server.TLS = &tls.Config{
		ClientAuth: tls.RequireAndVerifyClientCert,
		ClientCAs:  clientCAs,
	}
	server.StartTLS()
	t.Cleanup(server.Close)

	roots := x509.NewCertPool()
	roots.AddCert(server.Certificate())

	channel := NewChannel(mustParseURL(t, server.URL), WithClient(NewMutualTLSClient(cert, roots)))
	res, err := channel.Request(context.Background(), NewRequest(strings.NewReader("x"), nil))
	require.NoError(t, err)
	res.Body().Close()
	require.Equal(t, "identity", seenCN)

	t.Run("without client certificate", func(t *testing.T) {
		client := &http.Client{Transport: &http.Transport{TLSClientConfig: &tls.Config{RootCAs: roots}}}
		channel := NewChannel(mustParseURL(t, server.URL), WithClient(client))
		_, err := channel.Request(context.Background(), NewRequest(strings.NewReader("x"), nil))
		require.Error(t, err)
	})
}

func TestLoadPKCS12(t *testing.T) {
	for _, name := range []string{"client-legacy.p12", "client-aes.p12"} {
		t.Run(name, func(t *testing.T) {
			bundle, err := os.ReadFile(filepath.Join("testdata", name))
			require.NoError(t, err)

			cert, err := LoadPKCS12(bundle, fixturePassword)
			require.NoError(t, err)
			require.Len(t, cert.Certificate, 3)
			require.Equal(t, fixtureLeafCN, cert.Leaf.Subject.CommonName)
			require.Equal(t, cert.Leaf.Raw, cert.Certificate[0])

			var cns []string
			for _, der := range cert.Certificate[1:] {
				c, err := x509.ParseCertificate(der)
				require.NoError(t, err)
				cns = append(cns, c.Subject.CommonName)
			}
			require.Equal(t, []string{"Certify Test Intermediate CA", "Certify Test Root CA"}, cns)

			// the chain verifies from the leaf through the intermediate
			roots := x509.NewCertPool()
			intermediates := x509.NewCertPool()
			root, err := x509.ParseCertificate(cert.Certificate[2])
			require.NoError(t, err)
			roots.AddCert(root)
			inter, err := x509.ParseCertificate(cert.Certificate[1])
			require.NoError(t, err)
			intermediates.AddCert(inter)
			_, err = cert.Leaf.Verify(x509.VerifyOptions{
				Roots:         roots,
				Intermediates: intermediates,
				KeyUsages:     []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth},
			})
			require.NoError(t, err)
		})
	}

	t.Run("wrong password", func(t *testing.T) {
		bundle, err := os.ReadFile(filepath.Join("testdata", "client-legacy.p12"))
		require.NoError(t, err)
		_, err = LoadPKCS12(bundle, "nope")
		require.ErrorContains(t, err, "decoding PKCS#12 bundle")
	})

	t.Run("invalid bundle", func(t *testing.T) {
		_, err := LoadPKCS12([]byte("not a bundle"), "secret")
		require.ErrorContains(t, err, "decoding PKCS#12 bundle")
	})
}
