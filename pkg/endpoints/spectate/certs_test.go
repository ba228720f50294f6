//nolint:thelper,whitespace,lll,funlen // ok for tests
package spectate

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/snailrace/log"
)

func selfSigned(t *testing.T, cn string) (certPEM, keyPEM []byte) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(time.Now().UnixNano()),
		Subject:      pkix.Name{CommonName: cn},
		DNSNames:     []string{cn},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	keyDer, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}),
		pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDer})
}

func commonName(p *CertProvider) string {
	c := p.Certificate()
	if c == nil || len(c.Certificate) == 0 {
		return ""
	}
	leaf, err := x509.ParseCertificate(c.Certificate[0])
	if err != nil {
		return ""
	}
	return leaf.Subject.CommonName
}

func TestCertSource_Enabled(t *testing.T) {
	assert.False(t, CertSource{}.Enabled())
	assert.False(t, CertSource{CertFile: "a"}.Enabled())
	assert.True(t, CertSource{CertFile: "a", KeyFile: "b"}.Enabled())
	assert.False(t, CertSource{AcmeFile: "a"}.Enabled())
	assert.True(t, CertSource{AcmeFile: "a", AcmeDomain: "example.com"}.Enabled())
}

func TestCertProvider_KeyPair(t *testing.T) {
	dir := t.TempDir()
	certFile := filepath.Join(dir, "tls.crt")
	keyFile := filepath.Join(dir, "tls.key")
	c, k := selfSigned(t, "one.example.com")
	require.NoError(t, os.WriteFile(certFile, c, 0o600))
	require.NoError(t, os.WriteFile(keyFile, k, 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p, err := NewCertProvider(ctx, CertSource{CertFile: certFile, KeyFile: keyFile}, log.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "one.example.com", commonName(p))

	cfg := p.TLSConfig()
	got, err := cfg.GetCertificate(nil)
	require.NoError(t, err)
	assert.Same(t, p.Certificate(), got)

	c, k = selfSigned(t, "two.example.com")
	require.NoError(t, os.WriteFile(keyFile, k, 0o600))
	require.NoError(t, os.WriteFile(certFile, c, 0o600))
	assert.Eventually(t, func() bool {
		return commonName(p) == "two.example.com"
	}, 5*time.Second, 50*time.Millisecond)
}

func TestCertProvider_Acme(t *testing.T) {
	c, k := selfSigned(t, "race.example.com")
	acmeFile := filepath.Join(t.TempDir(), "acme.json")
	data := fmt.Sprintf(`{"le":{"Certificates":[{"domain":{"main":"race.example.com"},"certificate":%q,"key":%q}]}}`,
		base64.StdEncoding.EncodeToString(c), base64.StdEncoding.EncodeToString(k))
	require.NoError(t, os.WriteFile(acmeFile, []byte(data), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p, err := NewCertProvider(ctx,
		CertSource{AcmeFile: acmeFile, AcmeDomain: "race.example.com"}, log.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "race.example.com", commonName(p))
}

func TestCertProvider_Invalid(t *testing.T) {
	_, err := NewCertProvider(context.Background(), CertSource{}, log.NewNop())
	require.ErrorIs(t, err, ErrNoCertSource)

	dir := t.TempDir()
	_, err = NewCertProvider(context.Background(),
		CertSource{CertFile: filepath.Join(dir, "x"), KeyFile: filepath.Join(dir, "y")}, log.NewNop())
	require.Error(t, err)
}
