//nolint:lll,funlen // readablity
package acme

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		name     string
		jsonData string
		domain   string
		cert     string
		key      string
		notFound bool
		wantErr  bool
	}{
		{
			name:     "Success",
			jsonData: `{"dummy":{"Certificates":[{"domain":{"main":"example.com"}, "certificate": "cert1", "key": "key1"}]}}`,
			domain:   "example.com",
			cert:     "cert1",
			key:      "key1",
		},
		{
			name:     "Second resolver",
			jsonData: `{"a":{"Certificates":[{"domain":{"main":"other.com"}, "certificate": "c0", "key": "k0"}]},"b":{"Certificates":[{"domain":{"main":"race.example.com"}, "certificate": "c1", "key": "k1"}]}}`,
			domain:   "race.example.com",
			cert:     "c1",
			key:      "k1",
		},
		{
			name:     "Wildcard domain",
			jsonData: `{"myresolver":{"Certificates":[{"domain":{"main":"*.example.com"}, "certificate": "cert1", "key": "key1"}]}}`,
			domain:   "*.example.com",
			cert:     "cert1",
			key:      "key1",
		},
		{
			name:     "Domain not found",
			jsonData: `{"dummy":{"Certificates":[{"domain":{"main":"example.com"}, "certificate": "cert1", "key": "key1"}]}}`,
			domain:   "notfound.com",
			notFound: true,
		},
		{
			name:     "Empty json",
			jsonData: `{}`,
			domain:   "notfound.com",
			notFound: true,
		},
		{
			name:     "Invalid json",
			jsonData: `{"dummy":`,
			domain:   "example.com",
			wantErr:  true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cert, key, err := lookup(tt.jsonData, tt.domain)
			if tt.notFound {
				require.ErrorIs(t, err, ErrDomainNotFound)
				return
			}
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.cert, cert)
			assert.Equal(t, tt.key, key)
		})
	}
}

func TestParseCertificate_InvalidBase64(t *testing.T) {
	_, err := ParseCertificate(
		`{"r":{"Certificates":[{"domain":{"main":"example.com"}, "certificate": "%%%", "key": "key1"}]}}`,
		"example.com")
	require.Error(t, err)
}

func TestLoadCertificate_MissingFile(t *testing.T) {
	_, err := LoadCertificate("does-not-exist.json", "example.com")
	require.Error(t, err)
}
