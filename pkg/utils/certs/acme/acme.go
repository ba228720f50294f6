// Package acme reads certificates stored by an ACME client in a json file
// (e.g. the acme.json written by traefik)
package acme

import (
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"os"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
)

var ErrDomainNotFound = errors.New("domain not found")

type storedCert struct {
	Certificate string `json:"certificate"`
	Key         string `json:"key"`
}

// LoadCertificate reads the certificate of domain from file
func LoadCertificate(file, domain string) (tls.Certificate, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("read acme file: %w", err)
	}
	return ParseCertificate(string(data), domain)
}

// ParseCertificate extracts the certificate of domain. Certificate and key
// are stored base64 encoded PEM.
func ParseCertificate(jsonData, domain string) (tls.Certificate, error) {
	certData, keyData, err := lookup(jsonData, domain)
	if err != nil {
		return tls.Certificate{}, err
	}
	certPEM, err := base64.StdEncoding.DecodeString(certData)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("decode certificate: %w", err)
	}
	keyPEM, err := base64.StdEncoding.DecodeString(keyData)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("decode key: %w", err)
	}
	return tls.X509KeyPair(certPEM, keyPEM)
}

// lookup searches all resolvers for the entry with the main domain
func lookup(jsonData, domain string) (cert, key string, err error) {
	obj, err := oj.ParseString(jsonData)
	if err != nil {
		return "", "", err
	}
	path, err := jp.ParseString(
		fmt.Sprintf(`$..Certificates[?(@.domain.main == %q)]`, domain))
	if err != nil {
		return "", "", err
	}
	res := path.Get(obj)
	if len(res) == 0 {
		return "", "", fmt.Errorf("%s: %w", domain, ErrDomainNotFound)
	}
	entry := storedCert{}
	if err := oj.Unmarshal([]byte(oj.JSON(res[0])), &entry); err != nil {
		return "", "", err
	}
	return entry.Certificate, entry.Key, nil
}
