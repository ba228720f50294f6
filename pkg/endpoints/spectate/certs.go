package spectate

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/mpapenbr/snailrace/log"
	"github.com/mpapenbr/snailrace/pkg/utils/certs/acme"
)

var ErrNoCertSource = errors.New("neither key pair nor acme file configured")

// CertSource names where the server certificate is read from. An acme file
// takes precedence over the key pair.
type CertSource struct {
	CertFile   string
	KeyFile    string
	AcmeFile   string
	AcmeDomain string
}

func (s CertSource) Enabled() bool {
	return (s.CertFile != "" && s.KeyFile != "") || (s.AcmeFile != "" && s.AcmeDomain != "")
}

func (s CertSource) files() []string {
	if s.AcmeFile != "" && s.AcmeDomain != "" {
		return []string{s.AcmeFile}
	}
	return []string{s.CertFile, s.KeyFile}
}

func (s CertSource) load() (tls.Certificate, error) {
	switch {
	case s.AcmeFile != "" && s.AcmeDomain != "":
		return acme.LoadCertificate(s.AcmeFile, s.AcmeDomain)
	case s.CertFile != "" && s.KeyFile != "":
		return tls.LoadX509KeyPair(s.CertFile, s.KeyFile)
	default:
		return tls.Certificate{}, ErrNoCertSource
	}
}

// CertProvider keeps the current certificate of a CertSource. The files are
// watched, the certificate is replaced whenever they change.
type CertProvider struct {
	src  CertSource
	log  *log.Logger
	mu   sync.RWMutex
	cert *tls.Certificate
}

// NewCertProvider loads the certificate and watches the source files until
// ctx is done
//
//nolint:whitespace // can't make both editor and linter happy
func NewCertProvider(ctx context.Context, src CertSource, l *log.Logger) (
	*CertProvider, error,
) {
	p := &CertProvider{src: src, log: l}
	if err := p.reload(); err != nil {
		return nil, err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	for _, f := range src.files() {
		if err := watcher.Add(f); err != nil {
			watcher.Close()
			return nil, fmt.Errorf("watch %s: %w", f, err)
		}
	}
	go p.watch(ctx, watcher)
	return p, nil
}

// TLSConfig returns a config serving the current certificate
func (p *CertProvider) TLSConfig() *tls.Config {
	return &tls.Config{
		GetCertificate: func(*tls.ClientHelloInfo) (*tls.Certificate, error) {
			return p.Certificate(), nil
		},
		MinVersion: tls.VersionTLS13,
	}
}

func (p *CertProvider) Certificate() *tls.Certificate {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cert
}

func (p *CertProvider) reload() error {
	cert, err := p.src.load()
	if err != nil {
		return fmt.Errorf("load certificate: %w", err)
	}
	p.mu.Lock()
	p.cert = &cert
	p.mu.Unlock()
	return nil
}

func (p *CertProvider) watch(ctx context.Context, watcher *fsnotify.Watcher) {
	defer watcher.Close()
	for {
		select {
		case <-ctx.Done():
			p.log.Debug("context done, stopping cert reload")
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Chmod) &&
				!event.Has(fsnotify.Create) {
				continue
			}
			p.log.Info("cert file changed, reloading cert", log.String("file", event.Name))
			// the previous certificate stays active if the new one is not usable
			if err := p.reload(); err != nil {
				p.log.Error("could not reload cert", log.ErrorField(err))
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			p.log.Error("watcher error", log.ErrorField(err))
		}
	}
}
