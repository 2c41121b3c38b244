package proxy

import (
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"github.com/williampepple1/listing-scraper/internal/config"
)

// Manager handles proxy selection and rotation
type Manager struct {
	Config *config.ProxyConfig
	next   atomic.Uint64

	mu         sync.Mutex
	transports map[string]*http.Transport
}

// NewManager creates a new proxy manager
func NewManager(config *config.ProxyConfig) *Manager {
	return &Manager{
		Config:     config,
		transports: make(map[string]*http.Transport),
	}
}

// Enabled reports whether requests should go through a proxy
func (m *Manager) Enabled() bool {
	return m.Config != nil && m.Config.Enabled && len(m.Config.List) > 0
}

// ProxyURL returns the proxy for the next request, or nil when disabled.
// With rotation on, proxies are handed out round-robin.
func (m *Manager) ProxyURL() (*url.URL, error) {
	if !m.Enabled() {
		return nil, nil
	}

	proxyStr := m.Config.List[0]
	if m.Config.Rotate && len(m.Config.List) > 1 {
		i := m.next.Add(1) - 1
		proxyStr = m.Config.List[i%uint64(len(m.Config.List))]
	}

	proxyURL, err := url.Parse(proxyStr)
	if err != nil {
		return nil, eris.Wrapf(err, "parse proxy %q", proxyStr)
	}

	if m.Config.Auth.Username != "" && m.Config.Auth.Password != "" {
		proxyURL.User = url.UserPassword(m.Config.Auth.Username, m.Config.Auth.Password)
	}

	return proxyURL, nil
}

// Transport returns the HTTP transport routed through the next proxy, and
// the redacted proxy used (empty when none). Each proxy gets one transport
// for the manager's lifetime so keep-alive connections are pooled.
func (m *Manager) Transport() (*http.Transport, string, error) {
	proxyURL, err := m.ProxyURL()
	if err != nil {
		return nil, "", err
	}

	key, redacted := "", ""
	if proxyURL != nil {
		key = proxyURL.String()
		redacted = proxyURL.Redacted()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	transport, ok := m.transports[key]
	if !ok {
		transport = http.DefaultTransport.(*http.Transport).Clone()
		if proxyURL != nil {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
		m.transports[key] = transport
	}
	return transport, redacted, nil
}

// CloseIdleConnections closes idle connections on every transport handed out
func (m *Manager) CloseIdleConnections() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.transports {
		t.CloseIdleConnections()
	}
}
