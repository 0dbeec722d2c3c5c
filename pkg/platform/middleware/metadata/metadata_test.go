package metadata

import (
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"

	"induct/pkg/requestcontext"
)

func capture(m *Middleware, req *http.Request) (ip, ua, fp string) {
	handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ip = requestcontext.ClientIP(ctx)
		ua = requestcontext.UserAgent(ctx)
		fp = requestcontext.TerminalFingerprint(ctx)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), req)
	return ip, ua, fp
}

func TestHandlerExtractsMetadata(t *testing.T) {
	m := NewMiddleware(nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.47:51123"
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) Firefox/128.0")

	ip, ua, fp := capture(m, req)
	assert.Equal(t, "192.168.1.47", ip)
	assert.Contains(t, ua, "Firefox")
	assert.NotEmpty(t, fp)
	assert.Len(t, fp, 64) // hex sha256
}

func TestHandlerIgnoresXFFFromUntrustedPeer(t *testing.T) {
	m := NewMiddleware(nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.9:443"
	req.Header.Set("X-Forwarded-For", "10.0.0.1")

	ip, _, _ := capture(m, req)
	assert.Equal(t, "203.0.113.9", ip)
}

func TestHandlerTrustsXFFFromTrustedProxy(t *testing.T) {
	m := NewMiddleware(&Config{
		TrustedProxies: []netip.Prefix{netip.MustParsePrefix("203.0.113.0/24")},
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.9:443"
	req.Header.Set("X-Forwarded-For", "198.51.100.20, 203.0.113.9")

	ip, _, _ := capture(m, req)
	assert.Equal(t, "198.51.100.20", ip)
}

func TestComputeTerminalFingerprint(t *testing.T) {
	t.Run("empty user agent yields no fingerprint", func(t *testing.T) {
		assert.Empty(t, ComputeTerminalFingerprint(""))
	})

	t.Run("same terminal class yields same fingerprint", func(t *testing.T) {
		a := ComputeTerminalFingerprint("Mozilla/5.0 (X11; Linux x86_64) Firefox/128.0")
		b := ComputeTerminalFingerprint("Mozilla/5.0 (X11; Linux x86_64) Firefox/128.3")
		assert.Equal(t, a, b, "patch versions should not change the fingerprint")
	})

	t.Run("different browsers yield different fingerprints", func(t *testing.T) {
		a := ComputeTerminalFingerprint("Mozilla/5.0 (X11; Linux x86_64) Firefox/128.0")
		b := ComputeTerminalFingerprint("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 Chrome/126.0 Safari/537.36")
		assert.NotEqual(t, a, b)
	})
}
