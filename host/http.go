package host

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/wippyai/wasm-bridge/store"
	"github.com/wippyai/wasm-bridge/wire"
)

// Method is an HTTP request method as it crosses the wire.
type Method int32

const (
	MethodGet Method = iota
	MethodPost
	MethodPut
	MethodPatch
	MethodDelete
)

func (m Method) String() string {
	switch m {
	case MethodGet:
		return http.MethodGet
	case MethodPost:
		return http.MethodPost
	case MethodPut:
		return http.MethodPut
	case MethodPatch:
		return http.MethodPatch
	case MethodDelete:
		return http.MethodDelete
	}
	return ""
}

func (m Method) valid() bool { return m >= MethodGet && m <= MethodDelete }

// request is the payload of an http handle. It is built up by the setters,
// sent once, and then holds the response.
type request struct {
	method Method
	url    string
	header http.Header
	body   []byte

	sent    bool
	status  int
	resHead http.Header
	data    []byte
}

func (r *request) Drop() {
	r.body = nil
	r.data = nil
}

// HTTP is the "http" module. A request is an opaque handle (Kind Unknown);
// close releases it. Calls block until the response body is read; the client
// enforces timeouts.
type HTTP struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
}

// NewHTTP builds the module from cfg. A nil client means http.DefaultClient.
func NewHTTP(cfg Config) *HTTP {
	m := &HTTP{client: cfg.HTTPClient, userAgent: cfg.UserAgent}
	if m.client == nil {
		m.client = http.DefaultClient
	}
	if cfg.RequestsPerSecond > 0 {
		burst := max(cfg.Burst, 1)
		m.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return m
}

func (*HTTP) Namespace() string { return "http" }

// Create starts a request. An unknown method is the failure sentinel.
func (*HTTP) Create(s *store.Store, method int32) wire.Ref {
	if !Method(method).valid() {
		Logger().Warn("unknown http method", zap.Int32("method", method))
		return wire.FailedRef
	}
	return s.Put(store.NewOpaque(&request{method: Method(method), header: make(http.Header)}))
}

func (*HTTP) SetURL(s *store.Store, h wire.Ref, url wire.LentStr) {
	if r, ok := requestOf(s, h); ok {
		r.url = strings.Clone(string(url))
	}
}

func (*HTTP) SetHeader(s *store.Store, h wire.Ref, key, value wire.LentStr) {
	if r, ok := requestOf(s, h); ok {
		r.header.Set(strings.Clone(string(key)), strings.Clone(string(value)))
	}
}

func (*HTTP) SetBody(s *store.Store, h wire.Ref, body wire.Lent) {
	if r, ok := requestOf(s, h); ok {
		r.body = bytes.Clone(body)
	}
}

func (*HTTP) SetMethod(s *store.Store, h wire.Ref, method int32) {
	if r, ok := requestOf(s, h); ok && Method(method).valid() {
		r.method = Method(method)
	}
}

// GetMethod returns the request method, or -1 for a dead handle.
func (*HTTP) GetMethod(s *store.Store, h wire.Ref) int32 {
	r, ok := requestOf(s, h)
	if !ok {
		return -1
	}
	return int32(r.method)
}

// GetURL returns the URL as a String value, Null when unset.
func (*HTTP) GetURL(s *store.Store, h wire.Ref) *store.Value {
	r, ok := requestOf(s, h)
	if !ok || r.url == "" {
		return nil
	}
	return store.NewString(r.url)
}

// GetHeader reads a response header once the request is sent, a request
// header before. Missing headers are Null.
func (*HTTP) GetHeader(s *store.Store, h wire.Ref, key wire.LentStr) *store.Value {
	r, ok := requestOf(s, h)
	if !ok {
		return nil
	}
	hdr := r.header
	if r.sent {
		hdr = r.resHead
	}
	vals := hdr.Values(string(key))
	if len(vals) == 0 {
		return nil
	}
	return store.NewString(vals[0])
}

// Send performs the request once. Transport failures are logged and leave the
// status code at 0.
func (m *HTTP) Send(ctx context.Context, s *store.Store, h wire.Ref) {
	r, ok := requestOf(s, h)
	if !ok || r.sent {
		return
	}
	r.sent = true
	if err := m.do(ctx, r); err != nil {
		Logger().Warn("http request failed",
			zap.Stringer("method", r.method),
			zap.String("url", r.url),
			zap.Error(err))
	}
}

func (m *HTTP) do(ctx context.Context, r *request) error {
	if m.limiter != nil {
		if err := m.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	var body io.Reader
	if len(r.body) > 0 {
		body = bytes.NewReader(r.body)
	}
	req, err := http.NewRequestWithContext(ctx, r.method.String(), r.url, body)
	if err != nil {
		return err
	}
	req.Header = r.header.Clone()
	if m.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", m.userAgent)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	r.status = resp.StatusCode
	r.resHead = resp.Header
	r.data = data
	Logger().Debug("http request",
		zap.Stringer("method", r.method),
		zap.String("url", r.url),
		zap.Int("status", r.status),
		zap.Int("bytes", len(data)))
	return nil
}

func (*HTTP) GetStatusCode(s *store.Store, h wire.Ref) int32 {
	r, ok := requestOf(s, h)
	if !ok {
		return 0
	}
	return int32(r.status)
}

func (*HTTP) GetDataLen(s *store.Store, h wire.Ref) int32 {
	r, ok := requestOf(s, h)
	if !ok {
		return 0
	}
	n, _ := wire.Len32(len(r.data))
	return int32(n)
}

// GetData copies at most len(dst) bytes of the response body into dst.
func (*HTTP) GetData(s *store.Store, h wire.Ref, dst wire.MutBytes) {
	if r, ok := requestOf(s, h); ok {
		copy(dst, r.data)
	}
}

// Close releases the request handle.
func (*HTTP) Close(s *store.Store, h wire.Ref) {
	s.Destroy(h)
}

func requestOf(s *store.Store, h wire.Ref) (*request, bool) {
	v, ok := s.Get(h)
	if !ok {
		return nil, false
	}
	r, ok := v.Payload().(*request)
	return r, ok
}
