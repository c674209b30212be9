//go:build wasip1

package guest

import "github.com/wippyai/wasm-bridge/errors"

// HTTP methods, matching the host's numbering.
const (
	MethodGet int32 = iota
	MethodPost
	MethodPut
	MethodPatch
	MethodDelete
)

// Request is an HTTP request held by the host. Send blocks until the whole
// response is read; Close releases it.
type Request struct {
	ref int32
}

func NewRequest(method int32, url string) (*Request, error) {
	ref := httpCreate(method)
	if ref < 0 {
		return nil, errors.Protocol("http.create", ref)
	}
	r := &Request{ref: ref}
	p, n := stringPtr(url)
	httpSetURL(r.ref, p, n)
	return r, nil
}

func (r *Request) SetHeader(key, value string) {
	kp, kn := stringPtr(key)
	vp, vn := stringPtr(value)
	httpSetHeader(r.ref, kp, kn, vp, vn)
}

func (r *Request) SetBody(b []byte) {
	p, n := bytesPtr(b)
	httpSetBody(r.ref, p, n)
}

func (r *Request) SetMethod(method int32) { httpSetMethod(r.ref, method) }

func (r *Request) Method() int32 { return httpGetMethod(r.ref) }

func (r *Request) URL() string {
	s, _ := text(httpGetURL(r.ref))
	return s
}

// Header reads a request header before Send and a response header after.
func (r *Request) Header(key string) (string, bool) {
	p, n := stringPtr(key)
	ref := httpGetHeader(r.ref, p, n)
	if ref == 0 {
		return "", false
	}
	s, err := text(ref)
	return s, err == nil
}

// Send performs the request. A zero status code means it never completed.
func (r *Request) Send() int {
	httpSend(r.ref)
	return int(httpGetStatusCode(r.ref))
}

func (r *Request) Status() int { return int(httpGetStatusCode(r.ref)) }

func (r *Request) Body() []byte {
	buf := make([]byte, httpGetDataLen(r.ref))
	p, n := bytesPtr(buf)
	httpGetData(r.ref, p, n)
	return buf
}

func (r *Request) Close() {
	if r.ref > 0 {
		httpClose(r.ref)
		r.ref = 0
	}
}

// text reads a String result and releases it. Null reads as "".
func text(ref int32) (string, error) {
	h, err := Wrap(ref)
	if err != nil {
		return "", err
	}
	defer h.Release()
	if h.IsNull() {
		return "", nil
	}
	return h.AsString()
}
