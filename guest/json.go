//go:build wasip1

package guest

import "github.com/wippyai/wasm-bridge/handle"

// ParseJSON asks the host to parse data into a value tree.
func ParseJSON(data []byte) (*handle.Handle, error) {
	p, n := bytesPtr(data)
	return Wrap(jsonParse(p, n))
}

// StringifyJSON renders the value behind h as JSON text.
func StringifyJSON(h *handle.Handle) ([]byte, error) {
	out, err := Wrap(jsonStringify(int32(h.Ref())))
	if err != nil {
		return nil, err
	}
	defer out.Release()
	return out.AsBytes()
}
