package main

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/wasm-bridge/store"
	"github.com/wippyai/wasm-bridge/wire"
)

const previewLimit = 60

func encodeArg(value string, t api.ValueType) (uint64, error) {
	value = strings.TrimSpace(value)
	switch t {
	case api.ValueTypeI32:
		v, err := strconv.ParseInt(value, 0, 32)
		if err != nil {
			return 0, fmt.Errorf("i32 %q: %w", value, err)
		}
		return api.EncodeI32(int32(v)), nil
	case api.ValueTypeI64:
		v, err := strconv.ParseInt(value, 0, 64)
		if err != nil {
			return 0, fmt.Errorf("i64 %q: %w", value, err)
		}
		return api.EncodeI64(v), nil
	case api.ValueTypeF32:
		v, err := strconv.ParseFloat(value, 32)
		if err != nil {
			return 0, fmt.Errorf("f32 %q: %w", value, err)
		}
		return api.EncodeF32(float32(v)), nil
	case api.ValueTypeF64:
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, fmt.Errorf("f64 %q: %w", value, err)
		}
		return api.EncodeF64(v), nil
	}
	return 0, fmt.Errorf("unsupported parameter type %s", api.ValueTypeName(t))
}

// encodeArgs parses one value per parameter type.
func encodeArgs(values []string, types []api.ValueType) ([]uint64, error) {
	if len(values) != len(types) {
		return nil, fmt.Errorf("want %d arguments, got %d", len(types), len(values))
	}
	words := make([]uint64, len(values))
	for i, v := range values {
		w, err := encodeArg(v, types[i])
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		words[i] = w
	}
	return words, nil
}

func splitArgs(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return strings.Split(s, ",")
}

func decodeResult(w uint64, t api.ValueType) string {
	switch t {
	case api.ValueTypeI32:
		return strconv.FormatInt(int64(api.DecodeI32(w)), 10)
	case api.ValueTypeI64:
		return strconv.FormatInt(int64(w), 10)
	case api.ValueTypeF32:
		return strconv.FormatFloat(float64(api.DecodeF32(w)), 'g', -1, 32)
	case api.ValueTypeF64:
		return strconv.FormatFloat(api.DecodeF64(w), 'g', -1, 64)
	}
	return fmt.Sprintf("%#x", w)
}

// formatResults renders result words. A lone i32 naming a live handle is
// shown with its kind and value.
func formatResults(words []uint64, types []api.ValueType, s *store.Store) string {
	if len(words) == 0 {
		return "(no results)"
	}
	parts := make([]string, len(words))
	for i, w := range words {
		t := api.ValueTypeI64
		if i < len(types) {
			t = types[i]
		}
		parts[i] = decodeResult(w, t)
	}
	out := strings.Join(parts, ", ")
	if len(words) == 1 && len(types) == 1 && types[0] == api.ValueTypeI32 && s != nil {
		ref := wire.Ref(api.DecodeI32(words[0]))
		if ref.Failed() {
			if err := s.LastError(); err != nil {
				out += " (failed: " + err.Error() + ")"
			}
		} else if v, ok := s.Get(ref); ok && ref != wire.NullRef {
			out += fmt.Sprintf(" (%s %s)", v.Kind(), preview(v))
		}
	}
	return out
}

func preview(v *store.Value) string {
	b, err := v.MarshalJSON()
	if err != nil {
		return "<" + err.Error() + ">"
	}
	s := string(b)
	if len(s) > previewLimit {
		s = s[:previewLimit-3] + "..."
	}
	return s
}

type handleRow struct {
	ref   wire.Ref
	kind  wire.Kind
	refs  int32
	value string
}

func liveHandles(s *store.Store) []handleRow {
	var rows []handleRow
	s.Each(func(ref wire.Ref, v *store.Value) {
		rows = append(rows, handleRow{ref: ref, kind: v.Kind(), refs: v.Refs(), value: preview(v)})
	})
	return rows
}

func formatStats(st store.Stats) string {
	return fmt.Sprintf("live %d • created %d • copied %d • moved %d • destroyed %d • invalid %d • failures %d",
		st.Live, st.Created, st.Copied, st.Moved, st.Destroyed, st.InvalidReleases, st.Failures)
}

func parsePages(mib uint) (uint32, error) {
	pages := uint64(mib) * 16
	if pages > math.MaxUint16+1 {
		return 0, fmt.Errorf("memory limit %d MiB exceeds 4 GiB", mib)
	}
	return uint32(pages), nil
}
