package host

import (
	"net/http"
	"strconv"

	"go.uber.org/multierr"

	"github.com/wippyai/wasm-bridge/bind"
	"github.com/wippyai/wasm-bridge/errors"
	"github.com/wippyai/wasm-bridge/wire"
)

// Config configures the modules that reach outside the process.
type Config struct {
	// HTTPClient sends http module requests. It owns timeouts.
	HTTPClient *http.Client
	UserAgent  string

	// RequestsPerSecond limits outgoing requests across all instances
	// sharing the module. Zero means unlimited.
	RequestsPerSecond float64
	Burst             int
}

// Modules returns every capability module configured by cfg.
func Modules(cfg Config) []bind.Host {
	return []bind.Host{
		Core{},
		JSON{},
		Crypto{},
		NewHTTP(cfg),
		HTML{},
		Env{},
	}
}

// Register adds each host to r. A rejected host does not stop the others;
// the returned error combines every rejection.
func Register(r *bind.Registry, hosts ...bind.Host) error {
	var err error
	for _, h := range hosts {
		err = multierr.Append(err, r.RegisterHost(h))
	}
	return err
}

func deadHandle(h wire.Ref) error {
	return errors.NotFound(errors.PhaseHost, "handle", strconv.Itoa(int(h)))
}
