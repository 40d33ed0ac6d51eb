package budget

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// ErrUnavailable is returned by a [SignalSource] that has no reading.
var ErrUnavailable = stderrors.New("signal unavailable")

// SignalSource samples the signal that drives resource usage, in °C.
// Implementations return an error wrapping [ErrUnavailable] when no
// reading can be taken; any other error is treated the same way by the
// gate but is logged by callers.
type SignalSource interface {
	Read(ctx context.Context) (float64, error)
}

// ConstantSignalSource always reports the same reading. It is the named
// fallback policy used when the primary source is unavailable.
type ConstantSignalSource struct {
	Celsius float64
}

func (s ConstantSignalSource) Read(context.Context) (float64, error) {
	return s.Celsius, nil
}

func (s ConstantSignalSource) String() string {
	return fmt.Sprintf("constant(%g°C)", s.Celsius)
}

// UnavailableSource never has a reading.
type UnavailableSource struct{}

func (UnavailableSource) Read(context.Context) (float64, error) {
	return 0, ErrUnavailable
}

func (UnavailableSource) String() string { return "unavailable" }

// DefaultThermalRoot is where Linux exposes thermal zones.
const DefaultThermalRoot = "/sys/class/thermal"

// ThermalZoneSource reads the hottest Linux thermal zone. Zone files
// report millidegrees Celsius.
type ThermalZoneSource struct {
	Root string // defaults to DefaultThermalRoot
}

func (s ThermalZoneSource) Read(ctx context.Context) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	root := s.Root
	if root == "" {
		root = DefaultThermalRoot
	}

	zones, _ := filepath.Glob(filepath.Join(root, "thermal_zone*", "temp"))
	sort.Strings(zones)

	found := false
	var hottest float64
	for _, path := range zones {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		milli, err := strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
		if err != nil {
			continue
		}
		if c := milli / 1000; !found || c > hottest {
			hottest, found = c, true
		}
	}
	if !found {
		return 0, fmt.Errorf("no thermal zones under %s: %w", root, ErrUnavailable)
	}
	return hottest, nil
}

func (s ThermalZoneSource) String() string { return "thermal" }
