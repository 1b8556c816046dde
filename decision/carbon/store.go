// Package carbon provides electricity carbon intensity lookups.
// Values are kg CO2e per kWh.
package carbon

import (
	"fmt"
	"sort"
	"sync"

	"efuel-lca/decision/params"
	lcaerrors "efuel-lca/pkg/errors"
)

// Store resolves an electricity source identifier to a carbon intensity.
type Store interface {
	Intensity(source string) (float64, error)
}

// Lister is implemented by stores that can enumerate their sources.
type Lister interface {
	Sources() []string
}

// =============================================================================
// STATIC STORE
// =============================================================================

// Reference intensities by generation source, kg CO2e/kWh.
var staticIntensityData = map[string]float64{
	// Grid averages
	"grid_global": 0.475,
	"grid_eu":     0.253,
	"grid_china":  0.638,
	"grid_us":     0.389,

	// Fossil
	"natural_gas": 0.410,
	"coal":        0.820,

	// Low carbon
	"solar":   0.048,
	"wind":    0.011,
	"hydro":   0.024,
	"nuclear": 0.012,
	"biomass": 0.230,

	// Mixes
	"renewable_mix":  0.030,
	"low_carbon_mix": 0.100,
	"renewable":      0.020,
}

// defaultSweepSources is the comparison set used when a sweep names no sources.
var defaultSweepSources = []string{
	"renewable_mix", "grid_global", "grid_eu", "grid_us",
	"grid_china", "natural_gas", "coal", "solar", "wind", "hydro", "renewable",
}

// StaticStore serves the built-in reference table.
type StaticStore struct{}

// NewStaticStore creates a static store.
func NewStaticStore() *StaticStore {
	return &StaticStore{}
}

// Intensity returns the tabulated intensity for source.
func (s *StaticStore) Intensity(source string) (float64, error) {
	if v, ok := staticIntensityData[source]; ok {
		return v, nil
	}
	return 0, unknownSource(source)
}

// Sources lists the built-in identifiers.
func (s *StaticStore) Sources() []string {
	return Sources()
}

// Sources lists the built-in identifiers in sorted order.
func Sources() []string {
	out := make([]string, 0, len(staticIntensityData))
	for k := range staticIntensityData {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// DefaultSweepSources returns the sources compared when a sweep names none.
func DefaultSweepSources() []string {
	return append([]string(nil), defaultSweepSources...)
}

// =============================================================================
// TABLE STORE
// =============================================================================

// TableStore holds user-supplied intensities, e.g. from a scenario file.
type TableStore struct {
	mu      sync.RWMutex
	entries map[string]float64
}

// NewTableStore creates a store from entries. Negative values are rejected.
func NewTableStore(entries map[string]float64) (*TableStore, error) {
	t := &TableStore{entries: make(map[string]float64, len(entries))}
	for k, v := range entries {
		if err := t.Set(k, v); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Set adds or replaces one entry.
func (t *TableStore) Set(source string, kgPerKWh float64) error {
	if !(kgPerKWh >= 0) {
		return lcaerrors.NewInvalidParameter(params.StageElectricity, "carbon_intensity", kgPerKWh,
			fmt.Sprintf("intensity for %q must not be negative", source))
	}
	t.mu.Lock()
	t.entries[source] = kgPerKWh
	t.mu.Unlock()
	return nil
}

// Intensity returns the user-supplied intensity for source.
func (t *TableStore) Intensity(source string) (float64, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if v, ok := t.entries[source]; ok {
		return v, nil
	}
	return 0, unknownSource(source)
}

// Sources lists the user-supplied identifiers in sorted order.
func (t *TableStore) Sources() []string {
	t.mu.RLock()
	out := make([]string, 0, len(t.entries))
	for k := range t.entries {
		out = append(out, k)
	}
	t.mu.RUnlock()
	sort.Strings(out)
	return out
}

// =============================================================================
// COMPOSED STORE
// =============================================================================

// ComposedStore tries multiple stores in order.
type ComposedStore struct {
	stores []Store
}

// NewComposedStore creates a composed store. The first store that knows a source wins.
func NewComposedStore(stores ...Store) *ComposedStore {
	return &ComposedStore{stores: stores}
}

// Intensity tries each store in order until one succeeds.
func (c *ComposedStore) Intensity(source string) (float64, error) {
	var lastErr error = unknownSource(source)
	for _, store := range c.stores {
		v, err := store.Intensity(source)
		if err == nil {
			return v, nil
		}
		lastErr = err
	}
	return 0, lastErr
}

// Sources returns the sorted union of every listable member's sources.
func (c *ComposedStore) Sources() []string {
	return ListSources(c.stores...)
}

// ListSources returns the sorted, de-duplicated sources of the stores that
// implement Lister. Others are skipped.
func ListSources(stores ...Store) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, store := range stores {
		l, ok := store.(Lister)
		if !ok {
			continue
		}
		for _, src := range l.Sources() {
			if !seen[src] {
				seen[src] = true
				out = append(out, src)
			}
		}
	}
	sort.Strings(out)
	return out
}

// =============================================================================
// FACTORY
// =============================================================================

// NewStore returns the static table, layered under custom entries when any are given.
func NewStore(custom map[string]float64) (Store, error) {
	if len(custom) == 0 {
		return NewStaticStore(), nil
	}
	table, err := NewTableStore(custom)
	if err != nil {
		return nil, err
	}
	return NewComposedStore(table, NewStaticStore()), nil
}

// Resolve returns the intensity for an electricity setting. An explicit
// override wins over the source lookup.
func Resolve(store Store, e params.Electricity) (float64, error) {
	if e.CarbonIntensity != nil {
		if !(*e.CarbonIntensity >= 0) {
			return 0, lcaerrors.NewInvalidParameter(params.StageElectricity, "carbon_intensity",
				*e.CarbonIntensity, "must not be negative")
		}
		return *e.CarbonIntensity, nil
	}
	if e.Source == "" {
		return 0, lcaerrors.NewInvalidParameter(params.StageElectricity, "source", 0,
			"no electricity source or carbon intensity given")
	}
	return store.Intensity(e.Source)
}

// Lookup reads a named parameter from set. The electricity intensity falls
// back to the source table when the set carries no override.
func Lookup(store Store, set *params.Set, name string) (float64, error) {
	if name == params.CarbonIntensityParam && set.Electricity.CarbonIntensity == nil {
		return Resolve(store, set.Electricity)
	}
	return set.Lookup(name)
}

// Pin returns a copy of set with its resolved intensity held as an
// explicit override, so the intensity can be perturbed like any other
// parameter. The source name is kept for reporting.
func Pin(store Store, set *params.Set) (*params.Set, error) {
	v, err := Resolve(store, set.Electricity)
	if err != nil {
		return nil, err
	}
	return set.WithCarbonIntensity(v), nil
}

func unknownSource(source string) error {
	return lcaerrors.NewInvalidParameter(params.StageElectricity, "source", 0,
		fmt.Sprintf("unknown electricity source %q", source))
}
