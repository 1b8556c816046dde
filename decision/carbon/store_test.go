package carbon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"efuel-lca/decision/params"
	lcaerrors "efuel-lca/pkg/errors"
)

func TestStaticStore(t *testing.T) {
	s := NewStaticStore()

	tests := map[string]float64{
		"coal":        0.820,
		"wind":        0.011,
		"renewable":   0.020,
		"grid_global": 0.475,
	}
	for source, want := range tests {
		got, err := s.Intensity(source)
		require.NoError(t, err, source)
		assert.Equal(t, want, got, source)
	}

	_, err := s.Intensity("fusion")
	assert.ErrorIs(t, err, lcaerrors.ErrInvalidParameter)
}

func TestComposedStorePrefersFirstHit(t *testing.T) {
	table, err := NewTableStore(map[string]float64{"coal": 0.9, "site_ppa": 0.005})
	require.NoError(t, err)
	store := NewComposedStore(table, NewStaticStore())

	v, err := store.Intensity("coal")
	require.NoError(t, err)
	assert.Equal(t, 0.9, v)

	v, err = store.Intensity("site_ppa")
	require.NoError(t, err)
	assert.Equal(t, 0.005, v)

	v, err = store.Intensity("wind")
	require.NoError(t, err)
	assert.Equal(t, 0.011, v)

	_, err = store.Intensity("fusion")
	assert.ErrorIs(t, err, lcaerrors.ErrInvalidParameter)
}

func TestTableStoreRejectsNegative(t *testing.T) {
	_, err := NewTableStore(map[string]float64{"bad": -0.1})
	assert.ErrorIs(t, err, lcaerrors.ErrInvalidParameter)
}

func TestNewStore(t *testing.T) {
	s, err := NewStore(nil)
	require.NoError(t, err)
	assert.IsType(t, &StaticStore{}, s)

	s, err = NewStore(map[string]float64{"site_ppa": 0.005})
	require.NoError(t, err)
	assert.IsType(t, &ComposedStore{}, s)
}

func TestResolve(t *testing.T) {
	store := NewStaticStore()

	v, err := Resolve(store, params.Electricity{Source: "coal"})
	require.NoError(t, err)
	assert.Equal(t, 0.820, v)

	override := 0.3
	v, err = Resolve(store, params.Electricity{Source: "not-in-table", CarbonIntensity: &override})
	require.NoError(t, err)
	assert.Equal(t, 0.3, v)

	_, err = Resolve(store, params.Electricity{Source: "not-in-table"})
	assert.ErrorIs(t, err, lcaerrors.ErrInvalidParameter)

	_, err = Resolve(store, params.Electricity{})
	assert.ErrorIs(t, err, lcaerrors.ErrInvalidParameter)
}

func TestSources(t *testing.T) {
	sources := Sources()
	assert.Len(t, sources, 14)
	assert.IsIncreasing(t, sources)

	sweep := DefaultSweepSources()
	assert.Len(t, sweep, 11)
	for _, s := range sweep {
		assert.Contains(t, sources, s)
	}

	// callers get their own copy
	sweep[0] = "mutated"
	assert.Equal(t, "renewable_mix", DefaultSweepSources()[0])
}

type opaqueStore struct{}

func (opaqueStore) Intensity(string) (float64, error) { return 0.5, nil }

func TestListSources(t *testing.T) {
	store, err := NewStore(map[string]float64{"site_ppa": 0.004, "coal": 0.9})
	require.NoError(t, err)

	l, ok := store.(Lister)
	require.True(t, ok)
	got := l.Sources()
	assert.Len(t, got, len(Sources())+1)
	assert.Contains(t, got, "site_ppa")
	assert.IsIncreasing(t, got)

	assert.Equal(t, Sources(), ListSources(opaqueStore{}, NewStaticStore()))
}

func TestLookupResolvesIntensity(t *testing.T) {
	store := NewStaticStore()
	set := params.Default().WithElectricitySource("grid_eu")

	v, err := Lookup(store, set, params.CarbonIntensityParam)
	require.NoError(t, err)
	assert.Equal(t, 0.253, v)

	v, err = Lookup(store, set.WithCarbonIntensity(0.1), params.CarbonIntensityParam)
	require.NoError(t, err)
	assert.Equal(t, 0.1, v)

	v, err = Lookup(store, set, "capture.capture_efficiency")
	require.NoError(t, err)
	assert.Equal(t, 0.80, v)

	_, err = Lookup(store, set.WithElectricitySource("fusion"), params.CarbonIntensityParam)
	assert.ErrorIs(t, err, lcaerrors.ErrInvalidParameter)
}

func TestPin(t *testing.T) {
	set := params.Default().WithElectricitySource("coal")

	pinned, err := Pin(NewStaticStore(), set)
	require.NoError(t, err)
	v, err := pinned.Lookup(params.CarbonIntensityParam)
	require.NoError(t, err)
	assert.Equal(t, 0.820, v)
	assert.Equal(t, "coal", pinned.Electricity.Source)
	assert.Nil(t, set.Electricity.CarbonIntensity)

	_, err = Pin(NewStaticStore(), set.WithElectricitySource("fusion"))
	assert.ErrorIs(t, err, lcaerrors.ErrInvalidParameter)
}
