package gateway

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog_FixedResources(t *testing.T) {
	c := DefaultCatalog()

	ref, err := c.Resolve(ResourceSensorData, "")
	require.NoError(t, err)
	assert.Equal(t, CollectionRef{Database: "Sensor", Collection: "Data"}, ref)

	ref, err = c.Resolve(ResourceStoreProducts, "ignored")
	require.NoError(t, err)
	assert.Equal(t, CollectionRef{Database: "Store", Collection: "Products"}, ref)
}

func TestDefaultCatalog_PlantsAreDistinctAndDeterministic(t *testing.T) {
	c := DefaultCatalog()
	seen := make(map[CollectionRef]int)

	for id := MinPlantID; id <= MaxPlantID; id++ {
		param := strconv.Itoa(id)
		first, err := c.Resolve(ResourcePlant, param)
		require.NoError(t, err)
		second, err := c.Resolve(ResourcePlant, param)
		require.NoError(t, err)

		assert.Equal(t, first, second, "plant %d must resolve identically every time", id)
		assert.Equal(t, "Plant_"+param, first.Collection)

		other, dup := seen[first]
		require.False(t, dup, "plants %d and %d share collection %s", other, id, first)
		seen[first] = id
	}
}

func TestResolve_InvalidPlantIDs(t *testing.T) {
	c := DefaultCatalog()

	for _, param := range []string{"0", "6", "7", "-1", "", "abc", "3.5", "1e1", "99999999999999999999"} {
		t.Run(param, func(t *testing.T) {
			_, err := c.Resolve(ResourcePlant, param)
			require.ErrorIs(t, err, ErrInvalidParameter)
		})
	}
}

func TestResolve_UnknownResource(t *testing.T) {
	_, err := DefaultCatalog().Resolve(Resource("users"), "")
	require.ErrorIs(t, err, ErrUnknownResource)
}

func TestNewCatalog_Validation(t *testing.T) {
	plants := func() []Entry {
		var out []Entry
		for id := MinPlantID; id <= MaxPlantID; id++ {
			out = append(out, Entry{
				Resource: ResourcePlant,
				ID:       id,
				Target:   CollectionRef{Database: "Sensor", Collection: "Plant_" + strconv.Itoa(id)},
			})
		}
		return out
	}

	tests := []struct {
		name    string
		entries []Entry
		wantErr bool
	}{
		{name: "plants only", entries: plants(), wantErr: false},
		{
			name: "shared target",
			entries: append(plants(), Entry{
				Resource: ResourceSensorData,
				Target:   CollectionRef{Database: "Sensor", Collection: "Plant_1"},
			}),
			wantErr: true,
		},
		{
			name:    "duplicate descriptor",
			entries: append(plants(), Entry{Resource: ResourcePlant, ID: 1, Target: CollectionRef{Database: "X", Collection: "Y"}}),
			wantErr: true,
		},
		{
			name:    "empty collection",
			entries: append(plants(), Entry{Resource: ResourceSensorData, Target: CollectionRef{Database: "Sensor"}}),
			wantErr: true,
		},
		{name: "missing plant", entries: plants()[1:], wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCatalog(tt.entries)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidCatalog)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestCatalog_Targets(t *testing.T) {
	targets := DefaultCatalog().Targets()
	require.Len(t, targets, 7)
	assert.Equal(t, "Sensor.Data", targets[0].String())
	assert.Equal(t, "Store.Products", targets[len(targets)-1].String())
}
