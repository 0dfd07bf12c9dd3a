package gateway

import (
	"fmt"
	"sort"
	"strconv"
)

// Resource is a logical collection name exposed by the API.
type Resource string

// Served resources.
const (
	ResourceSensorData    Resource = "sensor-data"
	ResourcePlant         Resource = "plant"
	ResourceStoreProducts Resource = "store-products"
)

// Plant identifiers accepted by the plant resource, inclusive.
const (
	MinPlantID = 1
	MaxPlantID = 5
)

// CollectionRef names a physical collection in the document store.
type CollectionRef struct {
	Database   string
	Collection string
}

// String returns "database.collection".
func (c CollectionRef) String() string {
	return c.Database + "." + c.Collection
}

// Entry maps one resource descriptor to its collection. ID is zero for
// fixed resources and the plant number for the plant resource.
type Entry struct {
	Resource Resource
	ID       int
	Target   CollectionRef
}

type catalogKey struct {
	resource Resource
	id       int
}

// Catalog resolves resource descriptors to collections.
// It is immutable after construction and safe for concurrent use.
type Catalog struct {
	entries map[catalogKey]CollectionRef
}

// NewCatalog builds a Catalog from an explicit table. It rejects empty
// names, duplicate descriptors and two descriptors sharing a collection.
func NewCatalog(entries []Entry) (*Catalog, error) {
	c := &Catalog{entries: make(map[catalogKey]CollectionRef, len(entries))}
	targets := make(map[CollectionRef]catalogKey, len(entries))

	for _, e := range entries {
		if e.Resource == "" || e.Target.Database == "" || e.Target.Collection == "" {
			return nil, fmt.Errorf("%w: empty name in entry %+v", ErrInvalidCatalog, e)
		}
		key := catalogKey{resource: e.Resource, id: e.ID}
		if _, dup := c.entries[key]; dup {
			return nil, fmt.Errorf("%w: duplicate descriptor %s/%d", ErrInvalidCatalog, e.Resource, e.ID)
		}
		if other, dup := targets[e.Target]; dup {
			return nil, fmt.Errorf("%w: %s claimed by both %s/%d and %s/%d",
				ErrInvalidCatalog, e.Target, other.resource, other.id, e.Resource, e.ID)
		}
		c.entries[key] = e.Target
		targets[e.Target] = key
	}

	for id := MinPlantID; id <= MaxPlantID; id++ {
		if _, ok := c.entries[catalogKey{resource: ResourcePlant, id: id}]; !ok {
			return nil, fmt.Errorf("%w: plant %d has no collection", ErrInvalidCatalog, id)
		}
	}

	return c, nil
}

// DefaultCatalog returns the production resource table.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog([]Entry{
		{Resource: ResourceSensorData, Target: CollectionRef{Database: "Sensor", Collection: "Data"}},
		{Resource: ResourcePlant, ID: 1, Target: CollectionRef{Database: "Sensor", Collection: "Plant_1"}},
		{Resource: ResourcePlant, ID: 2, Target: CollectionRef{Database: "Sensor", Collection: "Plant_2"}},
		{Resource: ResourcePlant, ID: 3, Target: CollectionRef{Database: "Sensor", Collection: "Plant_3"}},
		{Resource: ResourcePlant, ID: 4, Target: CollectionRef{Database: "Sensor", Collection: "Plant_4"}},
		{Resource: ResourcePlant, ID: 5, Target: CollectionRef{Database: "Sensor", Collection: "Plant_5"}},
		{Resource: ResourceStoreProducts, Target: CollectionRef{Database: "Store", Collection: "Products"}},
	})
	if err != nil {
		panic(fmt.Sprintf("gateway: default catalog is invalid: %v", err))
	}
	return c
}

// Resolve maps a resource and its optional parameter to a collection.
// Fixed resources ignore param. The plant resource requires an integer
// in [MinPlantID, MaxPlantID]; anything else wraps ErrInvalidParameter.
func (c *Catalog) Resolve(resource Resource, param string) (CollectionRef, error) {
	id := 0
	if resource == ResourcePlant {
		var err error
		if id, err = ParsePlantID(param); err != nil {
			return CollectionRef{}, err
		}
	}

	ref, ok := c.entries[catalogKey{resource: resource, id: id}]
	if !ok {
		return CollectionRef{}, fmt.Errorf("%w: %q", ErrUnknownResource, resource)
	}
	return ref, nil
}

// ParsePlantID validates a plant identifier path parameter.
func ParsePlantID(param string) (int, error) {
	id, err := strconv.Atoi(param)
	if err != nil {
		return 0, fmt.Errorf("%w: plant id %q is not an integer", ErrInvalidParameter, param)
	}
	if id < MinPlantID || id > MaxPlantID {
		return 0, fmt.Errorf("%w: plant id %d outside [%d,%d]", ErrInvalidParameter, id, MinPlantID, MaxPlantID)
	}
	return id, nil
}

// Targets lists every collection in the catalog, sorted by name.
func (c *Catalog) Targets() []CollectionRef {
	refs := make([]CollectionRef, 0, len(c.entries))
	for _, ref := range c.entries {
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].String() < refs[j].String() })
	return refs
}
