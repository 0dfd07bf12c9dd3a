// Package gateway implements the authenticated data-access core of LeafLens:
// resolving logical resources to physical collections, reading them through
// a per-request store connection and normalising the returned documents.
//
// # Resources
//
// Three logical resources are served:
//
//	sensor-data     -> Sensor.Data
//	plant (1..5)    -> Sensor.Plant_1 .. Sensor.Plant_5
//	store-products  -> Store.Products
//
// The mapping is an explicit table (see DefaultCatalog) validated for
// uniqueness when the Catalog is built, so identical logical requests always
// target the same physical collection and no request string is ever spliced
// into a collection name.
//
// # Failure isolation
//
// Service.Fetch never returns store error text to its caller. Failures are
// logged with the target collection and surfaced as ErrStoreUnavailable.
package gateway
