// Package cache provides the derived-resource store shared by the live
// preview and the bake pass.
//
// A Store maps a content hash to one reference-counted Entry. An entry is
// indexed exactly while it is not stale and at least one holder has not
// released it. When the last holder releases an entry its value is handed
// to the release hook once, together with the ownership flag, so owned
// derived assets are destroyed and reused inputs are left alone.
//
// Concurrent misses for the same hash are serialized: one caller computes
// and every concurrent caller for that hash receives the same entry, each
// counted as a holder. Misses for different hashes compute concurrently,
// and compute functions never run while the store lock is held.
//
// A Store is an explicit object owned by whoever builds the pipeline; there
// is no package-level state.
package cache
