package models

// NativeRecord wraps the as-returned JSON of one remote service's catalog
// or library entity.
//
// NativeID is always required; StableKey (ISRC for songs, UPC for albums)
// is present only when the service reported one. A record without a stable
// key is still cacheable by native id for library-membership lookups, but
// cannot be used for cross-service resolution.
type NativeRecord struct {
	Service  string `json:"service"`
	NativeID string `json:"native_id"`
	Kind     Kind   `json:"kind"`

	StableKey string `json:"stable_key,omitempty"`

	// Name and ArtistName are denormalized display attributes extracted at
	// translation time so match policies don't have to re-parse Document.
	Name       string `json:"name,omitempty"`
	ArtistName string `json:"artist_name,omitempty"`

	// Document is the raw service JSON for this entity.
	Document []byte `json:"document,omitempty"`
}

// Resolvable reports whether the record carries a stable external key and
// can therefore participate in cross-service resolution.
func (r NativeRecord) Resolvable() bool {
	return r.StableKey != ""
}

// Valid reports whether the record satisfies the cache's minimum shape.
func (r NativeRecord) Valid() bool {
	return r.Service != "" && r.NativeID != "" && r.Kind != ""
}
