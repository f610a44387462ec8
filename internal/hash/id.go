// Package hash derives stable 64-bit identifiers from plant ID strings for
// the snapshot index, and checksums for snapshot payload integrity.
package hash

import "github.com/cespare/xxhash/v2"

// PlantID computes the xxHash64 of a plant identifier string.
func PlantID(id string) uint64 {
	return xxhash.Sum64String(id)
}

// Checksum computes the xxHash64 of a byte payload.
func Checksum(data []byte) uint64 {
	return xxhash.Sum64(data)
}
