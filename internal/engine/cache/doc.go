// Package cache is a file-backed TTL cache for footprint results.
//
// Entries live as JSON files under a cache directory (default
// ~/.greenledger/cache). Keys are SHA256 digests of the factor table
// version and the canonical form of the normalized input, so identical
// inputs computed with the same table hit the same entry while a factor
// change misses.
package cache
