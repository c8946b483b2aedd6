// Package cache defines the disk-backed store that keeps Orthanc instance
// payloads under CacheDir/<id[:2]>/<id>.dcm. Entries are write-once: the
// store never rewrites or removes a file once it exists, which is safe because
// instance content is immutable per id. Writes go through a temp file + rename
// inside the shard directory so concurrent readers never see partial payloads.
package cache
