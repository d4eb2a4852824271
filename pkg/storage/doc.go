// Package storage owns the on-disk layout of downloaded albums.
//
// Albums are written to <base>/<profile>/<title>/ (the profile level is
// omitted for single albums). Each file is streamed into a .part file and
// renamed into place once complete, so an interrupted download never looks
// finished. When an album is done, ArchiveAndRemove packs the directory into
// <title>.zip next to it and deletes the directory.
//
// Whether an existing file counts as downloaded is decided by size alone
// (WithinTolerance), not by checksum.
package storage
