// Package store is the on-disk build cache of the pansql command.
//
// A cache entry maps a key, the SHA-256 of the compiler version, the script
// name, its source and the dictionary files it loads, to the generated
// program. Compilation is deterministic apart from the build ID, so a hit
// can be written out instead of compiling again.
//
// The cache is a single SQLite file opened in WAL mode. Entries are ordered
// by a monotonic sequence number; Prune keeps the most recent entries of
// each script.
package store
