package store

import "errors"

var (
	// ErrCorruptedRegistryDb For some reason, db on disk representation have changed
	ErrCorruptedRegistryDb = errors.New("registry db is corrupted")

	// ErrStateNotFound The db holds no registry state yet
	ErrStateNotFound = errors.New("registry state not found")
)
