// Package blob re-exports core blob abstractions and wires the infra-backed
// implementations behind a single factory.
package blob

import (
	"marinecore/internal/blob/core"
)

type (
	// Driver identifies a blob backend driver.
	Driver = core.Driver
	// PutOptions configures a blob write.
	PutOptions = core.PutOptions
	// Info describes stored blob metadata.
	Info = core.Info
	// Store is the interface for blob storage backends.
	Store = core.Store
)

const (
	// DriverFilesystem is the local filesystem driver.
	DriverFilesystem = core.DriverFilesystem
	// DriverS3 is the S3-compatible driver.
	DriverS3 = core.DriverS3
	// DriverMemory is the in-memory test driver.
	DriverMemory = core.DriverMemory
)

var (
	// ErrExists is returned when writing a key that is already present.
	ErrExists = core.ErrExists
	// ErrNotFound is returned when reading a key that is absent.
	ErrNotFound = core.ErrNotFound
)
