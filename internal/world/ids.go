package world

import "github.com/google/uuid"

// TransientID identifies an object only for as long as it is resident; ids
// are small and reused once an object is destroyed, per spec.md 4.5.
type TransientID int32

// StableID identifies an object across save/load. It is allocated lazily,
// the first time something needs to reference the object persistently.
type StableID uuid.UUID

// NilStableID is the zero value, meaning "no stable id has been issued".
var NilStableID StableID

// NewStableID mints a fresh stable id. Kept as a function (rather than
// calling uuid.New inline at every call site) so save/load code has one
// place to swap the id scheme if the save format's version ever changes.
func NewStableID() StableID { return StableID(uuid.New()) }

// String renders a stable id in standard uuid form, for logging.
func (s StableID) String() string { return uuid.UUID(s).String() }
