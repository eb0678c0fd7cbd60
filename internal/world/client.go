package world

import "fmt"

// NoPawn is the sentinel Client.Pawn value meaning "not currently
// controlling an entity". TransientID 0 is never allocated by Store
// (its counter starts at 1), so it is safe to reserve here.
const NoPawn TransientID = 0

// MaxNameLength bounds Client names (spec.md 6).
const MaxNameLength = 16

// Client is a connected player.
type Client struct {
	WireID uint64
	Name   string
	Pawn   TransientID
	Input  uint32

	ChildEntities    []TransientID
	ChildInventories []TransientID
}

// ValidName reports whether name satisfies spec.md 6: case-sensitive, at
// most MaxNameLength runes, composed only of letters, digits, spaces, and
// hyphens, with at least one alphanumeric character.
func ValidName(name string) error {
	if len(name) == 0 || len(name) > MaxNameLength {
		return fmt.Errorf("world: name length must be in [1,%d], got %d", MaxNameLength, len(name))
	}
	hasAlnum := false
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			hasAlnum = true
		case r == ' ', r == '-':
		default:
			return fmt.Errorf("world: name contains disallowed character %q", r)
		}
	}
	if !hasAlnum {
		return fmt.Errorf("world: name must contain at least one alphanumeric character")
	}
	return nil
}
