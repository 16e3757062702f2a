package types

// Ownership classifies who currently "owns" an installed file. It drives
// every overwrite and delete decision ckit makes.
type Ownership string

const (
	// OwnershipKit means the file is byte-identical to the version the kit
	// installed. It is safe to update or delete without asking.
	OwnershipKit Ownership = "ck"

	// OwnershipKitModified means the kit installed the file but the user
	// has edited it since. It is never overwritten or deleted silently.
	OwnershipKitModified Ownership = "ck-modified"

	// OwnershipUser means the file was never part of a kit release. ckit
	// does not touch it at all.
	OwnershipUser Ownership = "user"
)

// String returns the wire form of the ownership value.
func (o Ownership) String() string {
	return string(o)
}

// Valid reports whether o is one of the three known ownership states.
func (o Ownership) Valid() bool {
	switch o {
	case OwnershipKit, OwnershipKitModified, OwnershipUser:
		return true
	}
	return false
}
