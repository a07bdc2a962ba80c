package scanner

// PackageType represents the type of artifact
type PackageType int

const (
	TypeUnknown PackageType = iota
	TypeWheel
)

// String returns the string representation of PackageType
func (pt PackageType) String() string {
	switch pt {
	case TypeWheel:
		return "wheel"
	default:
		return "unknown"
	}
}
