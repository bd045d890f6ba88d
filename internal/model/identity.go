package model

// Identity is an opaque per-client token, stable across sessions once persisted
type Identity string

// String returns the identity as a plain string
func (i Identity) String() string {
	return string(i)
}
