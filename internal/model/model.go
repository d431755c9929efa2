package model

// KeyStatus is the lifecycle state of a stored public key.
// The integer values are part of the storage format and must not change.
type KeyStatus int

const (
	// KeyStatusActive marks a key as currently authorized for its user.
	KeyStatusActive KeyStatus = 0
	// KeyStatusRevoked marks a key as withdrawn. Revoked rows are kept
	// forever as history and are never flipped back to active.
	KeyStatusRevoked KeyStatus = 1
)

// User is a registered identity on the network. The username is the
// primary identity for all other entities and is immutable once created.
type User struct {
	Username string `json:"username"`
}

// PublicKey is one stored key row for a user. The same material may appear
// in several rows over time; re-adding previously revoked material creates
// a fresh row rather than resurrecting the old one.
type PublicKey struct {
	ID       int       `json:"id"`
	Username string    `json:"username"`
	Material string    `json:"material"`
	Status   KeyStatus `json:"status"`
}

// Active reports whether the key is currently authorized.
func (k PublicKey) Active() bool { return k.Status == KeyStatusActive }

// Endpoint is one published network address for a user. Endpoints carry no
// history: removed addresses are deleted outright.
type Endpoint struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Address  string `json:"address"`
}
