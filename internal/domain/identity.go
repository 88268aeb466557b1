package domain

import (
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
)

// Identity is who acts on a case: an authenticated user, or an anonymous
// client known only by its IP address. Raw IPs are never stored; IPHash is a
// BLAKE2b-256 digest of the address.
type Identity struct {
	UserID uuid.UUID
	IPHash string
}

// NewIdentity builds an identity from an optional user id and the raw client IP.
func NewIdentity(userID uuid.UUID, clientIP string) Identity {
	return Identity{UserID: userID, IPHash: HashIP(clientIP)}
}

// HashIP returns the hex BLAKE2b-256 digest of a normalized IP, or "" for an empty address.
func HashIP(ip string) string {
	ip = strings.ToLower(strings.TrimSpace(ip))
	if ip == "" {
		return ""
	}
	sum := blake2b.Sum256([]byte(ip))
	return hex.EncodeToString(sum[:])
}

// Authenticated reports whether the identity belongs to a signed-in user.
func (i Identity) Authenticated() bool { return i.UserID != uuid.Nil }

// IsZero reports whether nothing is known about the identity.
func (i Identity) IsZero() bool { return i.UserID == uuid.Nil && i.IPHash == "" }

// Key is the quota/statistics key: the user id when authenticated, else the IP hash.
func (i Identity) Key() string {
	if i.Authenticated() {
		return "user:" + i.UserID.String()
	}
	return "ip:" + i.IPHash
}

// Same reports whether two identities plausibly belong to the same person.
// Two signed-in identities compare by user id only; the client address is
// consulted when at least one side is anonymous.
func (i Identity) Same(other Identity) bool {
	if i.Authenticated() && other.Authenticated() {
		return i.UserID == other.UserID
	}
	return i.IPHash != "" && i.IPHash == other.IPHash
}
