package entity

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknownType is returned by [ParseType] for names outside the four
// entity types.
var ErrUnknownType = errors.New("unknown entity type")

// Type is the category of a forge entity.
type Type string

// Entity types.
const (
	TypeProject Type = "project"
	TypeUser    Type = "user"
	TypeGroup   Type = "group"
	TypeTopic   Type = "topic"
)

// Types lists every entity type in display order.
var Types = []Type{TypeProject, TypeUser, TypeGroup, TypeTopic}

// Valid reports whether t is one of the known entity types.
func (t Type) Valid() bool {
	switch t {
	case TypeProject, TypeUser, TypeGroup, TypeTopic:
		return true
	}
	return false
}

// Plural returns the collection name used in URLs and share links
// ("projects", "users", ...).
func (t Type) Plural() string { return string(t) + "s" }

// ParseType converts a singular or plural type name to a Type.
func ParseType(s string) (Type, error) {
	t := Type(strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "s"))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownType, s)
	}
	return t, nil
}

// Key identifies an entity: its type plus its forge id.
type Key struct {
	Type Type
	ID   int64
}

// K is shorthand for Key{Type: t, ID: id}.
func K(t Type, id int64) Key { return Key{Type: t, ID: id} }

// String formats the key as "type:id".
func (k Key) String() string { return string(k.Type) + ":" + strconv.FormatInt(k.ID, 10) }

// ParseKey is the inverse of [Key.String].
func ParseKey(s string) (Key, error) {
	typ, id, ok := strings.Cut(s, ":")
	if !ok {
		return Key{}, fmt.Errorf("malformed entity key %q", s)
	}
	t, err := ParseType(typ)
	if err != nil {
		return Key{}, err
	}
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n < 0 {
		return Key{}, fmt.Errorf("malformed entity id in key %q", s)
	}
	return Key{Type: t, ID: n}, nil
}

// Entity is an immutable snapshot of a forge object.
type Entity interface {
	// Key returns the identity of the entity.
	Key() Key
	// Label returns a short display name.
	Label() string
}
