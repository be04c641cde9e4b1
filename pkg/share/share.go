package share

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/matzehuels/forgemap/pkg/entity"
	"github.com/matzehuels/forgemap/pkg/lzstring"
)

// ErrInvalidToken is returned when a query parameter cannot be decoded back
// into a list of ids.
var ErrInvalidToken = errors.New("invalid share token")

// Query parameter names.
const (
	ParamProjects = "projects"
	ParamUsers    = "users"
	ParamGroups   = "groups"
)

// RestorePath is the path shareable links point at.
const RestorePath = "/favoris"

// State is the shareable part of an exploration: materialized ids per type,
// in graph order.
type State struct {
	Projects []int64 `json:"projects"`
	Users    []int64 `json:"users"`
	Groups   []int64 `json:"groups"`
}

// IDs returns the id list for t, or nil for types a link does not carry.
func (s State) IDs(t entity.Type) []int64 {
	switch t {
	case entity.TypeProject:
		return s.Projects
	case entity.TypeUser:
		return s.Users
	case entity.TypeGroup:
		return s.Groups
	}
	return nil
}

// Empty reports whether the state holds no ids at all.
func (s State) Empty() bool {
	return len(s.Projects) == 0 && len(s.Users) == 0 && len(s.Groups) == 0
}

// Equal reports whether both states list the same ids in the same order.
func (s State) Equal(o State) bool {
	return slices.Equal(s.Projects, o.Projects) &&
		slices.Equal(s.Users, o.Users) &&
		slices.Equal(s.Groups, o.Groups)
}

// Encode produces one compressed query parameter per category. All three
// parameters are always present; an empty category encodes the empty string.
func Encode(s State) url.Values {
	v := url.Values{}
	v.Set(ParamProjects, EncodeIDs(s.Projects))
	v.Set(ParamUsers, EncodeIDs(s.Users))
	v.Set(ParamGroups, EncodeIDs(s.Groups))
	return v
}

// EncodeIDs compresses a single id list.
func EncodeIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return lzstring.CompressToEncodedURIComponent(strings.Join(parts, ","))
}

// Decode reverses [Encode]. A missing parameter yields an empty list.
func Decode(v url.Values) (State, error) {
	var s State
	var err error
	if s.Projects, err = decodeParam(v, ParamProjects); err != nil {
		return State{}, err
	}
	if s.Users, err = decodeParam(v, ParamUsers); err != nil {
		return State{}, err
	}
	if s.Groups, err = decodeParam(v, ParamGroups); err != nil {
		return State{}, err
	}
	return s, nil
}

func decodeParam(v url.Values, name string) ([]int64, error) {
	token := v.Get(name)
	if token == "" {
		return []int64{}, nil
	}
	ids, err := DecodeIDs(token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return ids, nil
}

// DecodeIDs decompresses a single token into its id list. The empty string
// decodes to an empty list.
func DecodeIDs(token string) ([]int64, error) {
	plain, err := lzstring.DecompressFromEncodedURIComponent(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if plain == "" {
		return []int64{}, nil
	}
	parts := strings.Split(plain, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil || id < 0 {
			return nil, fmt.Errorf("%w: bad id %q", ErrInvalidToken, p)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Link builds the shareable URL for s under base (scheme and host, optionally
// with a path prefix).
func Link(base string, s State) string {
	return strings.TrimSuffix(base, "/") + RestorePath + "?" + Encode(s).Encode()
}

// ParseLink decodes a link produced by [Link]. It also accepts a bare query
// string, with or without the leading '?'.
func ParseLink(raw string) (State, error) {
	raw = strings.TrimSpace(raw)
	query := raw
	if strings.Contains(raw, "://") || strings.HasPrefix(raw, "/") {
		u, err := url.Parse(raw)
		if err != nil {
			return State{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
		query = u.RawQuery
	}
	v, err := url.ParseQuery(strings.TrimPrefix(query, "?"))
	if err != nil {
		return State{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return Decode(v)
}
