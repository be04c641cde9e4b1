package forge

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Global ID prefixes used by the GraphQL API.
const (
	gidProject = "gid://gitlab/Project/"
	gidUser    = "gid://gitlab/User/"
)

// Query is a GraphQL request. Text must be a constant document; values
// supplied by users go in Variables.
type Query struct {
	Text      string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

var errGraphQL = errors.New("graphql error")

type graphQLResponse struct {
	Data   json.RawMessage   `json:"data"`
	Error  json.RawMessage   `json:"error"`
	Errors []json.RawMessage `json:"errors"`
}

// graphQLData extracts the data member, reporting an error when the
// response carries one.
func graphQLData(body []byte) (json.RawMessage, error) {
	var r graphQLResponse
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, fmt.Errorf("%w: %v", errGraphQL, err)
	}
	if len(r.Error) > 0 && string(r.Error) != "null" {
		return nil, fmt.Errorf("%w: %s", errGraphQL, r.Error)
	}
	if len(r.Errors) > 0 {
		return nil, fmt.Errorf("%w: %s", errGraphQL, r.Errors[0])
	}
	if len(r.Data) == 0 || string(r.Data) == "null" {
		return json.RawMessage("{}"), nil
	}
	return r.Data, nil
}

// GlobalID formats a numeric id as a GraphQL global id of the given kind
// ("Project", "Group", "User").
func GlobalID(kind string, id int64) string {
	return "gid://gitlab/" + kind + "/" + strconv.FormatInt(id, 10)
}

// parseGID strips prefix from gid and parses the numeric id.
func parseGID(gid, prefix string) (int64, error) {
	s, ok := strings.CutPrefix(gid, prefix)
	if !ok {
		return 0, fmt.Errorf("unexpected global id %q", gid)
	}
	return strconv.ParseInt(s, 10, 64)
}
