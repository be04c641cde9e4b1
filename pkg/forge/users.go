package forge

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
)

// UserService covers the /users endpoints.
type UserService struct {
	Transport Transport
	BaseURL   string
}

// Projects lists the projects owned by a user.
func (s *UserService) Projects(ctx context.Context, id int64) ([]Project, error) {
	var out []Project
	u := s.BaseURL + "/users/" + strconv.FormatInt(id, 10) + "/projects"
	if err := s.Transport.GetJSON(ctx, u, &out); err != nil {
		return nil, fmt.Errorf("projects of user %d: %w", id, err)
	}
	return out, nil
}

// Status returns the raw status document of a user. Its shape is not
// stable across forge versions.
func (s *UserService) Status(ctx context.Context, id int64) (json.RawMessage, error) {
	var out json.RawMessage
	u := s.BaseURL + "/users/" + strconv.FormatInt(id, 10) + "/status"
	if err := s.Transport.GetJSON(ctx, u, &out); err != nil {
		return nil, fmt.Errorf("status of user %d: %w", id, err)
	}
	return out, nil
}
