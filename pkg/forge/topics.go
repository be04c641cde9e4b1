package forge

import (
	"context"
	"fmt"
	"iter"
	"net/url"
	"strconv"
)

// TopicService covers the /topics endpoints.
type TopicService struct {
	Transport Transport
	BaseURL   string
	PerPage   int
}

// List pages through every topic.
func (s *TopicService) List(ctx context.Context) iter.Seq2[[]Topic, error] {
	return Pages[Topic](ctx, s.Transport, s.BaseURL+"/topics?per_page="+strconv.Itoa(s.PerPage))
}

// Get fetches one topic.
func (s *TopicService) Get(ctx context.Context, id int64) (*Topic, error) {
	var t Topic
	if err := s.Transport.GetJSON(ctx, s.BaseURL+"/topics/"+strconv.FormatInt(id, 10), &t); err != nil {
		return nil, fmt.Errorf("topic %d: %w", id, err)
	}
	return &t, nil
}

// Search pages through topics matching q.
func (s *TopicService) Search(ctx context.Context, q string) iter.Seq2[[]Topic, error] {
	return Pages[Topic](ctx, s.Transport, s.BaseURL+"/topics?search="+url.QueryEscape(q))
}
