package modules

import (
	"context"

	"github.com/angelmondragon/livespace-sdk/pkg/livespace"
)

type Search struct {
	facade
}

// Query runs a full text search. params may narrow the searched entities;
// q always carries query.
func (s *Search) Query(ctx context.Context, query string, params livespace.Params) (*livespace.Response, error) {
	out := params.Clone()
	out.Set("q", livespace.String(query))
	return s.call(ctx, "search", out)
}
