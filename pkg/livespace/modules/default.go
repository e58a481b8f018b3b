package modules

import (
	"context"

	"github.com/angelmondragon/livespace-sdk/pkg/livespace"
)

type Default struct {
	facade
}

// Ping echoes params back. Useful to check credentials.
func (d *Default) Ping(ctx context.Context, params livespace.Params) (*livespace.Response, error) {
	return d.call(ctx, "ping", params)
}
