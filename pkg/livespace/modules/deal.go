package modules

import (
	"context"

	"github.com/angelmondragon/livespace-sdk/pkg/livespace"
)

type Deal struct {
	facade
}

func (d *Deal) GetAll(ctx context.Context, params livespace.Params) (*livespace.Response, error) {
	return d.call(ctx, "getAll", params)
}

func (d *Deal) Get(ctx context.Context, id string) (*livespace.Response, error) {
	return d.call(ctx, "getDeal", withID(id, livespace.Params{}))
}

func (d *Deal) Add(ctx context.Context, fields livespace.Params) (*livespace.Response, error) {
	return d.call(ctx, "addDeal", wrap("deal", fields))
}

func (d *Deal) Edit(ctx context.Context, id string, fields livespace.Params) (*livespace.Response, error) {
	return d.call(ctx, "editDeal", wrap("deal", withID(id, fields)))
}

func (d *Deal) Delete(ctx context.Context, id string) (*livespace.Response, error) {
	return d.call(ctx, "deleteDeal", withID(id, livespace.Params{}))
}
