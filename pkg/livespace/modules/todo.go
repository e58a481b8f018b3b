package modules

import (
	"context"

	"github.com/angelmondragon/livespace-sdk/pkg/livespace"
)

// Todo manages tasks.
type Todo struct {
	facade
}

func (t *Todo) GetAll(ctx context.Context, params livespace.Params) (*livespace.Response, error) {
	return t.call(ctx, "getAll", params)
}

func (t *Todo) AddTask(ctx context.Context, fields livespace.Params) (*livespace.Response, error) {
	return t.call(ctx, "addTask", wrap("task", fields))
}

func (t *Todo) EditTask(ctx context.Context, id string, fields livespace.Params) (*livespace.Response, error) {
	return t.call(ctx, "editTask", wrap("task", withID(id, fields)))
}

func (t *Todo) DeleteTask(ctx context.Context, id string) (*livespace.Response, error) {
	return t.call(ctx, "deleteTask", withID(id, livespace.Params{}))
}
