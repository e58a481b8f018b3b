package modules

import (
	"context"

	"github.com/angelmondragon/livespace-sdk/pkg/livespace"
)

// Contact covers people and companies, which the API keeps in one module.
type Contact struct {
	facade
}

// GetAll lists contacts. params carries filters and paging as the API
// defines them.
func (c *Contact) GetAll(ctx context.Context, params livespace.Params) (*livespace.Response, error) {
	return c.call(ctx, "getAll", params)
}

func (c *Contact) Get(ctx context.Context, id string) (*livespace.Response, error) {
	return c.call(ctx, "getContact", withID(id, livespace.Params{}))
}

func (c *Contact) Add(ctx context.Context, fields livespace.Params) (*livespace.Response, error) {
	return c.call(ctx, "addContact", wrap("contact", fields))
}

func (c *Contact) Edit(ctx context.Context, id string, fields livespace.Params) (*livespace.Response, error) {
	return c.call(ctx, "editContact", wrap("contact", withID(id, fields)))
}

func (c *Contact) Delete(ctx context.Context, id string) (*livespace.Response, error) {
	return c.call(ctx, "deleteContact", withID(id, livespace.Params{}))
}

func (c *Contact) GetCompany(ctx context.Context, id string) (*livespace.Response, error) {
	return c.call(ctx, "getCompany", withID(id, livespace.Params{}))
}

func (c *Contact) AddCompany(ctx context.Context, fields livespace.Params) (*livespace.Response, error) {
	return c.call(ctx, "addCompany", wrap("company", fields))
}

func (c *Contact) EditCompany(ctx context.Context, id string, fields livespace.Params) (*livespace.Response, error) {
	return c.call(ctx, "editCompany", wrap("company", withID(id, fields)))
}

func (c *Contact) DeleteCompany(ctx context.Context, id string) (*livespace.Response, error) {
	return c.call(ctx, "deleteCompany", withID(id, livespace.Params{}))
}
