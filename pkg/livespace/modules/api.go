// Package modules groups Livespace API methods by module. Facades only shape
// parameters; every request goes through livespace.Caller and errors are
// returned untranslated.
package modules

import (
	"context"
	"strings"

	"github.com/angelmondragon/livespace-sdk/pkg/livespace"
)

// API bundles the module facades sharing one caller.
type API struct {
	Default *Default
	Contact *Contact
	Deal    *Deal
	Todo    *Todo
	Search  *Search
}

// New builds the facades on top of an existing caller.
func New(caller livespace.Caller) *API {
	return &API{
		Default: &Default{facade{caller: caller, module: "Default"}},
		Contact: &Contact{facade{caller: caller, module: "Contact"}},
		Deal:    &Deal{facade{caller: caller, module: "Deal"}},
		Todo:    &Todo{facade{caller: caller, module: "Todo"}},
		Search:  &Search{facade{caller: caller, module: "Search"}},
	}
}

// Construct builds a client and wraps it in facades.
func Construct(baseURL, apiKey, apiSecret string, opts ...livespace.Option) (*API, error) {
	client, err := livespace.NewClient(baseURL, apiKey, apiSecret, opts...)
	if err != nil {
		return nil, err
	}
	return New(client), nil
}

type facade struct {
	caller livespace.Caller
	module string
}

func (f facade) call(ctx context.Context, method string, params livespace.Params) (*livespace.Response, error) {
	return f.caller.Call(ctx, f.module, method, params)
}

func withID(id string, params livespace.Params) livespace.Params {
	out := params.Clone()
	out.Set("id", livespace.String(strings.TrimSpace(id)))
	return out
}

// wrap nests fields under key, the shape add/edit methods expect.
func wrap(key string, fields livespace.Params) livespace.Params {
	var out livespace.Params
	out.Set(key, livespace.Map(fields))
	return out
}
