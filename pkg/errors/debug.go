package errors

import (
	"errors"
	"fmt"
	"net"
	"net/url"
)

type ErrorDump struct {
	TopMessage string `json:"top_message"`
	Code       Code   `json:"code,omitempty"`
	Result     int    `json:"result,omitempty"`
	Details    any    `json:"details,omitempty"`

	Chain []string `json:"chain,omitempty"`

	URL     string `json:"url,omitempty"`
	Op      string `json:"op,omitempty"`
	Timeout bool   `json:"timeout,omitempty"`
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{
		TopMessage: err.Error(),
		Code:       CodeOf(err),
	}

	if te := As(err); te != nil {
		d.Result = te.Result()
		if MetadataFor(te.Code()).DetailsAllowed {
			d.Details = te.Details()
		}
	}

	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		d.URL = urlErr.URL
		d.Op = urlErr.Op
		d.Timeout = urlErr.Timeout()
		return d
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		d.Timeout = netErr.Timeout()
	}

	return d
}
