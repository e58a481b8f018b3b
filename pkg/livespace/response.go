package livespace

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	pkgerrors "github.com/angelmondragon/livespace-sdk/pkg/errors"
)

const (
	ResultOK             = 200
	ResultParamsHandling = 550
	ResultSessionExpired = 563
)

var errorMessages = map[int]string{
	// method exceptions
	400: "General api method exception",
	420: "Validation error",
	// general api exceptions
	500: "General api exception",
	514: "Invalid module",
	515: "Invalid method",
	516: "Invalid output format",
	520: "Database error",
	530: "User not logged in",
	540: "Permission denied",
	550: "Params handling exception",
	// auth exceptions
	560: "Invalid method",
	561: "Invalid parameters",
	562: "Invalid api key",
	563: "Authorization failed",
	564: "Other exception",
}

// ErrorMessage returns the documented text for an API result code.
func ErrorMessage(result int) (string, bool) {
	msg, ok := errorMessages[result]
	return msg, ok
}

// Response is the {status, result, data, error} envelope wrapping every API
// answer. Data is only meaningful once Err returned nil.
type Response struct {
	Status bool
	Result int
	Data   json.RawMessage
	Error  json.RawMessage
}

type envelope struct {
	Status json.RawMessage `json:"status"`
	Result int             `json:"result"`
	Data   json.RawMessage `json:"data"`
	Error  json.RawMessage `json:"error"`
}

// ParseResponse decodes an HTTP body into a Response. Anything that is not a
// JSON object fails with a DESERIALIZE_ERROR.
func ParseResponse(body []byte) (*Response, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, pkgerrors.New(pkgerrors.CodeDeserialize, "invalid response from livespace api").
			WithDetails(snippet(trimmed))
	}
	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDeserialize, err, "invalid response from livespace api").
			WithDetails(snippet(trimmed))
	}
	return &Response{
		Status: truthy(env.Status),
		Result: env.Result,
		Data:   env.Data,
		Error:  env.Error,
	}, nil
}

// OK reports whether the envelope carries the success result code.
func (r *Response) OK() bool {
	return r != nil && r.Result == ResultOK
}

// Err classifies the envelope. It returns nil for result 200 and an
// *errors.Error for every other code.
func (r *Response) Err() error {
	if r == nil {
		return pkgerrors.New(pkgerrors.CodeDeserialize, "empty response")
	}
	switch r.Result {
	case ResultOK:
		return nil
	case ResultSessionExpired:
		return pkgerrors.NewResult(pkgerrors.CodeSessionExpired, r.Result, errorMessages[r.Result]).
			WithDetails(r.ErrorText())
	case ResultParamsHandling:
		fields := r.errorFields()
		msg := formatFields(fields)
		if msg == "" {
			msg = r.ErrorText()
		}
		if msg == "" {
			msg = errorMessages[r.Result]
		}
		return pkgerrors.NewResult(pkgerrors.CodeMethodValidation, r.Result, msg).WithDetails(fields)
	}

	if msg, ok := errorMessages[r.Result]; ok {
		err := pkgerrors.NewResult(pkgerrors.CodeAPI, r.Result, msg)
		if text := r.ErrorText(); text != "" {
			err.WithDetails(text)
		}
		return err
	}

	text := r.ErrorText()
	if text == "" {
		text = "unknown api error"
	}
	return pkgerrors.NewResult(pkgerrors.CodeAPI, r.Result, text)
}

// RaiseForStatus is an alias of Err.
func (r *Response) RaiseForStatus() error {
	return r.Err()
}

// Decode unmarshals Data into v after checking the result code.
func (r *Response) Decode(v any) error {
	if err := r.Err(); err != nil {
		return err
	}
	if len(r.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Data, v); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDeserialize, err, "decode response data")
	}
	return nil
}

// Get looks up a value inside Data using a gjson path.
func (r *Response) Get(path string) gjson.Result {
	if r == nil || len(r.Data) == 0 {
		return gjson.Result{}
	}
	return gjson.GetBytes(r.Data, path)
}

// ErrorText renders the server supplied error field as text. JSON null and
// empty strings yield "".
func (r *Response) ErrorText() string {
	if r == nil {
		return ""
	}
	res := gjson.ParseBytes(r.Error)
	switch res.Type {
	case gjson.Null:
		return ""
	case gjson.String:
		return strings.TrimSpace(res.String())
	default:
		var buf bytes.Buffer
		if err := json.Compact(&buf, r.Error); err != nil {
			return strings.TrimSpace(string(r.Error))
		}
		return buf.String()
	}
}

func (r *Response) errorFields() map[string]string {
	fields := map[string]string{}
	res := gjson.ParseBytes(r.Error)
	if !res.IsObject() {
		return fields
	}
	res.ForEach(func(key, value gjson.Result) bool {
		fields[key.String()] = fieldMessage(value)
		return true
	})
	return fields
}

func fieldMessage(value gjson.Result) string {
	switch {
	case value.Type == gjson.String:
		return value.String()
	case value.IsArray():
		parts := make([]string, 0, len(value.Array()))
		for _, item := range value.Array() {
			parts = append(parts, fieldMessage(item))
		}
		return strings.Join(parts, ", ")
	default:
		return value.Raw
	}
}

func formatFields(fields map[string]string) string {
	if len(fields) == 0 {
		return ""
	}
	parts := make([]string, 0, len(fields))
	for _, k := range sortedKeys(fields) {
		parts = append(parts, fmt.Sprintf("%s - %s", k, fields[k]))
	}
	return strings.Join(parts, " ")
}

func truthy(raw json.RawMessage) bool {
	res := gjson.ParseBytes(raw)
	switch res.Type {
	case gjson.True:
		return true
	case gjson.Number:
		return res.Int() != 0
	case gjson.String:
		s := strings.ToLower(res.String())
		return s == "true" || s == "1"
	}
	return false
}

func snippet(body []byte) string {
	const limit = 256
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}
