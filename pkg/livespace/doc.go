// Package livespace is a client for the Livespace CRM public API.
//
// Every method call is a form-encoded POST carrying a single "data" field
// whose value is the JSON encoded parameters merged with the session
// credentials. Sessions are obtained from the auth endpoint with the account
// API key and proven with a SHA-1 signature over key, server token and API
// secret. A call answered with result 563 renews the session and is retried
// exactly once.
package livespace
