// Package model defines the records and response envelopes used by the API.
// It keeps transport-level types in one place for reuse.
package model

// User is the fixed record every fetch endpoint resolves.
type User struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// ChainResult is the value produced by the final step of the chain.
type ChainResult struct {
	User User   `json:"user"`
	HTML string `json:"html"`
}

// DataEnvelope is the success payload of the user fetch endpoints.
type DataEnvelope struct {
	OK    bool   `json:"ok"`
	Style string `json:"style"`
	Data  User   `json:"data"`
}

// ChainEnvelope is the success payload of the chain endpoint.
type ChainEnvelope struct {
	OK     bool        `json:"ok"`
	Style  string      `json:"style"`
	Result ChainResult `json:"result"`
	Log    []string    `json:"log"`
}

// ErrorEnvelope is returned with status 500 for every failed request.
type ErrorEnvelope struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
	Route string `json:"route"` // request URI as sent by the client
}
