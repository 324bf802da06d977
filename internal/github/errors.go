package github

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrMissingToken = errors.New("github token is required")

// TransportError reports a request that did not produce an HTTP 200. StatusCode
// is 0 when no response was received.
type TransportError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		if e.StatusCode != 0 {
			return fmt.Sprintf("graphql request failed: %d: %v", e.StatusCode, e.Err)
		}
		return fmt.Sprintf("graphql request failed: %v", e.Err)
	}
	return fmt.Sprintf("graphql query failed: %d - %s", e.StatusCode, strings.TrimSpace(e.Body))
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// GraphQLError is one entry of the response "errors" list.
type GraphQLError struct {
	Message   string            `json:"message"`
	Type      string            `json:"type,omitempty"`
	Path      []any             `json:"path,omitempty"`
	Locations []GraphQLLocation `json:"locations,omitempty"`
}

type GraphQLLocation struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// QueryError carries the errors reported by the API. Raw holds the list as
// received.
type QueryError struct {
	Errors []GraphQLError
	Raw    json.RawMessage
}

func (e *QueryError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("graphql errors: %s", string(e.Raw))
	}
	messages := make([]string, 0, len(e.Errors))
	for _, gqlErr := range e.Errors {
		msg := gqlErr.Message
		if gqlErr.Type != "" {
			msg = fmt.Sprintf("%s (%s)", msg, gqlErr.Type)
		}
		messages = append(messages, msg)
	}
	return "graphql errors: " + strings.Join(messages, "; ")
}

// ProtocolError means the body was readable but not shaped like a search
// response.
type ProtocolError struct {
	Reason string
	Err    error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}
