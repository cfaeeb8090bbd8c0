package client

import (
	"context"
	"encoding/json"
	"github.com/vektah/gqlparser/v2/gqlerror"
)

type Operation string

const (
	Query        Operation = "query"
	Mutation     Operation = "mutation"
	Subscription Operation = "subscription"
)

// Request describes a single GraphQL operation to execute. OperationID is the
// stable sha256 identifier of the query document; it is required whenever the
// transport sends a persisted-query hash instead of the document itself.
type Request struct {
	Context   context.Context
	Operation Operation

	OperationName string
	Query         string
	Variables     map[string]interface{}
	OperationID   string
	Headers       Header
}

// OperationRequest is the wire payload of one attempt. Exactly which keys are
// populated depends on the persisted-query strategy of the attempt, so it is
// always built through buildPayload rather than by hand.
type OperationRequest struct {
	Query         string                 `json:"query,omitempty"`
	OperationName string                 `json:"operationName,omitempty"`
	Variables     map[string]interface{} `json:"variables,omitempty"`
	Extensions    map[string]interface{} `json:"extensions,omitempty"`
}

type OperationResponse struct {
	Data       json.RawMessage `json:"data,omitempty"`
	Errors     gqlerror.List   `json:"errors,omitempty"`
	Extensions RawExtensions   `json:"extensions,omitempty"`
}

func (r OperationResponse) UnmarshalData(t interface{}) error {
	if r.Data == nil {
		return nil
	}

	return json.Unmarshal(r.Data, t)
}

type RawExtensions map[string]json.RawMessage

func (es RawExtensions) Unmarshal(name string, t interface{}) error {
	if es == nil {
		return nil
	}

	ex, ok := es[name]
	if !ok {
		return nil
	}

	return json.Unmarshal(ex, t)
}

// Completion receives the outcome of a Send. Exactly one of res, err is
// non-nil, and it is invoked exactly once per Send, possibly on a different
// goroutine than the caller's.
type Completion func(res *OperationResponse, err error)

// CancelFunc aborts the in-flight first attempt of a Send. It has no effect
// once the persisted-query retry has started.
type CancelFunc func()

type Transport interface {
	Request(req Request) Response
}
