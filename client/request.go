package client

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

const persistedQueryKey = "persistedQuery"

type PersistedQueryExtension struct {
	Version    int64  `json:"version"`
	Sha256Hash string `json:"sha256Hash"`
}

// buildPayload shapes the wire payload for one attempt. autoPersistQueries
// adds the persistedQuery extension, sendQueryDocument includes the document
// itself; a retry that should both identify and register the hash sets both.
func buildPayload(req Request, sendQueryDocument, autoPersistQueries bool) (OperationRequest, error) {
	payload := OperationRequest{
		OperationName: req.OperationName,
	}

	if autoPersistQueries {
		if req.OperationID == "" {
			return OperationRequest{}, ErrOperationIDRequired
		}

		payload.Extensions = map[string]interface{}{
			persistedQueryKey: PersistedQueryExtension{
				Version:    1,
				Sha256Hash: req.OperationID,
			},
		}
	}

	if vars := compactVariables(req.Variables); len(vars) > 0 {
		payload.Variables = vars
	}

	if sendQueryDocument {
		payload.Query = normalizeFragmentSpacing(req.Query)
	}

	return payload, nil
}

// compactVariables drops entries without a value so they never serialize as
// explicit nulls.
func compactVariables(vars map[string]interface{}) map[string]interface{} {
	if vars == nil {
		return nil
	}

	out := make(map[string]interface{}, len(vars))
	for k, v := range vars {
		if v == nil {
			continue
		}
		out[k] = v
	}

	return out
}

// normalizeFragmentSpacing inserts a blank line before each fragment
// definition. Code-generated documents glue fragments to the operation text;
// the separator keeps the document bytes identical to what those generators
// hash.
func normalizeFragmentSpacing(query string) string {
	return strings.ReplaceAll(query, "fragment", "\n\nfragment")
}

func hashOperation(query string) string {
	sum := sha256.Sum256([]byte(query))
	return fmt.Sprintf("%x", sum)
}

// newHTTPRequest assembles the http.Request for one attempt. The payload is a
// JSON POST body, or flattened into URL query items when useGET is set.
func (h *HTTP) newHTTPRequest(req Request, sendQueryDocument, autoPersistQueries, useGET bool) (*http.Request, error) {
	payload, err := buildPayload(req, sendQueryDocument, autoPersistQueries)
	if err != nil {
		return nil, err
	}

	var hreq *http.Request
	if useGET {
		hreq, err = http.NewRequestWithContext(req.Context, http.MethodGet, h.URL, nil)
		if err != nil {
			return nil, err
		}
		hreq.URL.RawQuery = h.queryItems(payload).Encode()
	} else {
		body, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}

		hreq, err = http.NewRequestWithContext(req.Context, http.MethodPost, h.URL, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
	}

	hreq.Header.Set("Content-Type", "application/json")
	hreq.Header.Set("Accept", "application/json")
	if req.OperationID != "" {
		hreq.Header.Set("X-APOLLO-OPERATION-ID", req.OperationID)
	}

	applyHeaders(hreq, h.Headers)
	applyHeaders(hreq, req.Headers)

	if hreq.Header.Get("X-Request-ID") == "" {
		hreq.Header.Set("X-Request-ID", uuid.NewString())
	}

	return hreq, nil
}

// queryItems flattens the payload into URL query items: string fields pass
// through as-is, nested objects are JSON-encoded. A field that fails to
// serialize is logged and omitted rather than failing the request.
func (h *HTTP) queryItems(payload OperationRequest) url.Values {
	q := url.Values{}

	if payload.Query != "" {
		q.Set("query", payload.Query)
	}
	if payload.OperationName != "" {
		q.Set("operationName", payload.OperationName)
	}
	if len(payload.Variables) > 0 {
		h.setJSONItem(q, "variables", payload.Variables)
	}
	if len(payload.Extensions) > 0 {
		h.setJSONItem(q, "extensions", payload.Extensions)
	}

	return q
}

func (h *HTTP) setJSONItem(q url.Values, key string, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		h.logger().WithError(err).WithField("field", key).Warn("dropping request field that failed to serialize")
		return
	}

	q.Set(key, string(b))
}

// applyHeaders overrides defaults with the first value of each header and
// appends the rest, so multi-valued headers survive intact.
func applyHeaders(hreq *http.Request, headers Header) {
	for k, vs := range headers {
		replaced := false
		for _, v := range vs {
			if v == "" {
				continue
			}

			if !replaced {
				hreq.Header.Set(k, v)
				replaced = true
				continue
			}

			hreq.Header.Add(k, v)
		}
	}
}
