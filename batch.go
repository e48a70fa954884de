package jsonrpc

import (
	"encoding/json"
	"errors"
)

// BatchRequest represents a JSON-RPC 2.0 batch request as per specs
type BatchRequest []*Request

// ResponseOrError is implemented by *Response and *Error, the two entities a
// batch reply entry can hold for a given request id.
type ResponseOrError interface {
	isResponseOrError()
}

func (*Response) isResponseOrError() {}
func (*Error) isResponseOrError()    {}

// BatchResponse represents a JSON-RPC 2.0 batch response as per specs. Each
// entry is either a *Response (call succeeded) or a standalone *Error (call
// failed), mirroring how a batch reply mixes both on the wire.
type BatchResponse []ResponseOrError

// NewBatchResponseFromResponses builds a batch reply containing only
// successful responses.
func NewBatchResponseFromResponses(responses []*Response) BatchResponse {
	br := make(BatchResponse, len(responses))
	for i, r := range responses {
		br[i] = r
	}
	return br
}

// NewBatchResponseFromErrors builds a batch reply containing only errors.
func NewBatchResponseFromErrors(errs []*Error) BatchResponse {
	br := make(BatchResponse, len(errs))
	for i, e := range errs {
		br[i] = e
	}
	return br
}

// NewBatchResponseMixed builds a batch reply from both successful responses
// and errors, responses first.
func NewBatchResponseMixed(responses []*Response, errs []*Error) BatchResponse {
	br := make(BatchResponse, 0, len(responses)+len(errs))
	for _, r := range responses {
		br = append(br, r)
	}
	for _, e := range errs {
		br = append(br, e)
	}
	return br
}

// UnmarshalJSON is a custom JSON unmarshaler for the BatchRequest type
func (b *BatchRequest) UnmarshalJSON(data []byte) error {
	// First check if it's an empty array which is not allowed as per the specs
	if string(data) == "[]" {
		return errors.New("invalid batch request: empty array")
	}

	// Try to unmarshal as an array
	var raw []json.RawMessage
	err := json.Unmarshal(data, &raw)
	if err != nil {
		return err
	}

	if len(raw) == 0 {
		return errors.New("invalid batch request: empty array")
	}

	// Each entry is a request or, when it carries no id, a notification,
	// which is kept as a Request with a nil Id.
	requests := make([]*Request, len(raw))
	for i, entry := range raw {
		request := &Request{}
		if err := json.Unmarshal(entry, request); err != nil {
			notification := &Notification{}
			if json.Unmarshal(entry, notification) != nil {
				return err
			}
			request = &Request{Jsonrpc: notification.Jsonrpc, Method: notification.Method, Params: notification.Params}
		}
		requests[i] = request
	}

	*b = requests
	return nil
}

// UnmarshalJSON is a custom JSON unmarshaler for the BatchResponse type. Each
// element is classified as a *Response or a standalone *Error by probing for
// an "error" member the way transport/base.MessageType classifies inbound
// frames.
func (b *BatchResponse) UnmarshalJSON(data []byte) error {
	if string(data) == "[]" {
		return errors.New("invalid batch response: empty array")
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) == 0 {
		return errors.New("invalid batch response: empty array")
	}

	br := make(BatchResponse, len(raw))
	for i, entry := range raw {
		probe := struct {
			Result json.RawMessage `json:"result"`
			Error  json.RawMessage `json:"error"`
		}{}
		if err := json.Unmarshal(entry, &probe); err != nil {
			return err
		}
		if probe.Result == nil && probe.Error != nil {
			anError := &Error{}
			if err := json.Unmarshal(entry, anError); err != nil {
				return err
			}
			br[i] = anError
			continue
		}
		response := &Response{}
		if err := json.Unmarshal(entry, response); err != nil {
			return err
		}
		br[i] = response
	}

	*b = br
	return nil
}
