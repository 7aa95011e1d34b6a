package guardtheory

import "encoding/json"

// Envelope is the canonical response model for mutation-guarded operations.
//
// Exactly one of Data/Error is populated. Status travels out of band (it is
// the HTTP status the transport should write), so envelope bytes stay stable
// across transports and replays.
type Envelope struct {
	OK    bool            `json:"ok"`
	Data  json.RawMessage `json:"data,omitempty"`
	Meta  map[string]any  `json:"meta,omitempty"`
	Error *EnvelopeError  `json:"error,omitempty"`

	Status   int  `json:"-"`
	Replayed bool `json:"-"`
}

// EnvelopeError is the error half of the envelope contract.
type EnvelopeError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Success builds a success envelope. Status 0 defaults to 200.
func Success(status int, data any) (*Envelope, error) {
	if status == 0 {
		status = 200
	}
	var raw json.RawMessage
	if data != nil {
		body, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		raw = body
	}
	return &Envelope{OK: true, Data: raw, Status: status}, nil
}

// MustSuccess builds a success envelope and panics on marshal failure.
func MustSuccess(status int, data any) *Envelope {
	env, err := Success(status, data)
	if err != nil {
		panic(err)
	}
	return env
}

// ErrorEnvelope builds the error envelope for err. Non-GuardError values are
// rendered as a generic internal error so nothing unexpected leaks.
func ErrorEnvelope(err error) *Envelope {
	guardErr, ok := AsGuardError(err)
	if !ok {
		guardErr = internalError(err)
	}
	return &Envelope{
		OK: false,
		Error: &EnvelopeError{
			Code:    guardErr.Code,
			Message: guardErr.Message,
			Details: guardErr.Details,
		},
		Status: guardErr.Status(),
	}
}

// Encode renders the envelope to its canonical JSON bytes.
//
// encoding/json emits map keys in sorted order, so encoding is byte-stable:
// a replayed envelope decoded and re-encoded yields identical bytes.
func (e *Envelope) Encode() ([]byte, error) {
	if e == nil {
		return nil, errNilEnvelope
	}
	return json.Marshal(e)
}

// DecodeEnvelope parses stored envelope bytes back into an Envelope.
func DecodeEnvelope(body []byte, status int) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, err
	}
	env.Status = status
	return &env, nil
}

var errNilEnvelope = NewGuardError(CodeInternal, messageInternal)
