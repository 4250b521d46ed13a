package sdk

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// CodeSet is the set of envelope codes an endpoint family treats as success.
type CodeSet []int

func (s CodeSet) Has(code int) bool {
	for _, c := range s {
		if c == code {
			return true
		}
	}
	return false
}

// The two hosts disagree on the success code. Listing endpoints on the api
// host have answered with both, so they accept either.
var (
	ForumSuccess   = CodeSet{0}
	TaskSuccess    = CodeSet{1000}
	ListingSuccess = CodeSet{1000, 0}
)

// CodeAlreadyClaimed is returned by the reward endpoint for a reward that was
// already issued.
const CodeAlreadyClaimed = 4003

// Envelope is the common response body of both hosts.
type Envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Msg     string          `json:"msg"`
	Data    json.RawMessage `json:"data"`
}

func (e *Envelope) In(codes CodeSet) bool {
	return e != nil && codes.Has(e.Code)
}

// Text is the server's message, falling back to the code.
func (e *Envelope) Text() string {
	if e == nil {
		return "empty response"
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Msg != "" {
		return e.Msg
	}
	return fmt.Sprintf("code %d", e.Code)
}

// APIError is a non-2xx transport response.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("unexpected status %d", e.StatusCode)
}

// CodeError is a well formed response whose code is not a success code.
type CodeError struct {
	Code    int
	Message string
}

func (e *CodeError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("code %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("code %d", e.Code)
}

func codeError(e *Envelope) error {
	if e == nil {
		return &CodeError{Code: -1, Message: "empty response"}
	}
	return &CodeError{Code: e.Code, Message: e.Text()}
}

// Slot is one independently retried call inside an any-of combination.
type Slot struct {
	Envelope *Envelope
	Err      error
}

func (s Slot) OK(codes CodeSet) bool {
	return s.Err == nil && s.Envelope.In(codes)
}

func (s Slot) failure() error {
	if s.Err != nil {
		return s.Err
	}
	return codeError(s.Envelope)
}

// AnyOK reports whether at least one slot succeeded.
func AnyOK(codes CodeSet, slots ...Slot) bool {
	for _, slot := range slots {
		if slot.OK(codes) {
			return true
		}
	}
	return false
}

// ProgressResult holds both progress update endpoints. Either one reporting
// success counts.
type ProgressResult struct {
	Activity Slot
	Task     Slot
}

func (r ProgressResult) OK() bool {
	return AnyOK(TaskSuccess, r.Activity, r.Task)
}

// Err is nil when OK, otherwise both slot failures joined.
func (r ProgressResult) Err() error {
	if r.OK() {
		return nil
	}
	return errors.Join(r.Activity.failure(), r.Task.failure())
}

// idValue sends a numeric id as a JSON number and anything else as a string.
func idValue(id string) any {
	if id == "" {
		return id
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return id
		}
	}
	return json.Number(id)
}

// idString reads an id that may be a JSON string or number.
func idString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&n); err == nil && n.String() != "0" {
		return n.String()
	}
	return ""
}
