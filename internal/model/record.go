package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Record is the domain model for a managed entry.
// Backends expose identity as either "id" or "_id"; use Key to read it.
type Record struct {
	ID          string `json:"id,omitempty"`
	AltID       string `json:"_id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description"`
	CreatedAt   string `json:"createdAt,omitempty"`
}

// UnmarshalJSON accepts "id", "_id" and "createdAt" as JSON strings or
// numbers (serial keys, epoch milliseconds). null reads as absent.
func (r *Record) UnmarshalJSON(b []byte) error {
	var raw struct {
		ID          json.RawMessage `json:"id"`
		AltID       json.RawMessage `json:"_id"`
		Name        *string         `json:"name"`
		Description *string         `json:"description"`
		CreatedAt   json.RawMessage `json:"createdAt"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	var out Record
	var err error
	if out.ID, err = scalar("id", raw.ID); err != nil {
		return err
	}
	if out.AltID, err = scalar("_id", raw.AltID); err != nil {
		return err
	}
	if out.CreatedAt, err = scalar("createdAt", raw.CreatedAt); err != nil {
		return err
	}
	if raw.Name != nil {
		out.Name = *raw.Name
	}
	if raw.Description != nil {
		out.Description = *raw.Description
	}
	*r = out
	return nil
}

// scalar returns the text of a JSON string or number.
func scalar(field string, b json.RawMessage) (string, error) {
	if len(b) == 0 {
		return "", nil
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return "", err
	}
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case json.Number:
		return x.String(), nil
	}
	return "", fmt.Errorf("%s: want a string or number, got %s", field, b)
}

// Key returns the record identity: "id" when set, otherwise "_id".
func (r Record) Key() string {
	if r.ID != "" {
		return r.ID
	}
	return r.AltID
}

// SameRecord reports whether a and b share an identity.
// Records without any identity never match.
func SameRecord(a, b Record) bool {
	k := a.Key()
	return k != "" && k == b.Key()
}

// DisplayName is the name used in prompts; unnamed records read "this record".
func (r Record) DisplayName() string {
	if strings.TrimSpace(r.Name) == "" {
		return "this record"
	}
	return r.Name
}

// Created parses CreatedAt as RFC 3339 or as epoch milliseconds. ok is
// false when it is missing or neither.
func (r Record) Created() (t time.Time, ok bool) {
	if r.CreatedAt == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, r.CreatedAt); err == nil {
		return t, true
	}
	if ms, err := strconv.ParseInt(r.CreatedAt, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), true
	}
	return time.Time{}, false
}

// Payload is the create body. Both keys are always sent.
type Payload struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Patch is the partial update body.
type Patch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// PatchFrom turns a full form payload into an update body.
func PatchFrom(p Payload) Patch {
	name, desc := p.Name, p.Description
	return Patch{Name: &name, Description: &desc}
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool { return p.Name == nil && p.Description == nil }
