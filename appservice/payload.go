package appservice

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Payload is the first record of the introspection response
type Payload struct {
	UserID       string
	IDToken      string
	ProviderName string
	UserClaims   []Claim

	// SkippedClaims counts user_claims entries dropped for lacking typ or val
	SkippedClaims int
}

type payloadRecord struct {
	UserID       string            `json:"user_id" validate:"required"`
	IDToken      string            `json:"id_token"`
	ProviderName string            `json:"provider_name"`
	UserClaims   []json.RawMessage `json:"user_claims"`
}

// object is a decoded JSON object looked up by exact, case-sensitive key
// ("USER_ID" is not "user_id")
type object map[string]json.RawMessage

// field decodes the value under key into dst; an absent key leaves dst as is
func (o object) field(key string, dst interface{}) error {
	raw, ok := o[key]
	if !ok {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("field %s: %w", key, err)
	}
	return nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ParsePayload decodes the endpoint body. Only element 0 of the array is
// read. id_token, provider_name and user_claims are optional; user_id is not.
func ParsePayload(body []byte) (*Payload, error) {
	var records []json.RawMessage
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, newMalformedError(err)
	}
	if records == nil {
		return nil, newMalformedError(errors.New("payload is null"))
	}
	if len(records) == 0 {
		return nil, &Error{Kind: KindEmptyPayload, Message: ErrEmptyPayload.Message}
	}

	first := bytes.TrimSpace(records[0])
	if len(first) == 0 || first[0] != '{' {
		return nil, newMalformedError(errors.New("first record is not an object"))
	}

	var fields object
	if err := json.Unmarshal(first, &fields); err != nil {
		return nil, newMalformedError(err)
	}

	var rec payloadRecord
	for _, err := range []error{
		fields.field("user_id", &rec.UserID),
		fields.field("id_token", &rec.IDToken),
		fields.field("provider_name", &rec.ProviderName),
		fields.field("user_claims", &rec.UserClaims),
	} {
		if err != nil {
			return nil, newMalformedError(err)
		}
	}

	if err := validate.Struct(rec); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, &Error{
				Kind:    KindMissingField,
				Message: ErrMissingField.Message,
				Field:   verrs[0].Field(),
			}
		}
		return nil, newMalformedError(err)
	}

	payload := &Payload{
		UserID:       rec.UserID,
		IDToken:      rec.IDToken,
		ProviderName: rec.ProviderName,
		UserClaims:   make([]Claim, 0, len(rec.UserClaims)),
	}
	for _, raw := range rec.UserClaims {
		claim, ok := parseClaim(raw)
		if !ok {
			payload.SkippedClaims++
			continue
		}
		payload.UserClaims = append(payload.UserClaims, claim)
	}

	return payload, nil
}

// parseClaim reads a {"typ","val"} entry; both must be strings
func parseClaim(raw json.RawMessage) (Claim, bool) {
	var entry object
	if err := json.Unmarshal(raw, &entry); err != nil || entry == nil {
		return Claim{}, false
	}

	var typ, val *string
	if entry.field("typ", &typ) != nil || entry.field("val", &val) != nil || typ == nil || val == nil {
		return Claim{}, false
	}
	return Claim{Type: *typ, Value: *val}, true
}
