package contract

import (
	"encoding/json"
	"errors"
	"reflect"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"portfolio/app/internal/content"
)

type validator interface {
	Validate() error
}

func requireMessage(message string) error {
	if strings.TrimSpace(message) == "" {
		return &content.ValidationError{Field: "message", Message: "Expected a message"}
	}
	return nil
}

// DecodeResponse parses body using the shape documented for status and
// validates the result. Undocumented statuses are rejected.
func (r Route) DecodeResponse(status int, body []byte) (any, error) {
	response, ok := r.Responses[status]
	if !ok || response.Body == nil {
		return nil, eris.Errorf("%s: undocumented response status %d", r.Name, status)
	}

	target := reflect.New(reflect.TypeOf(response.Body))
	if err := json.Unmarshal(body, target.Interface()); err != nil {
		return nil, eris.Wrapf(err, "%s: decoding %d response body", r.Name, status)
	}

	value := target.Elem().Interface()
	if err := validateValue(target.Elem()); err != nil {
		return nil, eris.Wrapf(err, "%s: validating %d response body", r.Name, status)
	}

	return value, nil
}

// Decode is the typed form of Route.DecodeResponse.
func Decode[T any](r Route, status int, body []byte) (T, error) {
	var zero T

	value, err := r.DecodeResponse(status, body)
	if err != nil {
		return zero, err
	}

	typed, ok := value.(T)
	if !ok {
		return zero, eris.Errorf("%s: %d response is %T, not %T", r.Name, status, value, zero)
	}
	return typed, nil
}

// ParseBody decodes a JSON request body into T and runs its validator.
// Malformed JSON and type mismatches come back as *content.ValidationError.
func ParseBody[T any](body []byte) (T, error) {
	var input T

	if err := json.Unmarshal(body, &input); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return input, &content.ValidationError{
				Field:   typeErr.Field,
				Message: "Expected " + typeErr.Type.String(),
			}
		}
		return input, &content.ValidationError{Message: MessageInvalidJSON}
	}

	if v, ok := any(input).(validator); ok {
		if err := v.Validate(); err != nil {
			return input, err
		}
	}
	return input, nil
}

func validateValue(value reflect.Value) error {
	if value.Kind() == reflect.Slice {
		for i := 0; i < value.Len(); i++ {
			if err := validateValue(value.Index(i)); err != nil {
				return prefixField(err, strconv.Itoa(i))
			}
		}
		return nil
	}

	if v, ok := value.Interface().(validator); ok {
		return v.Validate()
	}
	return nil
}

func prefixField(err error, prefix string) error {
	var verr *content.ValidationError
	if !errors.As(err, &verr) {
		return err
	}

	field := prefix
	if verr.Field != "" {
		field = prefix + "." + verr.Field
	}
	return &content.ValidationError{Field: field, Message: verr.Message}
}
