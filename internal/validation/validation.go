// Package validation turns untyped request bodies into typed user inputs.
//
// Every field is checked and every violation collected, so a client can fix all
// problems of a payload in one round trip.
package validation

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"users-api/internal/apperror"
	"users-api/internal/domain"
)

const (
	nameRules  = "required,min=2,max=100"
	emailRules = "required,email"
	ageRules   = "min=0,max=120"

	msgValidationFailed = "validation failed"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ParseCreate validates a create payload; name and email are mandatory.
func ParseCreate(body map[string]any) (domain.CreateUserInput, error) {
	var c collector
	var in domain.CreateUserInput

	if name, ok := c.name(body, true); ok {
		in.Name = *name
	}
	if email, ok := c.email(body, true); ok {
		in.Email = *email
	}
	in.Age = c.age(body)

	if err := c.err(); err != nil {
		return domain.CreateUserInput{}, err
	}
	return in, nil
}

// ParseUpdate validates a partial update payload; fields that are present must be valid.
func ParseUpdate(body map[string]any) (domain.UpdateUserInput, error) {
	var c collector
	var in domain.UpdateUserInput

	if name, ok := c.name(body, false); ok {
		in.Name = name
	}
	if email, ok := c.email(body, false); ok {
		in.Email = email
	}
	in.Age = c.age(body)

	if err := c.err(); err != nil {
		return domain.UpdateUserInput{}, err
	}
	return in, nil
}

// ParseID validates a user id path parameter.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.Validation(msgValidationFailed, apperror.FieldError{
			Field:   "id",
			Message: "id must be a positive integer",
		})
	}
	return id, nil
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type collector struct {
	fields []apperror.FieldError
}

func (c *collector) add(field, message string) {
	c.fields = append(c.fields, apperror.FieldError{Field: field, Message: message})
}

func (c *collector) err() error {
	if len(c.fields) == 0 {
		return nil
	}
	return apperror.Validation(msgValidationFailed, c.fields...)
}

func (c *collector) name(body map[string]any, required bool) (*string, bool) {
	raw, present := lookup(body, "name")
	if !present {
		if required {
			c.add("name", "name is required")
		}
		return nil, false
	}
	s, ok := raw.(string)
	if !ok {
		c.add("name", "name must be a string")
		return nil, false
	}
	s = strings.TrimSpace(s)
	if err := validate.Var(s, nameRules); err != nil {
		c.add("name", nameMessage(err))
		return nil, false
	}
	return &s, true
}

func (c *collector) email(body map[string]any, required bool) (*string, bool) {
	raw, present := lookup(body, "email")
	if !present {
		if required {
			c.add("email", "email is required")
		}
		return nil, false
	}
	s, ok := raw.(string)
	if !ok {
		c.add("email", "email must be a string")
		return nil, false
	}
	s = strings.TrimSpace(s)
	if err := validate.Var(s, emailRules); err != nil {
		if tag(err) == "required" {
			c.add("email", "email is required")
		} else {
			c.add("email", "invalid email address")
		}
		return nil, false
	}
	s = NormalizeEmail(s)
	return &s, true
}

// age treats a missing or null age as not supplied.
func (c *collector) age(body map[string]any) *int {
	raw, present := lookup(body, "age")
	if !present {
		return nil
	}
	n, ok := toInt(raw)
	if !ok {
		c.add("age", ageMessage)
		return nil
	}
	if err := validate.Var(n, ageRules); err != nil {
		c.add("age", ageMessage)
		return nil
	}
	return &n
}

const ageMessage = "age must be an integer between 0 and 120"

func nameMessage(err error) string {
	if tag(err) == "required" {
		return "name is required"
	}
	return "name must be between 2 and 100 characters"
}

func tag(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return verrs[0].Tag()
	}
	return ""
}

func lookup(body map[string]any, key string) (any, bool) {
	v, ok := body[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) || n > math.MaxInt32 || n < math.MinInt32 {
			return 0, false
		}
		return int(n), true
	case int:
		return n, true
	case int64:
		return int(n), true
	case json.Number:
		if i, err := strconv.Atoi(n.String()); err == nil {
			return i, true
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return toInt(f)
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		return i, err == nil
	default:
		return 0, false
	}
}
