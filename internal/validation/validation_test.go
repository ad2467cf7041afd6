package validation_test

import (
	"encoding/json"
	"errors"
	"testing"

	"users-api/internal/apperror"
	"users-api/internal/validation"
)

func decode(t *testing.T, raw string) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal([]byte(raw), &body); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return body
}

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	var appErr *apperror.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *apperror.Error, got %T (%v)", err, err)
	}
	if appErr.Kind != apperror.KindValidation {
		t.Fatalf("expected validation kind, got %s", appErr.Kind)
	}
	out := make(map[string]string, len(appErr.Fields))
	for _, f := range appErr.Fields {
		out[f.Field] = f.Message
	}
	return out
}

func TestParseCreateValid(t *testing.T) {
	in, err := validation.ParseCreate(decode(t, `{"name":"  Ada Lovelace ","email":" Ada@Example.COM ","age":36}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.Name != "Ada Lovelace" {
		t.Fatalf("expected trimmed name, got %q", in.Name)
	}
	if in.Email != "ada@example.com" {
		t.Fatalf("expected normalized email, got %q", in.Email)
	}
	if in.Age == nil || *in.Age != 36 {
		t.Fatalf("unexpected age %v", in.Age)
	}
}

func TestParseCreateEmptyBodyCollectsAllViolations(t *testing.T) {
	_, err := validation.ParseCreate(map[string]any{})
	fields := fieldsOf(t, err)
	if len(fields) < 2 {
		t.Fatalf("expected at least two violations, got %v", fields)
	}
	if fields["name"] != "name is required" {
		t.Fatalf("unexpected name message %q", fields["name"])
	}
	if fields["email"] != "email is required" {
		t.Fatalf("unexpected email message %q", fields["email"])
	}
}

func TestParseCreateReportsEveryBadField(t *testing.T) {
	_, err := validation.ParseCreate(decode(t, `{"name":"A","email":"not-an-email","age":121}`))
	fields := fieldsOf(t, err)
	if len(fields) != 3 {
		t.Fatalf("expected three violations, got %v", fields)
	}
	if fields["email"] != "invalid email address" {
		t.Fatalf("unexpected email message %q", fields["email"])
	}
	if fields["age"] == "" {
		t.Fatal("expected age violation")
	}
}

func TestParseCreateNameLengthBounds(t *testing.T) {
	long := make([]byte, 101)
	for i := range long {
		long[i] = 'x'
	}
	cases := []struct {
		name string
		ok   bool
	}{
		{"ab", true},
		{"   ", false},
		{string(long), false},
		{string(long[:100]), true},
	}
	for _, tc := range cases {
		_, err := validation.ParseCreate(map[string]any{"name": tc.name, "email": "a@b.io"})
		if tc.ok && err != nil {
			t.Fatalf("name of length %d: unexpected error %v", len(tc.name), err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("name of length %d: expected error", len(tc.name))
		}
	}
}

func TestParseCreateAgeForms(t *testing.T) {
	cases := []struct {
		raw string
		ok  bool
	}{
		{`{"name":"Bob","email":"b@b.io","age":0}`, true},
		{`{"name":"Bob","email":"b@b.io","age":120}`, true},
		{`{"name":"Bob","email":"b@b.io","age":"42"}`, true},
		{`{"name":"Bob","email":"b@b.io","age":null}`, true},
		{`{"name":"Bob","email":"b@b.io","age":-1}`, false},
		{`{"name":"Bob","email":"b@b.io","age":12.5}`, false},
		{`{"name":"Bob","email":"b@b.io","age":"old"}`, false},
		{`{"name":"Bob","email":"b@b.io","age":true}`, false},
	}
	for _, tc := range cases {
		_, err := validation.ParseCreate(decode(t, tc.raw))
		if tc.ok && err != nil {
			t.Fatalf("%s: unexpected error %v", tc.raw, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%s: expected error", tc.raw)
		}
	}
}

func TestParseCreateWrongTypes(t *testing.T) {
	_, err := validation.ParseCreate(decode(t, `{"name":12,"email":["x"]}`))
	fields := fieldsOf(t, err)
	if fields["name"] != "name must be a string" || fields["email"] != "email must be a string" {
		t.Fatalf("unexpected violations %v", fields)
	}
}

func TestParseUpdatePartial(t *testing.T) {
	in, err := validation.ParseUpdate(decode(t, `{"email":"NEW@example.com"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.Name != nil || in.Age != nil {
		t.Fatalf("expected only email set, got %+v", in)
	}
	if in.Email == nil || *in.Email != "new@example.com" {
		t.Fatalf("unexpected email %v", in.Email)
	}
}

func TestParseUpdateEmptyIsNotAViolation(t *testing.T) {
	in, err := validation.ParseUpdate(map[string]any{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !in.Empty() {
		t.Fatalf("expected empty input, got %+v", in)
	}
}

func TestParseUpdateRejectsPresentButInvalid(t *testing.T) {
	_, err := validation.ParseUpdate(decode(t, `{"name":"","age":500}`))
	fields := fieldsOf(t, err)
	if fields["name"] != "name is required" {
		t.Fatalf("unexpected name message %q", fields["name"])
	}
	if _, ok := fields["age"]; !ok {
		t.Fatalf("expected age violation, got %v", fields)
	}
}

func TestParseID(t *testing.T) {
	if id, err := validation.ParseID("42"); err != nil || id != 42 {
		t.Fatalf("expected 42, got %d (%v)", id, err)
	}
	for _, raw := range []string{"", "0", "-3", "abc", "1.5"} {
		if _, err := validation.ParseID(raw); !apperror.IsKind(err, apperror.KindValidation) {
			t.Fatalf("%q: expected validation error, got %v", raw, err)
		}
	}
}
