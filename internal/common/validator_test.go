package common

import (
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestValidator(t *testing.T) {
	v := NewValidator()
	assert.True(t, v.Valid())

	v.Check(false, "text", "must be provided")
	v.Check(false, "text", "must not be more than 160 characters long")
	v.Check(true, "post", "must be greater than zero")

	assert.False(t, v.Valid())
	assert.Equal(t, map[string]string{"text": "must be provided"}, v.Errors)

	var vErr ValidationError
	assert.True(t, errors.As(v.ValidationError(), &vErr))
	assert.Equal(t, "must be provided", vErr.Errors["text"])
}

func TestCheckStringLength(t *testing.T) {
	v := NewValidator()

	testCases := []struct {
		name  string
		input string
		min   int
		max   int
		want  bool
	}{
		{name: "empty", input: "", min: 1, max: 3, want: false},
		{name: "ascii within", input: "abc", min: 1, max: 3, want: true},
		{name: "ascii over", input: "abcd", min: 1, max: 3, want: false},
		{name: "multibyte counted as characters", input: "héé", min: 1, max: 3, want: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, v.CheckStringLength(tc.input, tc.min, tc.max))
		})
	}
}

func TestUpstreamError(t *testing.T) {
	cause := errors.New("connection refused")
	err := error(UpstreamError{Service: "message broker", Err: cause})

	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "message broker unavailable: connection refused", err.Error())

	var upErr UpstreamError
	assert.True(t, errors.As(err, &upErr))
	assert.Equal(t, "message broker", upErr.Service)
}

func TestConstraintViolations(t *testing.T) {
	unique := &pq.Error{Code: "23505", Constraint: "users_email_key"}
	fk := &pq.Error{Code: "23503", Constraint: "comments_post_id_fkey"}

	assert.True(t, UniqueViolation(unique, "users_email_key"))
	assert.False(t, UniqueViolation(unique, "users_username_key"))
	assert.False(t, UniqueViolation(fk, "comments_post_id_fkey"))

	assert.True(t, ForeignKeyViolation(fk, "comments_post_id_fkey"))
	assert.False(t, ForeignKeyViolation(errors.New("boom"), "comments_post_id_fkey"))
}
