package validation

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type codedErr struct {
	code string
	msg  string
}

func (e *codedErr) Error() string { return e.msg }
func (e *codedErr) Code() string  { return e.code }

type emptyErr struct{}

func (emptyErr) Error() string { return "" }

func TestValidatePhone(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want bool
	}{
		{"9492532259", true},
		{"0000000000", true},
		{"12345", false},
		{"949253225a", false},
		{"94925322590", false},
		{"949 253 22", false},
		{"", false},
		{"٩٤٩٢٥٣٢٢٥٩", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidatePhone(tt.in), "ValidatePhone(%q)", tt.in)
	}
}

func TestValidateEmail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want bool
	}{
		{"a@b.com", true},
		{"first.last@college.ac.in", true},
		{"a@b", false},
		{"a b@c.com", false},
		{"@b.com", false},
		{"a@@b.com", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidateEmail(tt.in), "ValidateEmail(%q)", tt.in)
	}
}

func TestValidatePassword(t *testing.T) {
	t.Parallel()

	assert.False(t, ValidatePassword(""))
	assert.False(t, ValidatePassword("12345"))
	assert.True(t, ValidatePassword("123456"))
	assert.False(t, ValidatePassword("ééé"))
	assert.True(t, ValidatePassword("éééééé"))
	assert.True(t, ValidatePassword("a much longer passphrase"))
}

func TestDigitsOnly(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "9492532259", DigitsOnly("+94-925 (322) 59"))
	assert.Equal(t, "", DigitsOnly("abc"))
	assert.Equal(t, "123", DigitsOnly("123"))
}

func TestIsListedCollege(t *testing.T) {
	t.Parallel()

	assert.True(t, IsListedCollege("CBIT"))
	assert.True(t, IsListedCollege("Other"))
	assert.False(t, IsListedCollege("cbit"))
	assert.False(t, IsListedCollege("Vasavi College of Engineering"))
}

func TestStoreErrorMessage(t *testing.T) {
	t.Parallel()

	t.Run("known codes", func(t *testing.T) {
		t.Parallel()
		for code, want := range storeMessages {
			err := fmt.Errorf("insert: %w", &codedErr{code: code, msg: "raw"})
			assert.Equal(t, want, StoreErrorMessage(err), code)
		}
	})

	t.Run("unknown code falls back to message", func(t *testing.T) {
		t.Parallel()
		err := &codedErr{code: "resource-exhausted", msg: "quota exceeded"}
		assert.Equal(t, "quota exceeded", StoreErrorMessage(err))
	})

	t.Run("unknown code ignores caller wrapping", func(t *testing.T) {
		t.Parallel()
		err := fmt.Errorf("query decipherTeams: %w", &codedErr{code: "resource-exhausted", msg: "quota exceeded"})
		assert.Equal(t, "quota exceeded", StoreErrorMessage(err))
	})

	t.Run("plain error", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "boom", StoreErrorMessage(errors.New("boom")))
	})

	t.Run("empty message", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, GenericErrorMessage, StoreErrorMessage(emptyErr{}))
	})

	t.Run("nil", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, GenericErrorMessage, StoreErrorMessage(nil))
	})
}
