// Package validation holds the format predicates, option lists and store error
// messages shared by every registration form.
package validation

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	phoneRegex = regexp.MustCompile(`^\d{10}$`)
	emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 6

// CollegeOther is the college option that reveals the free-text college name.
const CollegeOther = "Other"

// CollegeOptions are the selectable colleges.
var CollegeOptions = []string{"CBIT", CollegeOther}

// BranchOptions are the selectable branches.
var BranchOptions = []string{
	"CSE", "IT", "AIML", "AI&DS", "CET (CSE-IOT)", "CSM (CSE-AIML)",
	"ECE", "EEE", "VLSI", "Mech", "Prod", "Civil", "Biotech",
	"Chemical", "MCA", "MBA", "Other",
}

// YearOptions are the selectable years of study.
var YearOptions = []string{"1", "2", "3", "4"}

// ValidatePhone reports whether s is exactly 10 ASCII digits.
func ValidatePhone(s string) bool {
	return phoneRegex.MatchString(s)
}

// ValidateEmail is a structural check only, not RFC 5322.
func ValidateEmail(s string) bool {
	return emailRegex.MatchString(s)
}

// ValidatePassword reports whether s has at least MinPasswordLength characters.
func ValidatePassword(s string) bool {
	return utf8.RuneCountInString(s) >= MinPasswordLength
}

// DigitsOnly drops every non-digit character. Phone inputs are filtered with it
// on each keystroke.
func DigitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// IsListedCollege reports whether college is one of CollegeOptions.
func IsListedCollege(college string) bool {
	for _, c := range CollegeOptions {
		if c == college {
			return true
		}
	}
	return false
}

// Remote store error codes.
const (
	CodeEmailInUse          = "auth/email-already-in-use"
	CodeInvalidEmail        = "auth/invalid-email"
	CodeWeakPassword        = "auth/weak-password"
	CodeOperationNotAllowed = "auth/operation-not-allowed"
	CodeNetworkFailed       = "auth/network-request-failed"
	CodeTooManyRequests     = "auth/too-many-requests"
	CodeUserDisabled        = "auth/user-disabled"
	CodePermissionDenied    = "permission-denied"
	CodeUnavailable         = "unavailable"
)

// GenericErrorMessage is shown when an error carries nothing more useful.
const GenericErrorMessage = "An error occurred during registration. Please try again."

var storeMessages = map[string]string{
	CodeEmailInUse:          "This email is already registered. Please use another email or sign in.",
	CodeInvalidEmail:        "Please enter a valid email address.",
	CodeWeakPassword:        "Password must be at least 6 characters.",
	CodeOperationNotAllowed: "Email/password sign-in is disabled. Please contact the organizers.",
	CodeNetworkFailed:       "Network error. Please check your internet connection and try again.",
	CodeTooManyRequests:     "Too many attempts. Please wait a bit and try again.",
	CodeUserDisabled:        "This account has been disabled. Please contact the organizers.",
	CodePermissionDenied:    "Registration temporarily unavailable. Please contact administrators or try again later.",
	CodeUnavailable:         "Service temporarily unavailable. Please try again in a few minutes.",
}

// Coder is implemented by errors that carry a remote error code.
type Coder interface {
	Code() string
}

// StoreErrorMessage maps a remote store error to the message shown to the user.
// Unknown codes fall back to the error text and then to GenericErrorMessage.
func StoreErrorMessage(err error) string {
	if err == nil {
		return GenericErrorMessage
	}
	var c Coder
	if errors.As(err, &c) {
		if msg, ok := storeMessages[c.Code()]; ok {
			return msg
		}
		if e, ok := c.(error); ok && e.Error() != "" {
			return e.Error()
		}
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return GenericErrorMessage
}
