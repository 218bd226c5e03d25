package validate

import "regexp"

// User-visible messages. The form and the API surface these verbatim.
const (
	MsgNameEmpty   = "Name is Empty!"
	MsgNameInvalid = "Name should only contain letters and spaces!"
	MsgNameTooLong = "Name should be at most 255 characters!"
	MsgNoGender    = "Gender is not selected!"
)

// MaxNameLen bounds the name input.
const MaxNameLen = 255

var nameRe = regexp.MustCompile(`^[A-Za-z\s]*$`)

// Gender values accepted by the form. Mutual exclusivity is enforced by the
// radio controls; here we only reject "nothing selected".
const (
	GenderMale   = "male"
	GenderFemale = "female"
)

// IsNameWellFormed reports whether name contains only letters and whitespace.
// The empty string is well-formed; Name rejects it separately.
func IsNameWellFormed(name string) bool {
	return nameRe.MatchString(name)
}

// Name checks a name and returns ok plus the message to show when not ok.
// Check order matters: empty before character class before length. Only the
// first failing check's message is reported.
func Name(name string) (bool, string) {
	if name == "" {
		return false, MsgNameEmpty
	}
	if !IsNameWellFormed(name) {
		return false, MsgNameInvalid
	}
	if len(name) > MaxNameLen {
		return false, MsgNameTooLong
	}
	return true, ""
}

// Gender checks that a gender choice was made. Anything other than the two
// known values counts as "not selected".
func Gender(gender string) (bool, string) {
	if gender != GenderMale && gender != GenderFemale {
		return false, MsgNoGender
	}
	return true, ""
}
