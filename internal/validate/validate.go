// Package validate turns raw candidate input into normalized profile values.
//
// Every validator is a pure function. A failed validation is reported as *Error
// carrying the field and a reason that can be shown to the candidate as is.
package validate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/nyaruka/phonenumbers"
)

// Field names a collected candidate attribute.
type Field string

const (
	FieldName       Field = "name"
	FieldEmail      Field = "email"
	FieldPhone      Field = "phone"
	FieldExperience Field = "experience"
	FieldPosition   Field = "position"
	FieldLocation   Field = "location"
	FieldTechStack  Field = "tech_stack"
)

// Fields lists the collected attributes in the order they are asked for.
var Fields = []Field{
	FieldName,
	FieldEmail,
	FieldPhone,
	FieldExperience,
	FieldPosition,
	FieldLocation,
	FieldTechStack,
}

// Label returns a human readable name of the field.
func (f Field) Label() string {
	switch f {
	case FieldName:
		return "Full Name"
	case FieldEmail:
		return "Email Address"
	case FieldPhone:
		return "Phone Number"
	case FieldExperience:
		return "Years of Experience"
	case FieldPosition:
		return "Desired Position"
	case FieldLocation:
		return "Current Location"
	case FieldTechStack:
		return "Tech Stack"
	default:
		return string(f)
	}
}

// Error is returned when raw input does not satisfy the rules of a field.
type Error struct {
	Field  Field
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func reject(field Field, reason string) (string, error) {
	return "", &Error{Field: field, Reason: reason}
}

// Func validates raw input and returns its normalized form.
type Func func(raw string) (string, error)

// For returns the validator of the given field.
func For(field Field) (Func, bool) {
	switch field {
	case FieldName:
		return Name, true
	case FieldEmail:
		return Email, true
	case FieldPhone:
		return Phone, true
	case FieldExperience:
		return Experience, true
	case FieldPosition:
		return Position, true
	case FieldLocation:
		return Location, true
	case FieldTechStack:
		return TechStack, true
	default:
		return nil, false
	}
}

var (
	// \s alone is ASCII only, names may carry no-break or ideographic spaces.
	namePattern  = regexp.MustCompile(`^[a-zA-Z\s\p{Z}\x{85}.\-']+$`)
	yearsPattern = regexp.MustCompile(`\s*(years?|yrs?)\s*`)
	digitsRun    = regexp.MustCompile(`\d+`)

	checker = validator.New()
)

const (
	minExperience = 0
	maxExperience = 50
)

// numberWords are matched as substrings in this order, so "fourteen" resolves
// to 4 and "none" to 1.
var numberWords = []struct {
	word  string
	value int
}{
	{"zero", 0}, {"one", 1}, {"two", 2}, {"three", 3}, {"four", 4},
	{"five", 5}, {"six", 6}, {"seven", 7}, {"eight", 8}, {"nine", 9},
	{"ten", 10}, {"eleven", 11}, {"twelve", 12}, {"thirteen", 13},
	{"fourteen", 14}, {"fifteen", 15}, {"twenty", 20}, {"thirty", 30},
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// collapse trims s and replaces every whitespace run with a single space.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Name accepts letters, spaces, periods, hyphens and apostrophes.
func Name(raw string) (string, error) {
	if blank(raw) {
		return reject(FieldName, "Name cannot be empty.")
	}

	name := strings.TrimSpace(raw)
	if len([]rune(name)) < 2 {
		return reject(FieldName, "Name must be at least 2 characters long.")
	}

	if !namePattern.MatchString(name) {
		return reject(FieldName, "Name can only contain letters, spaces, periods, hyphens, and apostrophes.")
	}

	return titleCase(collapse(name)), nil
}

// titleCase upper-cases every letter that follows a non-letter and lower-cases
// the rest, so "o'brien" becomes "O'Brien" and "mary-jane" becomes "Mary-Jane".
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
			continue
		}
		b.WriteRune(r)
		prevLetter = false
	}

	return b.String()
}

// Email checks the address grammar only; deliverability is never verified.
func Email(raw string) (string, error) {
	if blank(raw) {
		return reject(FieldEmail, "Email cannot be empty.")
	}

	email := strings.TrimSpace(raw)
	if err := checker.Var(email, "email"); err != nil {
		return reject(FieldEmail, "Invalid email format: the address must look like name@example.com.")
	}

	at := strings.LastIndex(email, "@")
	return email[:at] + "@" + strings.ToLower(email[at+1:]), nil
}

// Phone requires an explicit country code; there is no default region.
func Phone(raw string) (string, error) {
	if blank(raw) {
		return reject(FieldPhone, "Phone number cannot be empty.")
	}

	number, err := phonenumbers.Parse(strings.TrimSpace(raw), "")
	if err != nil {
		return reject(FieldPhone, fmt.Sprintf(
			"Invalid phone number format. Please provide an international phone number with country code (e.g., +1 234 567 8900). Error: %s", err))
	}

	if !phonenumbers.IsValidNumber(number) {
		return reject(FieldPhone, "Invalid phone number. Please provide a valid international phone number with country code (e.g., +1 234 567 8900).")
	}

	return phonenumbers.Format(number, phonenumbers.INTERNATIONAL), nil
}

// Experience resolves a number of years. The first digit run wins even when a
// later one is the intended value.
func Experience(raw string) (string, error) {
	if blank(raw) {
		return reject(FieldExperience, "Experience cannot be empty.")
	}

	text := strings.ToLower(strings.TrimSpace(raw))
	text = yearsPattern.ReplaceAllString(text, "")

	years, ok := parseYears(text)
	if !ok {
		return reject(FieldExperience, "Please provide a valid number of years (0-50).")
	}

	if years < minExperience || years > maxExperience {
		return reject(FieldExperience, "Experience must be between 0 and 50 years.")
	}

	return strconv.Itoa(years), nil
}

func parseYears(text string) (int, bool) {
	if digits := digitsRun.FindString(text); digits != "" {
		n, err := strconv.Atoi(digits)
		if err != nil {
			// overflow: far beyond any valid range
			return maxExperience + 1, true
		}
		return n, true
	}

	for _, w := range numberWords {
		if strings.Contains(text, w.word) {
			return w.value, true
		}
	}

	return 0, false
}

// Position requires at least three characters.
func Position(raw string) (string, error) {
	if blank(raw) {
		return reject(FieldPosition, "Position cannot be empty.")
	}

	position := strings.TrimSpace(raw)
	if len([]rune(position)) < 3 {
		return reject(FieldPosition, "Position must be at least 3 characters long.")
	}

	return collapse(position), nil
}

// Location requires at least two characters.
func Location(raw string) (string, error) {
	if blank(raw) {
		return reject(FieldLocation, "Location cannot be empty.")
	}

	location := strings.TrimSpace(raw)
	if len([]rune(location)) < 2 {
		return reject(FieldLocation, "Location must be at least 2 characters long.")
	}

	return collapse(location), nil
}

// TechStack normalizes a comma separated list of technologies.
func TechStack(raw string) (string, error) {
	if blank(raw) {
		return reject(FieldTechStack, "Tech stack cannot be empty.")
	}

	stack := strings.TrimSpace(raw)
	if len([]rune(stack)) < 2 {
		return reject(FieldTechStack, "Tech stack must be at least 2 characters long.")
	}

	items := SplitTechStack(stack)
	if len(items) == 0 {
		return reject(FieldTechStack, "Please name at least one technology.")
	}

	return strings.Join(items, ", "), nil
}

// SplitTechStack splits on commas and drops empty entries.
func SplitTechStack(s string) []string {
	parts := strings.Split(s, ",")
	items := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			items = append(items, p)
		}
	}
	return items
}
