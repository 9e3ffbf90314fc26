package contact

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

// Max length constants for user-editable fields.
const (
	MaxNameLength    = 100
	MaxAddressLength = 200
	MaxNoteLength    = 2000
)

// BirthdayLayout is the dd-mm-yyyy layout used for birthdays.
const BirthdayLayout = "02-01-2006"

// Classes lists the kindergarten classes a contact can belong to, in display order.
var Classes = []string{"NURSERY", "PRE-K", "K1A", "K1B", "K1C", "K2A", "K2B", "K2C"}

// Domain errors
var (
	ErrEmptyName       = errors.New("contact name cannot be empty")
	ErrNameTooLong     = errors.New("contact name cannot exceed 100 characters")
	ErrInvalidName     = errors.New("contact name should only contain alphanumeric characters and spaces")
	ErrInvalidPhone    = errors.New("phone numbers should only contain digits and be 3 to 15 digits long")
	ErrInvalidEmail    = errors.New("contact email must be of the format local-part@domain")
	ErrInvalidClass    = errors.New("class must be one of NURSERY, PRE-K, K1A, K1B, K1C, K2A, K2B, K2C")
	ErrInvalidBirthday = errors.New("birthday must be a valid dd-mm-yyyy date that is not in the future")
	ErrInvalidTag      = errors.New("tags should be alphanumeric")
	ErrAddressTooLong  = errors.New("contact address cannot exceed 200 characters")
	ErrNoteTooLong     = errors.New("contact note cannot exceed 2000 characters")
)

var (
	namePattern  = regexp.MustCompile(`^[\p{L}\p{N}][\p{L}\p{N} ]*$`)
	phonePattern = regexp.MustCompile(`^[0-9]{3,15}$`)
	emailPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9+_.\-]*@[A-Za-z0-9][A-Za-z0-9\-]*(\.[A-Za-z0-9][A-Za-z0-9\-]*)*$`)
	tagPattern   = regexp.MustCompile(`^[\p{L}\p{N}]+$`)
)

// Contact is one address book record.
// Identity for storage is ID; identity for deletion-by-name is Name.
type Contact struct {
	ID        string
	Name      string
	Phone     string
	Email     string
	Address   string
	Class     string
	Birthday  string
	Note      string
	Tags      []string
	Favourite bool
	// Position is the insertion order used to keep the list stable across loads.
	Position int
}

// Validate checks if the Contact has valid data.
// PRE: Contact struct is initialized
// POST: Returns error if validation fails, nil otherwise
// INVARIANT: Contact is not mutated
func (c *Contact) Validate() error {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return ErrEmptyName
	}
	if len(name) > MaxNameLength {
		return ErrNameTooLong
	}
	if !namePattern.MatchString(name) {
		return ErrInvalidName
	}
	if !phonePattern.MatchString(c.Phone) {
		return ErrInvalidPhone
	}
	if !emailPattern.MatchString(c.Email) {
		return ErrInvalidEmail
	}
	if len(c.Address) > MaxAddressLength {
		return ErrAddressTooLong
	}
	if c.Class != "" && !IsValidClass(c.Class) {
		return ErrInvalidClass
	}
	if c.Birthday != "" {
		if err := validateBirthday(c.Birthday, time.Now()); err != nil {
			return err
		}
	}
	if len(c.Note) > MaxNoteLength {
		return ErrNoteTooLong
	}
	for _, tag := range c.Tags {
		if !tagPattern.MatchString(tag) {
			return fmt.Errorf("%w: %q", ErrInvalidTag, tag)
		}
	}
	return nil
}

// Normalize trims free text, upper-cases the class and de-duplicates tags.
// PRE: none
// POST: Name, Phone, Email, Address trimmed; Class upper-cased; Tags unique and sorted
func (c *Contact) Normalize() {
	c.Name = strings.Join(strings.Fields(c.Name), " ")
	c.Phone = strings.TrimSpace(c.Phone)
	c.Email = strings.TrimSpace(c.Email)
	c.Address = strings.TrimSpace(c.Address)
	c.Class = strings.ToUpper(strings.TrimSpace(c.Class))
	c.Birthday = strings.TrimSpace(c.Birthday)
	c.Tags = uniqueTags(c.Tags)
}

// NameMatches reports whether query equals the whole display name, ignoring case.
// INVARIANT: no substring or fuzzy matching
func (c Contact) NameMatches(query string) bool {
	return strings.EqualFold(c.Name, strings.TrimSpace(query))
}

// HasTag reports whether the contact carries tag, ignoring case.
func (c Contact) HasTag(tag string) bool {
	for _, t := range c.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// SortedTags returns a sorted copy of the contact's tags.
func (c Contact) SortedTags() []string {
	tags := append([]string(nil), c.Tags...)
	sort.Strings(tags)
	return tags
}

// IsDuplicateOf reports whether other describes the same person: same name
// (ignoring case) and the same phone or email. A shared name alone is allowed.
func (c Contact) IsDuplicateOf(other Contact) bool {
	if !strings.EqualFold(c.Name, other.Name) {
		return false
	}
	return c.Phone == other.Phone || strings.EqualFold(c.Email, other.Email)
}

// IsValidClass reports whether class names one of Classes, ignoring case.
func IsValidClass(class string) bool {
	for _, known := range Classes {
		if strings.EqualFold(known, class) {
			return true
		}
	}
	return false
}

func validateBirthday(value string, now time.Time) error {
	d, err := time.Parse(BirthdayLayout, value)
	if err != nil {
		return ErrInvalidBirthday
	}
	if d.After(now) {
		return ErrInvalidBirthday
	}
	return nil
}

func uniqueTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(tags))
	var out []string
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[strings.ToLower(t)] {
			continue
		}
		seen[strings.ToLower(t)] = true
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
