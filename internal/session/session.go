// Package session handles the browser session identifier and the per-request
// context (session plus language) that handlers pass around explicitly.
package session

import (
	"errors"
	"regexp"

	"github.com/google/uuid"
)

var (
	ErrInvalidID       = errors.New("session: invalid session id")
	ErrInvalidLanguage = errors.New("session: unsupported language")
)

// Header carries the session id when the body does not.
const Header = "X-Session-ID"

// ids are lowercase canonical UUIDv4, which is what crypto.randomUUID()
// produces in the browser.
var idPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

// Language is a two-letter site language.
type Language string

const (
	German  Language = "de"
	English Language = "en"

	DefaultLanguage = German
)

func ParseLanguage(s string) (Language, error) {
	switch Language(s) {
	case German, English:
		return Language(s), nil
	case "":
		return DefaultLanguage, nil
	}
	return "", ErrInvalidLanguage
}

// NewID returns a fresh session identifier.
func NewID() string {
	return uuid.NewString()
}

func ValidID(id string) bool {
	return idPattern.MatchString(id)
}

// Context is what a handler knows about its caller.
type Context struct {
	ID       string
	Language Language
}

// New validates id and lang.
func New(id, lang string) (Context, error) {
	if !ValidID(id) {
		return Context{}, ErrInvalidID
	}
	l, err := ParseLanguage(lang)
	if err != nil {
		return Context{}, err
	}
	return Context{ID: id, Language: l}, nil
}
