package api

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/san-kum/hertz/internal/storage"
)

const (
	maxCards        = 10
	maxCardText     = 500
	maxCategory     = 60
	maxNote         = 1000
	maxName         = 100
	maxMemories     = 5
	maxMemoryLength = 1000
	maxAnswers      = 20
	maxAnswerLength = 1000
)

var errValidation = errors.New("validation failed")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errValidation, fmt.Sprintf(format, args...))
}

func tooLong(s string, n int) bool {
	return utf8.RuneCountInString(s) > n
}

func validateCards(cards []storage.Card) error {
	if len(cards) == 0 {
		return invalid("at least one card is required")
	}
	if len(cards) > maxCards {
		return invalid("at most %d cards per order", maxCards)
	}
	for i, c := range cards {
		switch {
		case strings.TrimSpace(c.Front) == "":
			return invalid("card %d: front is required", i+1)
		case tooLong(c.Front, maxCardText):
			return invalid("card %d: front exceeds %d characters", i+1, maxCardText)
		case tooLong(c.Back, maxCardText):
			return invalid("card %d: back exceeds %d characters", i+1, maxCardText)
		case tooLong(c.Category, maxCategory):
			return invalid("card %d: category exceeds %d characters", i+1, maxCategory)
		}
	}
	return nil
}

func validateMemories(memories []string) error {
	if len(memories) > maxMemories {
		return invalid("at most %d memories", maxMemories)
	}
	for i, m := range memories {
		if tooLong(m, maxMemoryLength) {
			return invalid("memory %d exceeds %d characters", i+1, maxMemoryLength)
		}
	}
	return nil
}

// normalizeEmail returns the bare, lowercased address.
func normalizeEmail(s string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(s))
	if err != nil {
		return "", invalid("invalid email address")
	}
	return strings.ToLower(addr.Address), nil
}

// message strips the sentinel prefix for client-facing errors.
func message(err error) string {
	return strings.TrimPrefix(err.Error(), errValidation.Error()+": ")
}
