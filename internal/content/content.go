// Package content holds the sample card deck served to the card-flip
// preview.
package content

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/san-kum/hertz/internal/session"
	"gopkg.in/yaml.v3"
)

//go:embed deck.yaml
var deckYAML []byte

type Card struct {
	Front    string `yaml:"front" json:"front"`
	Back     string `yaml:"back,omitempty" json:"back,omitempty"`
	Category string `yaml:"category,omitempty" json:"category,omitempty"`
}

var (
	deckOnce sync.Once
	decks    map[session.Language][]Card
	deckErr  error
)

func load() (map[session.Language][]Card, error) {
	deckOnce.Do(func() {
		decks, deckErr = parse(deckYAML)
	})
	return decks, deckErr
}

func parse(data []byte) (map[session.Language][]Card, error) {
	var raw map[string][]Card
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse sample deck: %w", err)
	}
	out := make(map[session.Language][]Card, len(raw))
	for k, cards := range raw {
		lang, err := session.ParseLanguage(k)
		if err != nil {
			return nil, fmt.Errorf("sample deck %q: %w", k, err)
		}
		for i, c := range cards {
			if c.Front == "" {
				return nil, fmt.Errorf("sample deck %s card %d: empty front", lang, i)
			}
		}
		out[lang] = cards
	}
	return out, nil
}

// SampleCards returns a copy of the deck for lang.
func SampleCards(lang session.Language) ([]Card, error) {
	d, err := load()
	if err != nil {
		return nil, err
	}
	cards, ok := d[lang]
	if !ok {
		return nil, fmt.Errorf("%w: %s", session.ErrInvalidLanguage, lang)
	}
	return append([]Card(nil), cards...), nil
}
