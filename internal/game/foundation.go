package game

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSuit is returned when a card's suit does not match the foundation's suit.
	ErrInvalidSuit = errors.New("invalid suit")
	// ErrInvalidCardOrder is returned when a card is not the next rank for the foundation.
	ErrInvalidCardOrder = errors.New("invalid card order")
)

// Foundation is a suit-locked pile that builds from Ace up to King.
type Foundation struct {
	suit  Suit
	cards *Deck
}

// NewFoundation creates an empty foundation for suit
func NewFoundation(suit Suit) *Foundation {
	return &Foundation{
		suit:  suit,
		cards: NewEmptyDeck(suit.String() + " foundation"),
	}
}

func (f *Foundation) Suit() Suit {
	return f.suit
}

// Accepts checks whether card may be placed next, without changing anything.
func (f *Foundation) Accepts(card Card) error {
	if card.Suit != f.suit {
		return fmt.Errorf("%w: %s on %s foundation", ErrInvalidSuit, card, f.suit)
	}

	top, ok := f.cards.Top()
	if !ok {
		if card.Face != Ace {
			return fmt.Errorf("%w: %s on empty foundation", ErrInvalidCardOrder, card)
		}
		return nil
	}

	if !card.Face.IsNextOf(top.Face) {
		return fmt.Errorf("%w: %s on %s", ErrInvalidCardOrder, card, top)
	}
	return nil
}

// AddCard places card on top of the foundation if it is the same suit and
// exactly one rank above the current top (or an Ace on an empty foundation).
func (f *Foundation) AddCard(card Card) error {
	if err := f.Accepts(card); err != nil {
		return err
	}
	f.cards.Add(card)
	return nil
}

// AddCards adds cards in order and stops at the first rejected card. Cards
// accepted before the failure stay on the foundation; the returned count says
// how many were taken.
func (f *Foundation) AddCards(cards []Card) (int, error) {
	for i, card := range cards {
		if err := f.AddCard(card); err != nil {
			return i, err
		}
	}
	return len(cards), nil
}

// TakeCards removes up to count cards from the top. Removal is never validated.
func (f *Foundation) TakeCards(count int) []Card {
	return f.cards.Take(count)
}

func (f *Foundation) Top() (Card, bool) {
	return f.cards.Top()
}

func (f *Foundation) Len() int {
	return f.cards.Len()
}

// IsComplete reports whether the foundation holds Ace through King
func (f *Foundation) IsComplete() bool {
	return f.cards.Len() == NumFaces
}

func (f *Foundation) Cards() []Card {
	return f.cards.Cards()
}
