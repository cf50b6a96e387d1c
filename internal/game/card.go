package game

import (
	"fmt"
	"strings"
)

type Suit int

const (
	Hearts Suit = iota
	Diamonds
	Clubs
	Spades
)

// NumSuits is the number of suits in a standard deck.
const NumSuits = 4

var suitNames = [NumSuits]string{"Hearts", "Diamonds", "Clubs", "Spades"}
var suitSymbols = [NumSuits]string{"♥", "♦", "♣", "♠"}

// Suits lists every suit in declaration order.
func Suits() [NumSuits]Suit {
	return [NumSuits]Suit{Hearts, Diamonds, Clubs, Spades}
}

func (s Suit) Valid() bool {
	return s >= Hearts && s <= Spades
}

// IsRed reports whether the suit is a red suit (Hearts or Diamonds)
func (s Suit) IsRed() bool {
	return s == Hearts || s == Diamonds
}

func (s Suit) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Suit(%d)", int(s))
	}
	return suitNames[s]
}

// Symbol returns the unicode pip for the suit
func (s Suit) Symbol() string {
	if !s.Valid() {
		return "?"
	}
	return suitSymbols[s]
}

func (s Suit) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid suit %d", int(s))
	}
	return []byte(suitNames[s]), nil
}

func (s *Suit) UnmarshalText(text []byte) error {
	parsed, err := ParseSuit(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseSuit resolves a suit from its name or its first letter, case-insensitively
func ParseSuit(name string) (Suit, error) {
	for i, n := range suitNames {
		if strings.EqualFold(name, n) || strings.EqualFold(name, n[:1]) {
			return Suit(i), nil
		}
	}
	return 0, fmt.Errorf("unknown suit %q", name)
}

// Face is the rank of a card. Ace is the lowest rank and King the highest;
// the order never wraps.
type Face int

const (
	Ace Face = iota
	Two
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
)

// NumFaces is the number of ranks in a suit.
const NumFaces = 13

var faceNames = [NumFaces]string{"Ace", "2", "3", "4", "5", "6", "7", "8", "9", "10", "Jack", "Queen", "King"}
var faceShort = [NumFaces]string{"A", "2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K"}

// Faces lists every rank from Ace to King.
func Faces() [NumFaces]Face {
	var faces [NumFaces]Face
	for i := range faces {
		faces[i] = Face(i)
	}
	return faces
}

func (f Face) Valid() bool {
	return f >= Ace && f <= King
}

// Next returns the rank directly above f. ok is false for King.
func (f Face) Next() (next Face, ok bool) {
	if f >= King || !f.Valid() {
		return f, false
	}
	return f + 1, true
}

// IsNextOf reports whether f is exactly one rank above prev.
func (f Face) IsNextOf(prev Face) bool {
	next, ok := prev.Next()
	return ok && next == f
}

func (f Face) String() string {
	if !f.Valid() {
		return fmt.Sprintf("Face(%d)", int(f))
	}
	return faceNames[f]
}

func (f Face) MarshalText() ([]byte, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("invalid face %d", int(f))
	}
	return []byte(faceNames[f]), nil
}

func (f *Face) UnmarshalText(text []byte) error {
	for i, n := range faceNames {
		if strings.EqualFold(string(text), n) || strings.EqualFold(string(text), faceShort[i]) {
			*f = Face(i)
			return nil
		}
	}
	return fmt.Errorf("unknown face %q", string(text))
}

// Card is a single playing card. Suit and Face are its identity; FaceUp is
// visibility state owned by whichever Deck holds the card.
type Card struct {
	Suit   Suit `json:"suit"`
	Face   Face `json:"face"`
	FaceUp bool `json:"faceUp"` // True for face-up cards, false for face-down
}

// Same reports whether two cards have the same identity, ignoring visibility
func (c Card) Same(other Card) bool {
	return c.Suit == other.Suit && c.Face == other.Face
}

// IsRed reports the card's color
func (c Card) IsRed() bool {
	return c.Suit.IsRed()
}

// OppositeColor reports whether c and other are of different colors
func (c Card) OppositeColor(other Card) bool {
	return c.IsRed() != other.IsRed()
}

// CanStackOn reports whether c may be placed on top of other in a tableau pile:
// one rank lower and of the opposite color.
func (c Card) CanStackOn(other Card) bool {
	return other.Face.IsNextOf(c.Face) && c.OppositeColor(other)
}

// Flip toggles the card's visibility
func (c *Card) Flip() {
	c.FaceUp = !c.FaceUp
}

func (c Card) String() string {
	if !c.Face.Valid() || !c.Suit.Valid() {
		return "??"
	}
	return faceShort[c.Face] + c.Suit.Symbol()
}
