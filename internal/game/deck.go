package game

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
)

// Deck is an ordered pile of cards. The end of the slice is the top of the
// deck: draws, pushes and flips all act there. A card belongs to exactly one
// Deck at a time; cards move between decks only through Take and Add.
type Deck struct {
	Name  string
	cards []Card
}

// NewEmptyDeck creates a deck with no cards
func NewEmptyDeck(name string) *Deck {
	return &Deck{Name: name}
}

// NewStandardDeck creates a new standard 52-card deck, all face-down, in
// canonical order: every rank of Hearts, then Diamonds, Clubs and Spades.
func NewStandardDeck(name string) *Deck {
	deck := &Deck{Name: name, cards: make([]Card, 0, NumSuits*NumFaces)}

	for _, suit := range Suits() {
		for _, face := range Faces() {
			deck.cards = append(deck.cards, Card{Suit: suit, Face: face})
		}
	}

	return deck
}

// NewSeed returns a seed for math/rand read from crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// Shuffle randomizes the order of cards in the deck
func (d *Deck) Shuffle(r *rand.Rand) {
	// Fisher-Yates shuffle algorithm
	for i := len(d.cards) - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
}

// Take removes up to count cards from the top of the deck and returns them
// bottom-to-top, so that Add(Take(n)...) restores the deck.
func (d *Deck) Take(count int) []Card {
	if count <= 0 || len(d.cards) == 0 {
		return []Card{}
	}
	if count > len(d.cards) {
		count = len(d.cards)
	}

	start := len(d.cards) - count
	taken := make([]Card, count)
	copy(taken, d.cards[start:])
	d.cards = d.cards[:start]
	return taken
}

// Add pushes cards onto the top of the deck, preserving their order
func (d *Deck) Add(cards ...Card) {
	d.cards = append(d.cards, cards...)
}

// FlipTop toggles visibility of the top n cards, or of all of them if the
// deck is smaller.
func (d *Deck) FlipTop(n int) {
	for i := len(d.cards) - 1; i >= 0 && n > 0; i, n = i-1, n-1 {
		d.cards[i].Flip()
	}
}

// ShowTop turns the top n cards face-up, leaving cards already face-up alone.
func (d *Deck) ShowTop(n int) {
	for i := len(d.cards) - 1; i >= 0 && n > 0; i, n = i-1, n-1 {
		d.cards[i].FaceUp = true
	}
}

// FlipAt toggles visibility of the card at index i (0 is the bottom).
func (d *Deck) FlipAt(i int) bool {
	if i < 0 || i >= len(d.cards) {
		return false
	}
	d.cards[i].Flip()
	return true
}

// Len returns the number of cards in the deck
func (d *Deck) Len() int {
	return len(d.cards)
}

func (d *Deck) IsEmpty() bool {
	return len(d.cards) == 0
}

// Top returns the top card without removing it
func (d *Deck) Top() (Card, bool) {
	if len(d.cards) == 0 {
		return Card{}, false
	}
	return d.cards[len(d.cards)-1], true
}

// At returns the card at index i, counted from the bottom.
func (d *Deck) At(i int) (Card, bool) {
	if i < 0 || i >= len(d.cards) {
		return Card{}, false
	}
	return d.cards[i], true
}

// Cards returns a copy of the deck's cards, bottom first
func (d *Deck) Cards() []Card {
	out := make([]Card, len(d.cards))
	copy(out, d.cards)
	return out
}

// FaceUpRun returns the index of the lowest card in the unbroken face-up
// stretch at the top of the deck. It returns Len() when the top card is
// face-down or the deck is empty.
func (d *Deck) FaceUpRun() int {
	i := len(d.cards)
	for i > 0 && d.cards[i-1].FaceUp {
		i--
	}
	return i
}

func (d *Deck) String() string {
	return fmt.Sprintf("%s%v", d.Name, d.cards)
}

// reversed returns cards in reverse order. It is used when cards are moved one
// at a time rather than as a block.
func reversed(cards []Card) []Card {
	out := make([]Card, len(cards))
	for i, c := range cards {
		out[len(cards)-1-i] = c
	}
	return out
}
