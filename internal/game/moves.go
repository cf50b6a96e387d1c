package game

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

var (
	ErrWrongMode        = errors.New("action not available in this mode")
	ErrGameWon          = errors.New("game already won")
	ErrEmptySource      = errors.New("no card to move")
	ErrIllegalMove      = errors.New("illegal move")
	ErrInvalidPile      = errors.New("invalid pile")
	ErrNothingToRecycle = errors.New("stock and waste are empty")
)

type SourceKind string

const (
	SourceWaste      SourceKind = "waste"
	SourcePile       SourceKind = "pile"
	SourceFoundation SourceKind = "foundation"
)

// Selection is the origin of a pending move. Pile is zero-based and only set
// for SourcePile; Suit is only meaningful for SourceFoundation.
type Selection struct {
	Kind SourceKind
	Pile int
	Suit Suit
}

func (s Selection) String() string {
	switch s.Kind {
	case SourcePile:
		return fmt.Sprintf("pile %d", s.Pile+1)
	case SourceFoundation:
		return s.Suit.String() + " foundation"
	default:
		return string(s.Kind)
	}
}

func (g *KlondikeGame) checkPlayable() error {
	if g.Mode != Play {
		return ErrWrongMode
	}
	if g.Status == Won {
		return ErrGameWon
	}
	return nil
}

func (g *KlondikeGame) pile(i int) (*Deck, error) {
	if i < 0 || i >= NumPiles {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPile, i+1)
	}
	return g.Piles[i], nil
}

// moved records a successful action.
func (g *KlondikeGame) moved() {
	g.Moves++
	if g.IsWon() {
		g.Status = Won
		g.logger.Info("game won", zap.Int("moves", g.Moves))
	}
	g.touch()
}

// revealTop turns the new top card of a tableau pile face-up after cards were
// moved off it.
func revealTop(pile *Deck) {
	if top, ok := pile.Top(); ok && !top.FaceUp {
		pile.FlipTop(1)
	}
}

// Draw moves DrawCount cards from the stock to the waste, face-up. With an
// empty stock it turns the waste back over into the stock instead.
func (g *KlondikeGame) Draw() error {
	if err := g.checkPlayable(); err != nil {
		return err
	}

	if g.Stock.IsEmpty() {
		if g.Waste.IsEmpty() {
			return ErrNothingToRecycle
		}
		// Turning the waste over as a block puts its bottom card on top of
		// the stock, so the stock draws the same sequence again.
		cards := g.Waste.Take(g.Waste.Len())
		g.Stock.Add(reversed(cards)...)
		g.Stock.FlipTop(len(cards))
		g.moved()
		return nil
	}

	// Cards are drawn one at a time, so the last one drawn ends on top.
	cards := reversed(g.Stock.Take(g.DrawCount))
	g.Waste.Add(cards...)
	g.Waste.FlipTop(len(cards))
	g.moved()
	return nil
}

// runBase finds the index in src of the card that would start the run moved
// onto dst, or -1 if no face-up card of src can go there.
func runBase(src, dst *Deck) int {
	low := src.FaceUpRun()
	if low == src.Len() {
		return -1
	}

	target, hasTarget := dst.Top()
	for i := low; i < src.Len(); i++ {
		card, _ := src.At(i)
		if !hasTarget {
			if card.Face == King {
				return i
			}
			continue
		}
		if card.CanStackOn(target) {
			return i
		}
	}
	return -1
}

// validRun reports whether cards form a face-up descending run of
// alternating colors.
func validRun(cards []Card) bool {
	for i, c := range cards {
		if !c.FaceUp {
			return false
		}
		if i > 0 && !c.CanStackOn(cards[i-1]) {
			return false
		}
	}
	return len(cards) > 0
}

// MovePileToPile moves the face-up run from pile from that fits onto pile to.
// Piles are zero-based.
func (g *KlondikeGame) MovePileToPile(from, to int) error {
	if err := g.checkPlayable(); err != nil {
		return err
	}
	src, err := g.pile(from)
	if err != nil {
		return err
	}
	dst, err := g.pile(to)
	if err != nil {
		return err
	}
	if from == to {
		return fmt.Errorf("%w: same pile", ErrIllegalMove)
	}
	if src.IsEmpty() {
		return fmt.Errorf("%w: %s", ErrEmptySource, src.Name)
	}

	base := runBase(src, dst)
	if base < 0 {
		return fmt.Errorf("%w: nothing on %s fits %s", ErrIllegalMove, src.Name, dst.Name)
	}

	count := src.Len() - base
	run := src.Take(count)
	if !validRun(run) {
		src.Add(run...)
		return fmt.Errorf("%w: %v is not a descending alternating run", ErrIllegalMove, run)
	}

	dst.Add(run...)
	revealTop(src)
	g.moved()
	return nil
}

// placeOnPile checks whether card may be placed on top of pile.
func placeOnPile(card Card, pile *Deck) error {
	top, ok := pile.Top()
	if !ok {
		if card.Face != King {
			return fmt.Errorf("%w: only a King may go on empty %s", ErrIllegalMove, pile.Name)
		}
		return nil
	}
	if !top.FaceUp || !card.CanStackOn(top) {
		return fmt.Errorf("%w: %s on %s", ErrIllegalMove, card, top)
	}
	return nil
}

// MoveWasteToPile moves the top waste card onto a tableau pile
func (g *KlondikeGame) MoveWasteToPile(to int) error {
	if err := g.checkPlayable(); err != nil {
		return err
	}
	dst, err := g.pile(to)
	if err != nil {
		return err
	}
	card, ok := g.Waste.Top()
	if !ok {
		return fmt.Errorf("%w: waste", ErrEmptySource)
	}
	if err := placeOnPile(card, dst); err != nil {
		return err
	}

	dst.Add(g.Waste.Take(1)...)
	g.moved()
	return nil
}

// toFoundation moves the top card of src to the foundation of its suit.
// toFoundation moves the top card of src onto a foundation. A nil target
// means the foundation of the card's own suit.
func (g *KlondikeGame) toFoundation(src *Deck, target *Suit) error {
	card, ok := src.Top()
	if !ok {
		return fmt.Errorf("%w: %s", ErrEmptySource, src.Name)
	}
	if !card.FaceUp {
		return fmt.Errorf("%w: %s is face-down", ErrIllegalMove, card)
	}

	suit := card.Suit
	if target != nil {
		suit = *target
	}
	f := g.Foundations.Get(suit)
	if f == nil {
		return fmt.Errorf("%w: suit %d", ErrInvalidSuit, int(suit))
	}
	if err := f.Accepts(card); err != nil {
		return err
	}
	taken := src.Take(1)
	if _, err := f.AddCards(taken); err != nil {
		// Accepts already passed; put the card back rather than lose it.
		src.Add(taken...)
		return err
	}
	return nil
}

// MoveWasteToFoundation moves the top waste card to its suit's foundation
func (g *KlondikeGame) MoveWasteToFoundation() error {
	return g.wasteToFoundation(nil)
}

// MoveWasteToFoundationOf moves the top waste card onto the foundation of
// suit, failing with ErrInvalidSuit if the card belongs elsewhere.
func (g *KlondikeGame) MoveWasteToFoundationOf(suit Suit) error {
	return g.wasteToFoundation(&suit)
}

func (g *KlondikeGame) wasteToFoundation(target *Suit) error {
	if err := g.checkPlayable(); err != nil {
		return err
	}
	if err := g.toFoundation(g.Waste, target); err != nil {
		return err
	}
	g.moved()
	return nil
}

// MovePileToFoundation moves the top card of a tableau pile to its suit's foundation
func (g *KlondikeGame) MovePileToFoundation(from int) error {
	return g.pileToFoundation(from, nil)
}

// MovePileToFoundationOf moves the top card of a tableau pile onto the
// foundation of suit.
func (g *KlondikeGame) MovePileToFoundationOf(from int, suit Suit) error {
	return g.pileToFoundation(from, &suit)
}

func (g *KlondikeGame) pileToFoundation(from int, target *Suit) error {
	if err := g.checkPlayable(); err != nil {
		return err
	}
	src, err := g.pile(from)
	if err != nil {
		return err
	}
	if err := g.toFoundation(src, target); err != nil {
		return err
	}
	revealTop(src)
	g.moved()
	return nil
}

// MoveFoundationToPile takes the top card of a foundation back onto a tableau pile.
func (g *KlondikeGame) MoveFoundationToPile(suit Suit, to int) error {
	if err := g.checkPlayable(); err != nil {
		return err
	}
	dst, err := g.pile(to)
	if err != nil {
		return err
	}
	f := g.Foundations.Get(suit)
	if f == nil {
		return fmt.Errorf("%w: suit %d", ErrInvalidSuit, int(suit))
	}
	card, ok := f.Top()
	if !ok {
		return fmt.Errorf("%w: %s foundation", ErrEmptySource, suit)
	}
	if err := placeOnPile(card, dst); err != nil {
		return err
	}

	dst.Add(f.TakeCards(1)...)
	g.moved()
	return nil
}

// AutoComplete keeps moving waste and pile top cards to the foundations until
// none fit. It returns the number of cards moved.
func (g *KlondikeGame) AutoComplete() (int, error) {
	if err := g.checkPlayable(); err != nil {
		return 0, err
	}

	total := 0
	for g.Status != Won {
		n := 0
		if g.MoveWasteToFoundation() == nil {
			n++
		}
		for i := range g.Piles {
			if g.MovePileToFoundation(i) == nil {
				n++
			}
		}
		if n == 0 {
			break
		}
		total += n
	}

	g.logger.Debug("auto-complete", zap.Int("moved", total))
	return total, nil
}
