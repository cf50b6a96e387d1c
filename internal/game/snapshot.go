package game

import "time"

// SelectionView is the JSON form of a pending move source.
type SelectionView struct {
	Kind SourceKind `json:"kind"`
	Pile int        `json:"pile,omitempty"` // 1-based
	Suit string     `json:"suit,omitempty"`
}

// FoundationView is one foundation in a snapshot.
type FoundationView struct {
	Suit  Suit   `json:"suit"`
	Cards []Card `json:"cards"`
}

// Snapshot is a read-only copy of the table for rendering. Changing it never
// affects the game it came from.
type Snapshot struct {
	ID          string           `json:"id"`
	Mode        Mode             `json:"mode"`
	Status      GameStatus       `json:"status"`
	DrawCount   int              `json:"drawCount"`
	Moves       int              `json:"moves"`
	Stock       []Card           `json:"stock"`
	Waste       []Card           `json:"waste"`
	Foundations []FoundationView `json:"foundations,omitempty"`
	Piles       [][]Card         `json:"piles"`
	Selection   *SelectionView   `json:"selection,omitempty"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// Snapshot returns a deep copy of the current table
func (g *KlondikeGame) Snapshot() Snapshot {
	s := Snapshot{
		ID:        g.ID,
		Mode:      g.Mode,
		Status:    g.Status,
		DrawCount: g.DrawCount,
		Moves:     g.Moves,
		Stock:     g.Stock.Cards(),
		Waste:     g.Waste.Cards(),
		Piles:     make([][]Card, NumPiles),
		UpdatedAt: g.UpdatedAt,
	}

	if g.Mode == Play {
		for _, suit := range Suits() {
			if f := g.Foundations.Get(suit); f != nil {
				s.Foundations = append(s.Foundations, FoundationView{Suit: suit, Cards: f.Cards()})
			}
		}
	}

	for i, p := range g.Piles {
		s.Piles[i] = p.Cards()
	}

	if sel := g.selection; sel != nil {
		v := &SelectionView{Kind: sel.Kind}
		switch sel.Kind {
		case SourcePile:
			v.Pile = sel.Pile + 1
		case SourceFoundation:
			v.Suit = sel.Suit.String()
		}
		s.Selection = v
	}

	return s
}
