package game

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// NumPiles is the number of tableau piles.
const NumPiles = 7

// Foundations holds one foundation per suit, indexed by Suit.
type Foundations [NumSuits]*Foundation

// Get returns the foundation for suit, or nil when foundations were never built.
func (fs *Foundations) Get(suit Suit) *Foundation {
	if !suit.Valid() {
		return nil
	}
	return fs[suit]
}

// KlondikeGame is the whole table: stock, waste, foundations and tableau.
// It is not safe for concurrent use; callers own it from a single goroutine
// or guard it themselves.
type KlondikeGame struct {
	ID          string
	Mode        Mode
	Status      GameStatus
	DrawCount   int
	Seed        *int64 // nil when the random source was injected
	Moves       int
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Stock       *Deck
	Waste       *Deck
	Foundations Foundations // nil entries outside Play mode
	Piles       [NumPiles]*Deck

	selection *Selection
	rng       *rand.Rand
	logger    *zap.Logger
}

type options struct {
	id        string
	drawCount int
	seed      int64
	seeded    bool
	rng       *rand.Rand
	logger    *zap.Logger
}

// Option configures a new game.
type Option func(*options)

// WithID sets the game ID instead of generating one
func WithID(id string) Option {
	return func(o *options) { o.id = id }
}

// WithDrawCount sets how many cards a draw moves from stock to waste (1 or 3).
func WithDrawCount(n int) Option {
	return func(o *options) { o.drawCount = n }
}

// WithSeed seeds the game's random source, making the deal reproducible.
func WithSeed(seed int64) Option {
	return func(o *options) {
		o.seed = seed
		o.seeded = true
	}
}

// WithRand injects the random source used for shuffling and diagnostic flips.
// It takes precedence over WithSeed.
func WithRand(r *rand.Rand) Option {
	return func(o *options) { o.rng = r }
}

func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// ValidDrawCount reports whether n is a supported draw size.
func ValidDrawCount(n int) bool {
	return n == 1 || n == 3
}

// NewKlondikeGame creates a new game in the given mode. In Play mode the
// stock is shuffled and the tableau dealt; in InspectCards mode the stock
// holds the full unshuffled deck and nothing else is built.
func NewKlondikeGame(mode Mode, opts ...Option) (*KlondikeGame, error) {
	o := options{drawCount: 1}
	for _, opt := range opts {
		opt(&o)
	}

	if _, err := ParseMode(string(mode)); err != nil {
		return nil, err
	}
	if !ValidDrawCount(o.drawCount) {
		return nil, fmt.Errorf("invalid draw count %d", o.drawCount)
	}

	var seed *int64
	if o.rng == nil {
		if !o.seeded {
			s, err := NewSeed()
			if err != nil {
				return nil, err
			}
			o.seed = s
		}
		o.rng = rand.New(rand.NewSource(o.seed))
		seed = &o.seed
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.id == "" {
		o.id = uuid.New().String()
	}

	now := time.Now()
	g := &KlondikeGame{
		ID:        o.id,
		Mode:      mode,
		DrawCount: o.drawCount,
		Seed:      seed,
		CreatedAt: now,
		UpdatedAt: now,
		Stock:     NewStandardDeck("stock"),
		Waste:     NewEmptyDeck("waste"),
		rng:       o.rng,
		logger:    o.logger.With(zap.String("game_id", o.id), zap.String("mode", string(mode))),
	}
	for i := range g.Piles {
		g.Piles[i] = NewEmptyDeck(fmt.Sprintf("pile %d", i+1))
	}

	switch mode {
	case Play:
		g.Status = InProgress
		g.deal()
	case InspectCards:
		g.Status = Inspecting
	}

	g.logger.Debug("game created", zap.Int("draw_count", g.DrawCount), zap.Int("stock", g.Stock.Len()))
	return g, nil
}

// deal shuffles the stock, builds the foundations and lays out the tableau:
// pile i gets i+1 cards with only the top one face-up.
func (g *KlondikeGame) deal() {
	g.Stock.Shuffle(g.rng)

	for _, suit := range Suits() {
		g.Foundations[suit] = NewFoundation(suit)
	}

	for i, pile := range g.Piles {
		pile.Add(g.Stock.Take(i + 1)...)
		pile.FlipTop(1)
	}
}

// CardCount returns the number of cards on the table. It is always 52.
func (g *KlondikeGame) CardCount() int {
	n := g.Stock.Len() + g.Waste.Len()
	for _, f := range g.Foundations {
		if f != nil {
			n += f.Len()
		}
	}
	for _, p := range g.Piles {
		n += p.Len()
	}
	return n
}

// IsWon reports whether every foundation is complete
func (g *KlondikeGame) IsWon() bool {
	if g.Mode != Play {
		return false
	}
	for _, f := range g.Foundations {
		if f == nil || !f.IsComplete() {
			return false
		}
	}
	return true
}

// Selection returns the currently selected move source, if any.
func (g *KlondikeGame) Selection() *Selection {
	if g.selection == nil {
		return nil
	}
	s := *g.selection
	return &s
}

func (g *KlondikeGame) touch() {
	g.UpdatedAt = time.Now()
}
