package game

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"
)

func up(s Suit, f Face) Card   { return Card{Suit: s, Face: f, FaceUp: true} }
func down(s Suit, f Face) Card { return Card{Suit: s, Face: f} }

func deckOf(name string, cards ...Card) *Deck {
	d := NewEmptyDeck(name)
	d.Add(cards...)
	return d
}

type KlondikeTestSuite struct {
	suite.Suite
	game *KlondikeGame
}

func TestKlondikeSuite(t *testing.T) {
	suite.Run(t, new(KlondikeTestSuite))
}

func (s *KlondikeTestSuite) SetupTest() {
	g, err := NewKlondikeGame(Play, WithSeed(1), WithLogger(zaptest.NewLogger(s.T())))
	s.Require().NoError(err)
	s.game = g
}

// clearTable empties every pile so a test can lay out its own position.
func (s *KlondikeTestSuite) clearTable() {
	g := s.game
	g.Stock = NewEmptyDeck("stock")
	g.Waste = NewEmptyDeck("waste")
	for _, suit := range Suits() {
		g.Foundations[suit] = NewFoundation(suit)
	}
	for i := range g.Piles {
		g.Piles[i] = NewEmptyDeck(g.Piles[i].Name)
	}
}

func (s *KlondikeTestSuite) fillFoundation(suit Suit, through Face) {
	for face := Ace; face <= through; face++ {
		s.Require().NoError(s.game.Foundations[suit].AddCard(up(suit, face)))
	}
}

func (s *KlondikeTestSuite) TestDeal() {
	for seed := int64(0); seed < 20; seed++ {
		g, err := NewKlondikeGame(Play, WithSeed(seed))
		s.Require().NoError(err)

		for i, pile := range g.Piles {
			s.Equal(i+1, pile.Len(), "pile %d", i)
			for j, card := range pile.Cards() {
				s.Equal(j == pile.Len()-1, card.FaceUp, "pile %d card %d", i, j)
			}
		}
		s.Equal(24, g.Stock.Len())
		s.True(g.Waste.IsEmpty())
		for _, suit := range Suits() {
			f := g.Foundations.Get(suit)
			s.Require().NotNil(f)
			s.Equal(suit, f.Suit())
			s.Equal(0, f.Len())
		}
		for _, c := range g.Stock.Cards() {
			s.False(c.FaceUp)
		}
		s.Equal(52, g.CardCount())
		s.Equal(InProgress, g.Status)
	}
}

func (s *KlondikeTestSuite) TestDealIsReproducible() {
	a, err := NewKlondikeGame(Play, WithSeed(99))
	s.Require().NoError(err)
	b, err := NewKlondikeGame(Play, WithRand(rand.New(rand.NewSource(99))))
	s.Require().NoError(err)

	s.Equal(a.Stock.Cards(), b.Stock.Cards())
	for i := range a.Piles {
		s.Equal(a.Piles[i].Cards(), b.Piles[i].Cards())
	}
}

func (s *KlondikeTestSuite) TestDealTakesFromTopOfShuffledStock() {
	shuffled := NewStandardDeck("x")
	shuffled.Shuffle(rand.New(rand.NewSource(5)))
	cards := shuffled.Cards()

	g, err := NewKlondikeGame(Play, WithSeed(5))
	s.Require().NoError(err)

	// Pile 0 takes the single top card; pile 1 the next two, in stock order.
	s.True(g.Piles[0].Cards()[0].Same(cards[51]))
	s.True(g.Piles[1].Cards()[0].Same(cards[49]))
	s.True(g.Piles[1].Cards()[1].Same(cards[50]))
	s.Equal(cards[:24], g.Stock.Cards())
}

func (s *KlondikeTestSuite) TestInvalidOptions() {
	_, err := NewKlondikeGame(Mode("solitaire"))
	s.ErrorIs(err, ErrUnknownMode)

	_, err = NewKlondikeGame(Play, WithDrawCount(2))
	s.Error(err)
}

func (s *KlondikeTestSuite) TestDrawOne() {
	top, _ := s.game.Stock.Top()

	s.Require().NoError(s.game.Draw())

	s.Equal(23, s.game.Stock.Len())
	s.Equal(1, s.game.Waste.Len())
	w, _ := s.game.Waste.Top()
	s.True(w.Same(top))
	s.True(w.FaceUp)
	s.Equal(1, s.game.Moves)
}

func (s *KlondikeTestSuite) TestDrawThree() {
	g, err := NewKlondikeGame(Play, WithSeed(1), WithDrawCount(3))
	s.Require().NoError(err)
	stock := g.Stock.Cards()

	s.Require().NoError(g.Draw())

	waste := g.Waste.Cards()
	s.Require().Len(waste, 3)
	s.True(waste[0].Same(stock[23]))
	s.True(waste[1].Same(stock[22]))
	s.True(waste[2].Same(stock[21]), "third card drawn ends on top")
	for _, c := range waste {
		s.True(c.FaceUp)
	}
}

func (s *KlondikeTestSuite) TestRecycleRestoresStock() {
	for _, drawCount := range []int{1, 3} {
		g, err := NewKlondikeGame(Play, WithSeed(3), WithDrawCount(drawCount))
		s.Require().NoError(err)
		original := g.Stock.Cards()

		for !g.Stock.IsEmpty() {
			s.Require().NoError(g.Draw())
		}
		s.Equal(24, g.Waste.Len())

		s.Require().NoError(g.Draw())
		s.True(g.Waste.IsEmpty())
		s.Equal(original, g.Stock.Cards(), "draw count %d", drawCount)
	}
}

func (s *KlondikeTestSuite) TestDrawFromEmptyTable() {
	s.clearTable()
	s.ErrorIs(s.game.Draw(), ErrNothingToRecycle)
	s.Equal(0, s.game.Moves)
}

func (s *KlondikeTestSuite) TestMovePileToPile() {
	s.clearTable()
	g := s.game
	g.Piles[0] = deckOf("pile 1", down(Clubs, Two), up(Hearts, Nine), up(Spades, Eight), up(Diamonds, Seven))
	g.Piles[1] = deckOf("pile 2", down(Hearts, Three), up(Clubs, Ten))

	s.Require().NoError(g.MovePileToPile(0, 1))

	s.Equal([]Card{down(Hearts, Three), up(Clubs, Ten), up(Hearts, Nine), up(Spades, Eight), up(Diamonds, Seven)}, g.Piles[1].Cards())
	s.Equal([]Card{up(Clubs, Two)}, g.Piles[0].Cards(), "exposed card is turned face-up")
}

func (s *KlondikeTestSuite) TestMovePartialRun() {
	s.clearTable()
	g := s.game
	g.Piles[0] = deckOf("pile 1", up(Hearts, Nine), up(Spades, Eight), up(Diamonds, Seven))
	g.Piles[1] = deckOf("pile 2", up(Hearts, Nine))

	s.Require().NoError(g.MovePileToPile(0, 1))

	s.Equal([]Card{up(Hearts, Nine)}, g.Piles[0].Cards())
	s.Equal([]Card{up(Hearts, Nine), up(Spades, Eight), up(Diamonds, Seven)}, g.Piles[1].Cards())
}

func (s *KlondikeTestSuite) TestMoveKingToEmptyPile() {
	s.clearTable()
	g := s.game
	g.Piles[0] = deckOf("pile 1", down(Clubs, Four), up(Spades, King), up(Hearts, Queen))

	s.Require().NoError(g.MovePileToPile(0, 3))
	s.Equal([]Card{up(Spades, King), up(Hearts, Queen)}, g.Piles[3].Cards())
	s.Equal([]Card{up(Clubs, Four)}, g.Piles[0].Cards())

	g.Piles[4] = deckOf("pile 5", up(Hearts, Queen))
	s.ErrorIs(g.MovePileToPile(4, 5), ErrIllegalMove, "only a King may fill an empty pile")
}

func (s *KlondikeTestSuite) TestIllegalPileMoves() {
	s.clearTable()
	g := s.game
	g.Piles[0] = deckOf("pile 1", up(Hearts, Six))
	g.Piles[1] = deckOf("pile 2", up(Diamonds, Seven))
	g.Piles[2] = deckOf("pile 3", down(Spades, Seven))

	s.ErrorIs(g.MovePileToPile(0, 1), ErrIllegalMove, "same color")
	s.ErrorIs(g.MovePileToPile(0, 0), ErrIllegalMove)
	s.ErrorIs(g.MovePileToPile(3, 0), ErrEmptySource)
	s.ErrorIs(g.MovePileToPile(2, 0), ErrIllegalMove, "face-down cards never move")
	s.ErrorIs(g.MovePileToPile(0, 7), ErrInvalidPile)
	s.ErrorIs(g.MovePileToPile(-1, 0), ErrInvalidPile)

	s.Equal([]Card{up(Hearts, Six)}, g.Piles[0].Cards())
	s.Equal([]Card{up(Diamonds, Seven)}, g.Piles[1].Cards())
	s.Equal(0, g.Moves)
}

func (s *KlondikeTestSuite) TestWasteMoves() {
	s.clearTable()
	g := s.game
	g.Waste = deckOf("waste", up(Clubs, Ace), up(Hearts, Queen))
	g.Piles[0] = deckOf("pile 1", up(Spades, King))

	s.ErrorIs(g.MoveWasteToFoundation(), ErrInvalidCardOrder)
	s.Require().NoError(g.MoveWasteToPile(0))
	s.Require().NoError(g.MoveWasteToFoundation())

	s.True(g.Waste.IsEmpty())
	s.Equal(1, g.Foundations[Clubs].Len())
	s.ErrorIs(g.MoveWasteToPile(1), ErrEmptySource)
	s.Equal(2, g.Moves)
}

func (s *KlondikeTestSuite) TestPileToFoundationRevealsCard() {
	s.clearTable()
	g := s.game
	g.Piles[2] = deckOf("pile 3", down(Spades, Nine), up(Diamonds, Ace))

	s.Require().NoError(g.MovePileToFoundation(2))

	s.Equal([]Card{up(Spades, Nine)}, g.Piles[2].Cards())
	s.Equal(1, g.Foundations[Diamonds].Len())
	s.ErrorIs(g.MovePileToFoundation(2), ErrInvalidCardOrder)
}

func (s *KlondikeTestSuite) TestNamedFoundationMustMatchSuit() {
	s.clearTable()
	g := s.game
	g.Piles[0] = deckOf("pile 1", up(Spades, Ace))
	g.Waste = deckOf("waste", up(Clubs, Ace))

	s.ErrorIs(g.MovePileToFoundationOf(0, Hearts), ErrInvalidSuit)
	s.ErrorIs(g.MoveWasteToFoundationOf(Diamonds), ErrInvalidSuit)
	s.Equal(1, g.Piles[0].Len())
	s.Equal(1, g.Waste.Len())
	s.Equal(0, g.Foundations[Hearts].Len())
	s.Equal(0, g.Moves)

	s.Require().NoError(g.MovePileToFoundationOf(0, Spades))
	s.Require().NoError(g.MoveWasteToFoundationOf(Clubs))
	s.Equal(1, g.Foundations[Spades].Len())
	s.Equal(1, g.Foundations[Clubs].Len())
	s.Equal(2, g.Moves)
}

func (s *KlondikeTestSuite) TestFoundationToPile() {
	s.clearTable()
	g := s.game
	s.fillFoundation(Hearts, Six)
	g.Piles[0] = deckOf("pile 1", up(Clubs, Seven))

	s.ErrorIs(g.MoveFoundationToPile(Spades, 0), ErrEmptySource)
	s.ErrorIs(g.MoveFoundationToPile(Hearts, 1), ErrIllegalMove)
	s.Require().NoError(g.MoveFoundationToPile(Hearts, 0))

	s.Equal(5, g.Foundations[Hearts].Len())
	top, _ := g.Piles[0].Top()
	s.Equal(up(Hearts, Six), top)
}

func (s *KlondikeTestSuite) TestAutoCompleteWins() {
	s.clearTable()
	g := s.game
	for i, suit := range Suits() {
		s.fillFoundation(suit, Queen)
		g.Piles[i] = deckOf(g.Piles[i].Name, up(suit, King))
	}

	moved, err := g.AutoComplete()
	s.Require().NoError(err)

	s.Equal(4, moved)
	s.Equal(Won, g.Status)
	s.True(g.IsWon())
	s.ErrorIs(g.Draw(), ErrGameWon)

	_, err = g.AutoComplete()
	s.ErrorIs(err, ErrGameWon)
}

func (s *KlondikeTestSuite) TestAutoCompleteChains() {
	s.clearTable()
	g := s.game
	g.Waste = deckOf("waste", up(Hearts, Two))
	g.Piles[0] = deckOf("pile 1", up(Hearts, Three), up(Hearts, Ace))
	g.Piles[1] = deckOf("pile 2", up(Clubs, Five))

	moved, err := g.AutoComplete()
	s.Require().NoError(err)

	s.Equal(3, moved)
	s.Equal(3, g.Foundations[Hearts].Len())
	s.Equal(1, g.Piles[1].Len())
	s.Equal(InProgress, g.Status)
}

func (s *KlondikeTestSuite) TestPlayInputKeys() {
	s.clearTable()
	g := s.game
	g.Piles[0] = deckOf("pile 1", up(Hearts, Nine))
	g.Piles[1] = deckOf("pile 2", up(Spades, Ten))
	g.Waste = deckOf("waste", up(Spades, Ace))

	g.HandleInput('1')
	s.Require().NotNil(g.Selection())
	s.Equal(SourcePile, g.Selection().Kind)
	g.HandleInput('2')
	s.Nil(g.Selection())
	s.Equal(2, g.Piles[1].Len())

	g.HandleInput('w')
	g.HandleInput('f')
	s.Equal(1, g.Foundations[Spades].Len())

	g.HandleInput('S')
	g.HandleInput('1')
	s.Equal(1, g.Foundations[Spades].Len(), "an Ace may not go on an empty pile")
	s.Nil(g.Selection())

	g.HandleInput('3')
	g.HandleInput('x')
	s.Nil(g.Selection())

	g.HandleInput('2')
	g.HandleInput('2')
	s.Nil(g.Selection(), "selecting the same pile twice cancels")

	before := g.Snapshot()
	g.HandleInput('z')
	g.HandleInput('f')
	s.Equal(before.Piles, g.Snapshot().Piles)
}

func (s *KlondikeTestSuite) TestDrawKey() {
	g := s.game
	g.HandleInput('d')
	g.HandleInput(' ')
	s.Equal(2, g.Waste.Len())
	s.Equal(22, g.Stock.Len())
}

func (s *KlondikeTestSuite) TestRandomPlayKeepsInvariants() {
	keys := []rune("1234567wdfaHDCSx ")
	r := rand.New(rand.NewSource(11))

	for seed := int64(0); seed < 5; seed++ {
		g, err := NewKlondikeGame(Play, WithSeed(seed))
		s.Require().NoError(err)

		for i := 0; i < 2000; i++ {
			g.HandleInput(keys[r.Intn(len(keys))])

			s.Require().Equal(52, g.CardCount())
			for _, suit := range Suits() {
				for j, c := range g.Foundations[suit].Cards() {
					s.Require().Equal(suit, c.Suit)
					s.Require().Equal(Face(j), c.Face)
				}
			}
			for _, p := range g.Piles {
				if top, ok := p.Top(); ok {
					s.Require().True(top.FaceUp, "tableau tops are always face-up")
				}
				low := p.FaceUpRun()
				if low < p.Len() {
					s.Require().True(validRun(p.Cards()[low:]))
				}
			}
		}
	}
}

func TestInspectMode(t *testing.T) {
	g, err := NewKlondikeGame(InspectCards, WithSeed(1), WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)

	assert.Equal(t, NewStandardDeck("stock").Cards(), g.Stock.Cards())
	assert.Equal(t, Inspecting, g.Status)
	for _, suit := range Suits() {
		assert.Nil(t, g.Foundations.Get(suit))
	}
	for _, p := range g.Piles {
		assert.True(t, p.IsEmpty())
	}
	assert.Empty(t, g.Snapshot().Foundations)

	g.HandleInput(KeyToggleAll)
	for _, c := range g.Stock.Cards() {
		assert.True(t, c.FaceUp)
	}
	g.HandleInput(KeyToggleAll)

	g.HandleInput(KeyFlipTop3)
	faceUp := 0
	for i, c := range g.Stock.Cards() {
		if c.FaceUp {
			faceUp++
			assert.GreaterOrEqual(t, i, 49)
		}
	}
	assert.Equal(t, 3, faceUp)

	// Showing the top cards never hides one that is already visible.
	g.HandleInput(KeyFlipTop3)
	g.HandleInput(KeyToggleAll)
	g.HandleInput(KeyFlipTop3)
	for _, c := range g.Stock.Cards() {
		assert.True(t, c.FaceUp, c.String())
	}

	g.HandleInput(KeyToggleAll)
	g.HandleInput(KeyFlipRandom)
	faceUp = 0
	for _, c := range g.Stock.Cards() {
		if c.FaceUp {
			faceUp++
		}
	}
	assert.Equal(t, 1, faceUp)

	g.HandleInput('d')
	g.HandleInput('1')
	assert.Equal(t, 52, g.Stock.Len(), "no card leaves the stock")
	assert.Equal(t, 52, g.CardCount())

	assert.ErrorIs(t, g.Draw(), ErrWrongMode)
	_, err = g.AutoComplete()
	assert.ErrorIs(t, err, ErrWrongMode)
}

func TestSnapshotIsACopy(t *testing.T) {
	g, err := NewKlondikeGame(Play, WithSeed(2))
	require.NoError(t, err)

	snap := g.Snapshot()
	require.Len(t, snap.Piles, NumPiles)
	require.Len(t, snap.Foundations, NumSuits)
	assert.Equal(t, g.ID, snap.ID)

	snap.Piles[6][0].FaceUp = true
	snap.Stock = snap.Stock[:0]

	first, _ := g.Piles[6].At(0)
	assert.False(t, first.FaceUp)
	assert.Equal(t, 24, g.Stock.Len())

	g.HandleInput('3')
	snap = g.Snapshot()
	require.NotNil(t, snap.Selection)
	assert.Equal(t, 3, snap.Selection.Pile)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("game")
	require.NoError(t, err)
	assert.Equal(t, Play, m)

	m, err = ParseMode("render_cards")
	require.NoError(t, err)
	assert.Equal(t, InspectCards, m)

	_, err = ParseMode("Game")
	assert.ErrorIs(t, err, ErrUnknownMode)
}
