package game

import (
	"go.uber.org/zap"
)

const keyEscape = '\x1b'

// Inspect mode keys.
const (
	KeyToggleAll  = 'v'
	KeyFlipTop3   = 't'
	KeyFlipRandom = 'r'
)

// HandleInput applies one key press to the game. Keys that do not map to an
// action, and actions the rules reject, are logged and otherwise ignored.
func (g *KlondikeGame) HandleInput(key rune) {
	log := g.logger.With(zap.String("key", string(key)))

	switch g.Mode {
	case Play:
		g.handlePlayInput(key, log)
	case InspectCards:
		g.handleInspectInput(key, log)
	}
}

func (g *KlondikeGame) handleInspectInput(key rune, log *zap.Logger) {
	switch key {
	case KeyToggleAll:
		g.Stock.FlipTop(g.Stock.Len())
	case KeyFlipTop3:
		g.Stock.ShowTop(3)
	case KeyFlipRandom:
		if g.Stock.IsEmpty() {
			return
		}
		i := g.rng.Intn(g.Stock.Len())
		g.Stock.FlipAt(i)
		log.Debug("flipped card", zap.Int("index", i))
	default:
		log.Info("unrecognized key")
		return
	}
	g.touch()
}

func pileKey(key rune) (int, bool) {
	if key >= '1' && key <= '0'+NumPiles {
		return int(key - '1'), true
	}
	return 0, false
}

func foundationKey(key rune) (Suit, bool) {
	switch key {
	case 'H':
		return Hearts, true
	case 'D':
		return Diamonds, true
	case 'C':
		return Clubs, true
	case 'S':
		return Spades, true
	}
	return 0, false
}

func (g *KlondikeGame) handlePlayInput(key rune, log *zap.Logger) {
	if g.Status == Won {
		log.Info("input ignored, game already won")
		return
	}

	if pile, ok := pileKey(key); ok {
		g.pileKeyPressed(pile, log)
		return
	}
	if suit, ok := foundationKey(key); ok {
		g.selection = &Selection{Kind: SourceFoundation, Suit: suit}
		return
	}

	switch key {
	case 'd', ' ':
		g.selection = nil
		g.report(g.Draw(), "draw", log)
	case 'w':
		g.selection = &Selection{Kind: SourceWaste}
	case 'f':
		g.foundationKeyPressed(log)
	case 'a':
		g.selection = nil
		_, err := g.AutoComplete()
		g.report(err, "auto-complete", log)
	case 'x', keyEscape:
		g.selection = nil
	default:
		log.Info("unrecognized key")
	}
}

// pileKeyPressed selects pile as a source, or completes a pending move onto it.
func (g *KlondikeGame) pileKeyPressed(pile int, log *zap.Logger) {
	sel := g.selection
	if sel == nil {
		g.selection = &Selection{Kind: SourcePile, Pile: pile}
		return
	}
	g.selection = nil

	var err error
	switch sel.Kind {
	case SourcePile:
		if sel.Pile == pile {
			return
		}
		err = g.MovePileToPile(sel.Pile, pile)
	case SourceWaste:
		err = g.MoveWasteToPile(pile)
	case SourceFoundation:
		err = g.MoveFoundationToPile(sel.Suit, pile)
	}
	g.report(err, "move "+sel.String()+" to pile", log)
}

func (g *KlondikeGame) foundationKeyPressed(log *zap.Logger) {
	sel := g.selection
	g.selection = nil
	if sel == nil {
		log.Info("nothing selected")
		return
	}

	var err error
	switch sel.Kind {
	case SourceWaste:
		err = g.MoveWasteToFoundation()
	case SourcePile:
		err = g.MovePileToFoundation(sel.Pile)
	default:
		log.Info("foundation cannot move to a foundation")
		return
	}
	g.report(err, "move "+sel.String()+" to foundation", log)
}

func (g *KlondikeGame) report(err error, action string, log *zap.Logger) {
	if err != nil {
		log.Info("move rejected", zap.String("action", action), zap.Error(err))
	}
}
