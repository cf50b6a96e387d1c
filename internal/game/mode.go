package game

import (
	"errors"
	"fmt"
)

// ErrUnknownMode is returned by ParseMode for an unrecognized selector.
var ErrUnknownMode = errors.New("unknown game mode")

type Mode string

const (
	Play         Mode = "game"         // Regular Klondike game
	InspectCards Mode = "render_cards" // Full unshuffled deck in the stock, for inspecting the card set
)

// ParseMode resolves a configuration string into a Mode
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case Play, InspectCards:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

type GameStatus string

const (
	InProgress GameStatus = "inProgress" // Cards still to be moved
	Won        GameStatus = "won"        // All four foundations complete
	Inspecting GameStatus = "inspecting" // InspectCards mode, never finishes
)
