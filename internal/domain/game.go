package domain

import "errors"

var (
	ErrUnknownGameMode   = errors.New("unknown game mode")
	ErrUnknownTicketType = errors.New("unknown ticket type")
)

// GameMode identifies a chance-based reward game
type GameMode string

const (
	GameSpin    GameMode = "spin"    // Spin wheel
	GameGiftBox GameMode = "giftbox" // Gift box
	GameMemory  GameMode = "memory"  // Memory match skill game
	GameWhack   GameMode = "whack"   // Whack-a-mole skill game
	GamePuzzle  GameMode = "puzzle"  // Sliding puzzle skill game
	GameSnake   GameMode = "snake"   // Snake skill game
)

// GameModes lists every known mode in display order
var GameModes = []GameMode{GameSpin, GameGiftBox, GameMemory, GameWhack, GamePuzzle, GameSnake}

// SkillGames are the modes served by the generic skill-game gateway
var SkillGames = []GameMode{GameMemory, GameWhack, GamePuzzle, GameSnake}

// TicketType is a closed enumeration of ledger ticket counters
type TicketType string

const (
	TicketSpin    TicketType = "spin"
	TicketGiftBox TicketType = "giftbox"
	TicketMemory  TicketType = "memory"
	TicketWhack   TicketType = "whack"
	TicketPuzzle  TicketType = "puzzle"
	TicketSnake   TicketType = "snake"
)

// ticketColumns is the allow-list of ledger columns a ticket mutation may target.
var ticketColumns = map[TicketType]string{
	TicketSpin:    "spin_tickets",
	TicketGiftBox: "giftbox_tickets",
	TicketMemory:  "memory_tickets",
	TicketWhack:   "whack_tickets",
	TicketPuzzle:  "puzzle_tickets",
	TicketSnake:   "snake_tickets",
}

var modeTickets = map[GameMode]TicketType{
	GameSpin:    TicketSpin,
	GameGiftBox: TicketGiftBox,
	GameMemory:  TicketMemory,
	GameWhack:   TicketWhack,
	GamePuzzle:  TicketPuzzle,
	GameSnake:   TicketSnake,
}

// ParseGameMode validates a client supplied mode name
func ParseGameMode(s string) (GameMode, error) {
	m := GameMode(s)
	if _, ok := modeTickets[m]; !ok {
		return "", ErrUnknownGameMode
	}
	return m, nil
}

// ParseSkillGame accepts only the modes behind the generic skill gateway
func ParseSkillGame(s string) (GameMode, error) {
	for _, m := range SkillGames {
		if string(m) == s {
			return m, nil
		}
	}
	return "", ErrUnknownGameMode
}

// ParseTicketType validates a ticket name against the allow-list.
// Accepts both "spin" and the column style "spin_tickets".
func ParseTicketType(s string) (TicketType, error) {
	t := TicketType(s)
	if _, ok := ticketColumns[t]; ok {
		return t, nil
	}
	for tt, col := range ticketColumns {
		if col == s {
			return tt, nil
		}
	}
	return "", ErrUnknownTicketType
}

// Ticket returns the counter consumed by one play of the mode
func (m GameMode) Ticket() TicketType {
	return modeTickets[m]
}

// Column returns the ledger column backing the ticket type.
// The second result is false for values outside the allow-list.
func (t TicketType) Column() (string, bool) {
	col, ok := ticketColumns[t]
	return col, ok
}
