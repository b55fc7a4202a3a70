package engine

import "errors"

var (
	// ErrConfiguration marks an unknown difficulty or mode, or an unusable tier
	ErrConfiguration = errors.New("configuration error")
	// ErrSizeMismatch is returned when a token set does not fill a tier's grid exactly
	ErrSizeMismatch = errors.New("token set size does not match board size")
	// ErrInvalidTier is returned by ValidateTier
	ErrInvalidTier = errors.New("invalid difficulty tier")
	// ErrInvalidPosition is returned for coordinates outside the board
	ErrInvalidPosition = errors.New("position out of range")
)

const (
	// Validation constants
	MinBoardSide = 2
	MaxBoardSide = 12
	MaxHints     = 10
)

// Position addresses a cell on the board
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Token is a single hidden tile. Key is the position-independent matching key;
// two tokens with the same key form a pair.
type Token struct {
	ID      int    `json:"id"`
	Key     string `json:"key"`
	Matched bool   `json:"matched"`
	FaceUp  bool   `json:"face_up"`
}

// CellView is what a player is allowed to see of a token
type CellView struct {
	ID      int    `json:"id"`
	Key     string `json:"key,omitempty"` // Only set when face up or matched
	Matched bool   `json:"matched"`
	FaceUp  bool   `json:"face_up"`
}

// View hides the key of face-down tokens
func (t Token) View() CellView {
	v := CellView{ID: t.ID, Matched: t.Matched, FaceUp: t.FaceUp}
	if t.FaceUp || t.Matched {
		v.Key = t.Key
	}
	return v
}
