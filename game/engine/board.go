package engine

import "fmt"

// Board is a fixed-shape grid of tokens. It owns the matching predicate and
// the matched-pair counter. A Board is not safe for concurrent use; the
// owning session serializes access.
type Board struct {
	rows         int
	cols         int
	grid         [][]Token
	matchedPairs int
}

// NewBoard lays keys row-major into a grid shaped by tier. The number of keys
// must equal tier.Rows*tier.Cols.
func NewBoard(tier Tier, keys []string) (*Board, error) {
	size := tier.Rows * tier.Cols
	if len(keys) != size {
		return nil, fmt.Errorf("%w: tier %q needs %d tokens, got %d", ErrSizeMismatch, tier.Name, size, len(keys))
	}

	grid := make([][]Token, tier.Rows)
	for r := range grid {
		grid[r] = make([]Token, tier.Cols)
		for c := range grid[r] {
			id := r*tier.Cols + c
			grid[r][c] = Token{ID: id, Key: keys[id]}
		}
	}

	return &Board{
		rows:         tier.Rows,
		cols:         tier.Cols,
		grid:         grid,
		matchedPairs: 0,
	}, nil
}

// Rows returns the number of rows
func (b *Board) Rows() int {
	return b.rows
}

// Cols returns the number of columns
func (b *Board) Cols() int {
	return b.cols
}

// TotalPairs returns rows*cols/2
func (b *Board) TotalPairs() int {
	return b.rows * b.cols / 2
}

// MatchedPairs returns the number of pairs found so far
func (b *Board) MatchedPairs() int {
	return b.matchedPairs
}

// IsComplete reports whether every pair has been found
func (b *Board) IsComplete() bool {
	return b.matchedPairs == b.TotalPairs()
}

// InBounds reports whether pos addresses a cell on this board
func (b *Board) InBounds(pos Position) bool {
	return pos.Row >= 0 && pos.Row < b.rows && pos.Col >= 0 && pos.Col < b.cols
}

// TokenAt returns a copy of the token at pos. ok is false when pos is out of range.
func (b *Board) TokenAt(pos Position) (Token, bool) {
	if !b.InBounds(pos) {
		return Token{}, false
	}
	return b.grid[pos.Row][pos.Col], true
}

// EvaluateMatch reports whether p and q hold distinct tokens with equal keys.
// On the first successful evaluation of a pair both tokens are marked matched
// and the pair counter grows by one; evaluating an already-matched pair again
// returns true without touching the counter.
func (b *Board) EvaluateMatch(p, q Position) bool {
	if !b.InBounds(p) || !b.InBounds(q) || p == q {
		return false
	}

	first := &b.grid[p.Row][p.Col]
	second := &b.grid[q.Row][q.Col]
	if first.Key != second.Key {
		return false
	}

	if !first.Matched && !second.Matched {
		first.Matched = true
		second.Matched = true
		first.FaceUp = true
		second.FaceUp = true
		b.matchedPairs++
	}
	return true
}

// Flip turns the token at pos face up and returns it
func (b *Board) Flip(pos Position) (Token, error) {
	if !b.InBounds(pos) {
		return Token{}, fmt.Errorf("%w: (%d,%d)", ErrInvalidPosition, pos.Row, pos.Col)
	}
	b.grid[pos.Row][pos.Col].FaceUp = true
	return b.grid[pos.Row][pos.Col], nil
}

// Hide turns an unmatched token at pos face down. Matched tokens stay up.
func (b *Board) Hide(pos Position) {
	if !b.InBounds(pos) {
		return
	}
	if tok := &b.grid[pos.Row][pos.Col]; !tok.Matched {
		tok.FaceUp = false
	}
}

// FindUnmatchedPair returns the positions of some pair not yet matched
func (b *Board) FindUnmatchedPair() (Position, Position, bool) {
	seen := make(map[string]Position)
	for r := 0; r < b.rows; r++ {
		for c := 0; c < b.cols; c++ {
			tok := b.grid[r][c]
			if tok.Matched {
				continue
			}
			if prev, ok := seen[tok.Key]; ok {
				return prev, Position{Row: r, Col: c}, true
			}
			seen[tok.Key] = Position{Row: r, Col: c}
		}
	}
	return Position{}, Position{}, false
}

// View returns the player-visible grid
func (b *Board) View() [][]CellView {
	view := make([][]CellView, b.rows)
	for r := range view {
		view[r] = make([]CellView, b.cols)
		for c := range view[r] {
			view[r][c] = b.grid[r][c].View()
		}
	}
	return view
}
