package control

import (
	"strings"

	"github.com/mpapenbr/snailrace/pkg/model"
)

// Layout maps keys to their row and position within the row
type Layout struct {
	keys map[string]model.KeyInfo
	rows [3][]string
}

// QwertyRows is the default layout
var QwertyRows = [3]string{"qwertyuiop", "asdfghjkl", "zxcvbnm,."}

// NewLayout creates a layout from three row strings (top, middle, bottom).
// Every rune of a row string is a key.
func NewLayout(rows [3]string) *Layout {
	ret := &Layout{keys: map[string]model.KeyInfo{}}
	for r, row := range rows {
		for i, k := range []rune(strings.ToLower(row)) {
			key := string(k)
			ret.rows[r] = append(ret.rows[r], key)
			if _, exists := ret.keys[key]; exists {
				continue // first occurrence wins
			}
			ret.keys[key] = model.KeyInfo{Key: key, Row: model.Row(r), Index: i}
		}
	}
	return ret
}

func DefaultLayout() *Layout {
	return NewLayout(QwertyRows)
}

// Lookup resolves a key (case insensitive)
func (l *Layout) Lookup(key string) (model.KeyInfo, bool) {
	info, ok := l.keys[strings.ToLower(key)]
	return info, ok
}

// Row returns the keys of row r
func (l *Layout) Row(r model.Row) []string {
	if r < model.RowTop || r > model.RowBottom {
		return nil
	}
	return l.rows[r]
}
