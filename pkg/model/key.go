package model

type Row int

const (
	RowTop Row = iota
	RowMiddle
	RowBottom
)

func (r Row) String() string {
	switch r {
	case RowTop:
		return "top"
	case RowMiddle:
		return "middle"
	case RowBottom:
		return "bottom"
	}
	return "unknown"
}

// Color used for key press feedback of this row
func (r Row) Color() Color {
	switch r {
	case RowTop:
		return ColorTopRow
	case RowMiddle:
		return ColorMiddleRow
	default:
		return ColorBottomRow
	}
}

// KeyInfo locates a key within the control layout
type KeyInfo struct {
	Key   string `json:"key"`
	Row   Row    `json:"row"`
	Index int    `json:"index"`
}
