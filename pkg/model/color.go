package model

import "fmt"

// Color is a 0xRRGGBB value
type Color uint32

const (
	ColorLap       Color = 0x00FF00
	ColorFinish    Color = 0xFFD700
	ColorCollision Color = 0xFFAA00
	ColorTopRow    Color = 0xFF6B6B
	ColorMiddleRow Color = 0xFFD93D
	ColorBottomRow Color = 0x6BCF7F
)

func (c Color) RGB() (r, g, b uint8) {
	return uint8(c >> 16), uint8(c >> 8), uint8(c)
}

func (c Color) Hex() string {
	return fmt.Sprintf("#%06x", uint32(c)&0xFFFFFF)
}

func (c Color) String() string {
	return c.Hex()
}
