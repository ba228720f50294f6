package terminal

import (
	"context"
	"strings"

	"github.com/gdamore/tcell/v2"
)

// Action is the meaning of a terminal event for the race host loop
type Action int

const (
	ActionNone Action = iota
	ActionKey
	ActionStart
	ActionReset
	ActionQuit
	ActionResize
)

// Translate maps a tcell event to an action. For ActionKey the pressed key is
// returned in lower case.
func Translate(ev tcell.Event) (Action, string) {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return ActionQuit, ""
		case tcell.KeyEnter:
			return ActionStart, ""
		case tcell.KeyBackspace, tcell.KeyBackspace2:
			return ActionReset, ""
		case tcell.KeyRune:
			if ev.Rune() == ' ' {
				return ActionStart, ""
			}
			return ActionKey, strings.ToLower(string(ev.Rune()))
		}
	case *tcell.EventResize:
		return ActionResize, ""
	}
	return ActionNone, ""
}

// PollEvents forwards screen events to the returned channel until ctx is done
// or the screen is finalized.
func PollEvents(ctx context.Context, screen tcell.Screen) <-chan tcell.Event {
	ch := make(chan tcell.Event, 100)
	go func() {
		defer close(ch)
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case ch <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}
