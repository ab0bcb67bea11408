// Package gameplay resolves which play variant drives an agent's camera and
// behavior tuning from the level and game-mode signals it is exposed to.
package gameplay

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownContext = errors.New("gameplay: unknown context")

// Context is a play variant. The zero value is Platforming, so a Context is
// never undefined.
type Context uint8

const (
	Platforming Context = iota
	Combat
	SideScrolling
)

// Contexts lists every variant in declaration order.
var Contexts = []Context{Platforming, Combat, SideScrolling}

func (c Context) String() string {
	switch c {
	case Platforming:
		return "platforming"
	case Combat:
		return "combat"
	case SideScrolling:
		return "side_scrolling"
	default:
		return fmt.Sprintf("context(%d)", uint8(c))
	}
}

// Valid reports whether c is one of the declared variants.
func (c Context) Valid() bool {
	return c <= SideScrolling
}

// ParseContext accepts the String form plus a few authoring aliases.
func ParseContext(s string) (Context, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "platforming", "platform":
		return Platforming, nil
	case "combat":
		return Combat, nil
	case "side_scrolling", "sidescrolling", "side-scrolling", "sidescroller":
		return SideScrolling, nil
	}
	return 0, fmt.Errorf("%w %q", ErrUnknownContext, s)
}

// UnmarshalText lets YAML and env decoding use context names.
func (c *Context) UnmarshalText(text []byte) error {
	v, err := ParseContext(string(text))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

func (c Context) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}
