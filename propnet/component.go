package propnet

import (
	"fmt"

	"ggp/gdl"
)

// ID addresses a component in its net's arena. IDs are stable until
// Crystallize compacts the arena.
type ID int32

// None marks an absent component.
const None ID = -1

type Kind uint8

const (
	Proposition Kind = iota
	And
	Or
	Not
	Constant
	Transition
)

func (k Kind) String() string {
	switch k {
	case Proposition:
		return "proposition"
	case And:
		return "and"
	case Or:
		return "or"
	case Not:
		return "not"
	case Constant:
		return "constant"
	case Transition:
		return "transition"
	default:
		return fmt.Sprintf("kind(%d)", k)
	}
}

// Role is the meaning of a proposition for the state machine.
type Role uint8

const (
	RoleNone Role = iota
	RoleBase
	RoleInput
	RoleLegal
	RoleGoal
	RoleTerminal
	RoleInit
)

func (r Role) String() string {
	switch r {
	case RoleNone:
		return "none"
	case RoleBase:
		return "base"
	case RoleInput:
		return "input"
	case RoleLegal:
		return "legal"
	case RoleGoal:
		return "goal"
	case RoleTerminal:
		return "terminal"
	case RoleInit:
		return "init"
	default:
		return fmt.Sprintf("role(%d)", r)
	}
}

// InitName names the proposition that holds only while the initial state is
// computed. Parsed descriptions are lower case, so it cannot collide.
var InitName = gdl.NewSentence("INIT")

// Component is one node of the net. Inputs and Outputs are owned by the net;
// callers must not modify them.
type Component struct {
	Kind    Kind
	Role    Role
	Name    gdl.Sentence // propositions only
	Value   bool         // constants only
	Initial bool         // bases true in the initial state
	Inputs  []ID
	Outputs []ID

	removed bool
}

func (c *Component) String() string {
	switch c.Kind {
	case Proposition:
		return c.Name.String()
	case Constant:
		if c.Value {
			return "TRUE"
		}
		return "FALSE"
	default:
		return c.Kind.String()
	}
}

// roleOf classifies a proposition by the relation that names it.
func roleOf(name gdl.Sentence) Role {
	switch {
	case name.Equal(InitName):
		return RoleInit
	case name.Name == gdl.True && len(name.Args) == 1:
		return RoleBase
	case name.Name == gdl.Does && len(name.Args) == 2:
		return RoleInput
	case name.Name == gdl.Legal && len(name.Args) == 2:
		return RoleLegal
	case name.Name == gdl.Goal && len(name.Args) == 2:
		return RoleGoal
	case name.Name == gdl.Terminal && len(name.Args) == 0:
		return RoleTerminal
	default:
		return RoleNone
	}
}
