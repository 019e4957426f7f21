package propnet

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
)

var shapes = map[Kind]string{
	Proposition: "circle",
	And:         "invhouse",
	Or:          "ellipse",
	Not:         "invtriangle",
	Constant:    "doublecircle",
	Transition:  "box",
}

// WriteDot renders the net in Graphviz DOT. Transition edges are dashed.
func (n *PropNet) WriteDot(w io.Writer) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, "digraph propnet {")
	fmt.Fprintln(bw, "  rankdir=LR;")
	n.Each(func(id ID, c *Component) {
		label := c.String()
		if c.Kind == Proposition && c.Role != RoleNone {
			label += "\n" + c.Role.String()
		}
		fmt.Fprintf(bw, "  c%d [shape=%s, label=%s];\n", id, shapes[c.Kind], strconv.Quote(label))
	})
	n.Each(func(id ID, c *Component) {
		for _, out := range c.Outputs {
			if c.Kind == Transition {
				fmt.Fprintf(bw, "  c%d -> c%d [style=dashed];\n", id, out)
				continue
			}
			fmt.Fprintf(bw, "  c%d -> c%d;\n", id, out)
		}
	})
	fmt.Fprintln(bw, "}")

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write dot: %w", err)
	}
	return nil
}
