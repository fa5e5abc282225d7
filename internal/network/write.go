package network

import (
	"fmt"
	"io"
)

// WriteSimple serializes a simple network back to the §6 input file format.
// Used by tests to assert the parser round-trips (testable property F).
func WriteSimple(w io.Writer, n *Network) error {
	if !n.Simple {
		return fmt.Errorf("network: WriteSimple requires a simple network")
	}
	if _, err := fmt.Fprintf(w, "T %d\n", n.NumTrucks); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "C 1\n"); err != nil {
		return err
	}
	c := n.Crushers[0]
	if _, err := fmt.Fprintf(w, "%v %v\n", c.EmptyMean, c.EmptySD); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "S %d\n", len(n.Shovels)); err != nil {
		return err
	}
	for i, sh := range n.Shovels {
		road := n.Roads[i]
		if _, err := fmt.Fprintf(w, "%v %v %v %v\n", road.TravelMean, road.TravelSD, sh.FillMean, sh.FillSD); err != nil {
			return err
		}
	}
	return nil
}

// WriteComplex serializes a complex network back to the §6 input file format.
func WriteComplex(w io.Writer, n *Network) error {
	if n.Simple {
		return fmt.Errorf("network: WriteComplex requires a complex network")
	}
	if _, err := fmt.Fprintf(w, "T %d %v\n", n.NumTrucks, n.FullSlowdown); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "C %d\n", len(n.Crushers)); err != nil {
		return err
	}
	for _, c := range n.Crushers {
		if _, err := fmt.Fprintf(w, "%v %v\n", c.EmptyMean, c.EmptySD); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "S %d\n", len(n.Shovels)); err != nil {
		return err
	}
	for _, sh := range n.Shovels {
		if _, err := fmt.Fprintf(w, "%v %v\n", sh.FillMean, sh.FillSD); err != nil {
			return err
		}
	}
	numIntermediate := 0
	for _, r := range n.Roads {
		if r.A.Kind == NodeIntermediate {
			if r.A.Index+1 > numIntermediate {
				numIntermediate = r.A.Index + 1
			}
		}
		if r.B.Kind == NodeIntermediate {
			if r.B.Index+1 > numIntermediate {
				numIntermediate = r.B.Index + 1
			}
		}
	}
	if _, err := fmt.Fprintf(w, "R %d N %d\n", len(n.Roads), numIntermediate); err != nil {
		return err
	}
	for _, r := range n.Roads {
		kind := "t"
		if r.Kind == OneLane {
			kind = "o"
		}
		if _, err := fmt.Fprintf(w, "%s %d %s %d %v %v %s\n",
			nodeTag(r.A), r.A.Index, nodeTag(r.B), r.B.Index, r.TravelMean, r.TravelSD, kind); err != nil {
			return err
		}
	}
	return nil
}

func nodeTag(n NodeRef) string {
	switch n.Kind {
	case NodeCrusher:
		return "c"
	case NodeShovel:
		return "s"
	default:
		return "n"
	}
}
