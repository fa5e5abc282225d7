package network

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ParseError reports a hard parse failure, naming the line and what was
// expected there. No partial network is ever returned alongside an error.
type ParseError struct {
	Line     int
	Expected string
	Got      string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("network: parse error at line %d: expected %s, got %q", e.Line, e.Expected, e.Got)
}

type lineScanner struct {
	sc   *bufio.Scanner
	line int
}

func newLineScanner(r io.Reader) *lineScanner {
	return &lineScanner{sc: bufio.NewScanner(r)}
}

// next returns the next non-empty line's fields, or false at EOF.
func (s *lineScanner) next() ([]string, bool) {
	for s.sc.Scan() {
		s.line++
		fields := strings.Fields(s.sc.Text())
		if len(fields) == 0 {
			continue
		}
		return fields, true
	}
	return nil, false
}

func (s *lineScanner) expect(fields []string, ok bool, expected string) error {
	if !ok {
		return &ParseError{Line: s.line + 1, Expected: expected, Got: "<eof>"}
	}
	return nil
}

func parseFloat(s *lineScanner, fields []string, idx int, expected string) (float64, error) {
	if idx >= len(fields) {
		return 0, &ParseError{Line: s.line, Expected: expected, Got: strings.Join(fields, " ")}
	}
	v, err := strconv.ParseFloat(fields[idx], 64)
	if err != nil {
		return 0, &ParseError{Line: s.line, Expected: expected, Got: fields[idx]}
	}
	return v, nil
}

func parseInt(s *lineScanner, fields []string, idx int, expected string) (int, error) {
	if idx >= len(fields) {
		return 0, &ParseError{Line: s.line, Expected: expected, Got: strings.Join(fields, " ")}
	}
	v, err := strconv.Atoi(fields[idx])
	if err != nil {
		return 0, &ParseError{Line: s.line, Expected: expected, Got: fields[idx]}
	}
	return v, nil
}

func requireLen(s *lineScanner, fields []string, want int, expected string) error {
	if len(fields) != want {
		return &ParseError{Line: s.line, Expected: expected, Got: strings.Join(fields, " ")}
	}
	return nil
}

// Parse auto-detects the input file format from its first line's token
// count ("T <NT>" for simple, "T <NT> <full_slowdown>" for complex, spec
// §6) and dispatches to ParseSimple or ParseComplex. It buffers the whole
// reader, since the format tag is only decidable after reading that line.
func Parse(r io.Reader) (*Network, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	first := strings.Fields(firstNonEmptyLine(string(data)))
	switch len(first) {
	case 2:
		return ParseSimple(strings.NewReader(string(data)))
	case 3:
		return ParseComplex(strings.NewReader(string(data)))
	default:
		return nil, &ParseError{Line: 1, Expected: `"T <NT>" or "T <NT> <full_slowdown>"`, Got: strings.Join(first, " ")}
	}
}

func firstNonEmptyLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			return line
		}
	}
	return ""
}

// ParseSimple parses the simple-network input file format (§6): a single
// crusher with one dedicated two-lane road per shovel.
func ParseSimple(r io.Reader) (*Network, error) {
	s := newLineScanner(r)

	fields, ok := s.next()
	if err := s.expect(fields, ok, `"T <NT>"`); err != nil {
		return nil, err
	}
	if err := requireLen(s, fields, 2, `"T <NT>"`); err != nil {
		return nil, err
	}
	if fields[0] != "T" {
		return nil, &ParseError{Line: s.line, Expected: `"T" tag`, Got: fields[0]}
	}
	nt, err := parseInt(s, fields, 1, "truck count")
	if err != nil {
		return nil, err
	}

	fields, ok = s.next()
	if err := s.expect(fields, ok, `"C 1"`); err != nil {
		return nil, err
	}
	if err := requireLen(s, fields, 2, `"C 1"`); err != nil {
		return nil, err
	}
	if fields[0] != "C" {
		return nil, &ParseError{Line: s.line, Expected: `"C" tag`, Got: fields[0]}
	}
	nc, err := parseInt(s, fields, 1, "crusher count")
	if err != nil {
		return nil, err
	}
	if nc != 1 {
		return nil, &ParseError{Line: s.line, Expected: "exactly 1 crusher for simple network", Got: fields[1]}
	}

	fields, ok = s.next()
	if err := s.expect(fields, ok, "crusher empty_mean empty_sd"); err != nil {
		return nil, err
	}
	if err := requireLen(s, fields, 2, "crusher empty_mean empty_sd"); err != nil {
		return nil, err
	}
	emptyMean, err := parseFloat(s, fields, 0, "empty_mean")
	if err != nil {
		return nil, err
	}
	emptySD, err := parseFloat(s, fields, 1, "empty_sd")
	if err != nil {
		return nil, err
	}

	fields, ok = s.next()
	if err := s.expect(fields, ok, `"S <NS>"`); err != nil {
		return nil, err
	}
	if err := requireLen(s, fields, 2, `"S <NS>"`); err != nil {
		return nil, err
	}
	if fields[0] != "S" {
		return nil, &ParseError{Line: s.line, Expected: `"S" tag`, Got: fields[0]}
	}
	ns, err := parseInt(s, fields, 1, "shovel count")
	if err != nil {
		return nil, err
	}

	shovels := make([]Shovel, ns)
	roads := make([]Road, ns)
	for i := 0; i < ns; i++ {
		fields, ok = s.next()
		if err := s.expect(fields, ok, "travel_mean travel_sd fill_mean fill_sd"); err != nil {
			return nil, err
		}
		if err := requireLen(s, fields, 4, "travel_mean travel_sd fill_mean fill_sd"); err != nil {
			return nil, err
		}
		travelMean, err := parseFloat(s, fields, 0, "travel_mean")
		if err != nil {
			return nil, err
		}
		travelSD, err := parseFloat(s, fields, 1, "travel_sd")
		if err != nil {
			return nil, err
		}
		fillMean, err := parseFloat(s, fields, 2, "fill_mean")
		if err != nil {
			return nil, err
		}
		fillSD, err := parseFloat(s, fields, 3, "fill_sd")
		if err != nil {
			return nil, err
		}
		shovels[i] = Shovel{FillMean: fillMean, FillSD: fillSD}
		roads[i] = Road{
			Index:      i,
			A:          NodeRef{Kind: NodeCrusher, Index: 0},
			B:          NodeRef{Kind: NodeShovel, Index: i},
			TravelMean: travelMean,
			TravelSD:   travelSD,
			Kind:       TwoLane,
		}
	}

	n := &Network{
		Simple:       true,
		NumTrucks:    nt,
		FullSlowdown: 1,
		Crushers:     []Crusher{{EmptyMean: emptyMean, EmptySD: emptySD}},
		Shovels:      shovels,
		Roads:        roads,
		Routes:       SimpleRoutes(roads),
	}
	if err := n.Validate(); err != nil {
		return nil, err
	}
	return n, nil
}

// ParseComplex parses the complex-network input file format (§6): multiple
// crushers and shovels connected by a road graph with one-lane and
// two-lane segments, routes enumerated by depth-first search.
func ParseComplex(r io.Reader) (*Network, error) {
	s := newLineScanner(r)

	fields, ok := s.next()
	if err := s.expect(fields, ok, `"T <NT> <full_slowdown>"`); err != nil {
		return nil, err
	}
	if err := requireLen(s, fields, 3, `"T <NT> <full_slowdown>"`); err != nil {
		return nil, err
	}
	if fields[0] != "T" {
		return nil, &ParseError{Line: s.line, Expected: `"T" tag`, Got: fields[0]}
	}
	nt, err := parseInt(s, fields, 1, "truck count")
	if err != nil {
		return nil, err
	}
	fullSlowdown, err := parseFloat(s, fields, 2, "full_slowdown")
	if err != nil {
		return nil, err
	}

	fields, ok = s.next()
	if err := s.expect(fields, ok, `"C <NC>"`); err != nil {
		return nil, err
	}
	if err := requireLen(s, fields, 2, `"C <NC>"`); err != nil {
		return nil, err
	}
	if fields[0] != "C" {
		return nil, &ParseError{Line: s.line, Expected: `"C" tag`, Got: fields[0]}
	}
	nc, err := parseInt(s, fields, 1, "crusher count")
	if err != nil {
		return nil, err
	}

	crushers := make([]Crusher, nc)
	for i := 0; i < nc; i++ {
		fields, ok = s.next()
		if err := s.expect(fields, ok, "empty_mean empty_sd"); err != nil {
			return nil, err
		}
		if err := requireLen(s, fields, 2, "empty_mean empty_sd"); err != nil {
			return nil, err
		}
		mean, err := parseFloat(s, fields, 0, "empty_mean")
		if err != nil {
			return nil, err
		}
		sd, err := parseFloat(s, fields, 1, "empty_sd")
		if err != nil {
			return nil, err
		}
		crushers[i] = Crusher{EmptyMean: mean, EmptySD: sd}
	}

	fields, ok = s.next()
	if err := s.expect(fields, ok, `"S <NS>"`); err != nil {
		return nil, err
	}
	if err := requireLen(s, fields, 2, `"S <NS>"`); err != nil {
		return nil, err
	}
	if fields[0] != "S" {
		return nil, &ParseError{Line: s.line, Expected: `"S" tag`, Got: fields[0]}
	}
	ns, err := parseInt(s, fields, 1, "shovel count")
	if err != nil {
		return nil, err
	}

	shovels := make([]Shovel, ns)
	for i := 0; i < ns; i++ {
		fields, ok = s.next()
		if err := s.expect(fields, ok, "fill_mean fill_sd"); err != nil {
			return nil, err
		}
		if err := requireLen(s, fields, 2, "fill_mean fill_sd"); err != nil {
			return nil, err
		}
		mean, err := parseFloat(s, fields, 0, "fill_mean")
		if err != nil {
			return nil, err
		}
		sd, err := parseFloat(s, fields, 1, "fill_sd")
		if err != nil {
			return nil, err
		}
		shovels[i] = Shovel{FillMean: mean, FillSD: sd}
	}

	fields, ok = s.next()
	if err := s.expect(fields, ok, `"R <NR> N <NN>"`); err != nil {
		return nil, err
	}
	if err := requireLen(s, fields, 4, `"R <NR> N <NN>"`); err != nil {
		return nil, err
	}
	if fields[0] != "R" || fields[2] != "N" {
		return nil, &ParseError{Line: s.line, Expected: `"R" and "N" tags`, Got: strings.Join(fields, " ")}
	}
	nr, err := parseInt(s, fields, 1, "road count")
	if err != nil {
		return nil, err
	}
	if _, err := parseInt(s, fields, 3, "intermediate node count"); err != nil {
		return nil, err
	}

	roads := make([]Road, nr)
	for i := 0; i < nr; i++ {
		fields, ok = s.next()
		if err := s.expect(fields, ok, "n1 i1 n2 i2 travel_mean travel_sd road_kind"); err != nil {
			return nil, err
		}
		if err := requireLen(s, fields, 7, "n1 i1 n2 i2 travel_mean travel_sd road_kind"); err != nil {
			return nil, err
		}
		a, err := parseNodeRef(s, fields[0], fields[1], nc, ns)
		if err != nil {
			return nil, err
		}
		b, err := parseNodeRef(s, fields[2], fields[3], nc, ns)
		if err != nil {
			return nil, err
		}
		travelMean, err := parseFloat(s, fields, 4, "travel_mean")
		if err != nil {
			return nil, err
		}
		travelSD, err := parseFloat(s, fields, 5, "travel_sd")
		if err != nil {
			return nil, err
		}
		var kind RoadKind
		switch fields[6] {
		case "t":
			kind = TwoLane
		case "o":
			kind = OneLane
		default:
			return nil, &ParseError{Line: s.line, Expected: `road_kind "t" or "o"`, Got: fields[6]}
		}
		roads[i] = Road{Index: i, A: a, B: b, TravelMean: travelMean, TravelSD: travelSD, Kind: kind}
	}

	n := &Network{
		Simple:       false,
		NumTrucks:    nt,
		FullSlowdown: fullSlowdown,
		Crushers:     crushers,
		Shovels:      shovels,
		Roads:        roads,
		Routes:       EnumerateRoutes(crushers, shovels, roads),
	}
	if err := n.Validate(); err != nil {
		return nil, err
	}
	return n, nil
}

func parseNodeRef(s *lineScanner, tag, idxField string, nc, ns int) (NodeRef, error) {
	idx, err := strconv.Atoi(idxField)
	if err != nil {
		return NodeRef{}, &ParseError{Line: s.line, Expected: "node index", Got: idxField}
	}
	switch tag {
	case "c":
		if idx < 0 || idx >= nc {
			return NodeRef{}, &ParseError{Line: s.line, Expected: "crusher index in range", Got: idxField}
		}
		return NodeRef{Kind: NodeCrusher, Index: idx}, nil
	case "s":
		if idx < 0 || idx >= ns {
			return NodeRef{}, &ParseError{Line: s.line, Expected: "shovel index in range", Got: idxField}
		}
		return NodeRef{Kind: NodeShovel, Index: idx}, nil
	case "n":
		return NodeRef{Kind: NodeIntermediate, Index: idx}, nil
	default:
		return NodeRef{}, &ParseError{Line: s.line, Expected: `node tag "c", "s", or "n"`, Got: tag}
	}
}
