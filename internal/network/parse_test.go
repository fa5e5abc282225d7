package network

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseSimpleRoundTrip(t *testing.T) {
	input := "T 2\nC 1\n1 0\nS 1\n5 0 2 0\n"
	n, err := ParseSimple(strings.NewReader(input))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if n.NumTrucks != 2 || len(n.Shovels) != 1 || len(n.Routes) != 1 {
		t.Fatalf("unexpected network: %+v", n)
	}

	var buf bytes.Buffer
	if err := WriteSimple(&buf, n); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	n2, err := ParseSimple(&buf)
	if err != nil {
		t.Fatalf("re-parse failed: %v", err)
	}
	if n2.NumTrucks != n.NumTrucks || len(n2.Shovels) != len(n.Shovels) {
		t.Fatalf("round trip mismatch: %+v vs %+v", n, n2)
	}
}

func TestParseSimpleRejectsWrongTokenCount(t *testing.T) {
	input := "T 2 3\nC 1\n1 0\nS 1\n5 0 2 0\n"
	if _, err := ParseSimple(strings.NewReader(input)); err == nil {
		t.Fatal("expected parse error for extra token")
	}
}

func TestParseSimpleRejectsNonNumeric(t *testing.T) {
	input := "T two\nC 1\n1 0\nS 1\n5 0 2 0\n"
	if _, err := ParseSimple(strings.NewReader(input)); err == nil {
		t.Fatal("expected parse error for non-numeric field")
	}
}

func TestParseSimpleRejectsMultiCrusher(t *testing.T) {
	input := "T 2\nC 2\n1 0\nS 1\n5 0 2 0\n"
	if _, err := ParseSimple(strings.NewReader(input)); err == nil {
		t.Fatal("expected parse error for NC != 1")
	}
}

func TestParseComplexRoundTrip(t *testing.T) {
	input := "T 4 2\n" +
		"C 1\n1 0\n" +
		"S 1\n2 0\n" +
		"R 1 N 0\n" +
		"c 0 s 0 5 0 t\n"
	n, err := ParseComplex(strings.NewReader(input))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if n.NumTrucks != 4 || n.FullSlowdown != 2 || len(n.Roads) != 1 || len(n.Routes) != 1 {
		t.Fatalf("unexpected network: %+v", n)
	}
	if n.Routes[0].Crusher != 0 || n.Routes[0].Shovel != 0 {
		t.Fatalf("unexpected route: %+v", n.Routes[0])
	}

	var buf bytes.Buffer
	if err := WriteComplex(&buf, n); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	n2, err := ParseComplex(&buf)
	if err != nil {
		t.Fatalf("re-parse failed: %v", err)
	}
	if len(n2.Roads) != len(n.Roads) || len(n2.Routes) != len(n.Routes) {
		t.Fatalf("round trip mismatch: %+v vs %+v", n, n2)
	}
}

func TestParseComplexRejectsUnknownRoadKind(t *testing.T) {
	input := "T 4 2\n" +
		"C 1\n1 0\n" +
		"S 1\n2 0\n" +
		"R 1 N 0\n" +
		"c 0 s 0 5 0 x\n"
	if _, err := ParseComplex(strings.NewReader(input)); err == nil {
		t.Fatal("expected parse error for unknown road kind")
	}
}

func TestEnumerateRoutesPrunesCrusherCycles(t *testing.T) {
	crushers := []Crusher{{EmptyMean: 1}, {EmptyMean: 1}}
	shovels := []Shovel{{FillMean: 1}}
	c0 := NodeRef{Kind: NodeCrusher, Index: 0}
	c1 := NodeRef{Kind: NodeCrusher, Index: 1}
	s0 := NodeRef{Kind: NodeShovel, Index: 0}
	roads := []Road{
		{Index: 0, A: c0, B: c1, TravelMean: 1},
		{Index: 1, A: c1, B: c0, TravelMean: 1},
		{Index: 2, A: c0, B: s0, TravelMean: 1},
	}
	routes := EnumerateRoutes(crushers, shovels, roads)
	for _, rt := range routes {
		seen := map[int]bool{rt.Crusher: true}
		for _, ri := range rt.Roads {
			r := roads[ri]
			if r.A.Kind == NodeCrusher && seen[r.A.Index] && r.B.Kind == NodeCrusher {
				t.Fatalf("route revisits crusher: %+v", rt)
			}
			if r.B.Kind == NodeCrusher {
				if seen[r.B.Index] {
					t.Fatalf("route revisits crusher: %+v", rt)
				}
				seen[r.B.Index] = true
			}
		}
	}
}
