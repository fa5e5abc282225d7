// Package ga implements the rolling genetic algorithm (spec §4.9) and its
// genetic operators (spec §4.10) over cycle-schedule genomes: one variable
// length string of decision indices per crusher/shovel dispatch point,
// decoded round-robin as answers to the kernel's Routing callbacks.
package ga

import (
	"math/rand"
	"strconv"
	"strings"
)

// GeneString is one variable-length sequence of decision indices, along
// with the size of the value domain each gene is drawn from.
type GeneString struct {
	Genes    []int
	Alphabet int
	Fixed    bool // fixed-length strings are never grown or shrunk by §4.10's insert/delete
}

func (s GeneString) clone() GeneString {
	genes := make([]int, len(s.Genes))
	copy(genes, s.Genes)
	return GeneString{Genes: genes, Alphabet: s.Alphabet, Fixed: s.Fixed}
}

// Genome is a set of gene strings — one per crusher/shovel node for a
// complex network, or a single string for a simple network's crusher
// cycle — plus the rolling fitness bucket (spec §4.9) tracking how that
// genome has scored across recent stochastic evaluations.
type Genome struct {
	Strings []GeneString
	bucket  fitnessBucket
	age     int
}

func (g *Genome) clone() *Genome {
	strings := make([]GeneString, len(g.Strings))
	for i, s := range g.Strings {
		strings[i] = s.clone()
	}
	// Clone is semantic: a cloned genome starts a fresh fitness bucket
	// rather than inheriting its parent's sampled history.
	return &Genome{Strings: strings}
}

// key returns a canonical string encoding used for the GA's population-wide
// uniqueness check (spec §4.10 "maintain a seen-set across parents and
// offspring").
func (g *Genome) key() string {
	var b strings.Builder
	for i, s := range g.Strings {
		if i > 0 {
			b.WriteByte('|')
		}
		for j, v := range s.Genes {
			if j > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.Itoa(v))
		}
	}
	return b.String()
}

// hasZeroLengthString reports whether any string is empty, which spec §4.9
// defines as an automatic fitness of 0 ("a 0-length cycle scores 0").
func (g *Genome) hasZeroLengthString() bool {
	for _, s := range g.Strings {
		if len(s.Genes) == 0 {
			return true
		}
	}
	return false
}

// randomGeneString builds a uniformly random string of the given length
// over [0, alphabet).
func randomGeneString(rng *rand.Rand, length, alphabet int, fixed bool) GeneString {
	genes := make([]int, length)
	for i := range genes {
		genes[i] = rng.Intn(alphabet)
	}
	return GeneString{Genes: genes, Alphabet: alphabet, Fixed: fixed}
}

// fitnessBucket is the bounded FIFO of recent fitness samples from spec
// §4.9: "each genome retains a bounded FIFO (size = bucket_size) of recent
// fitness samples plus their running sum. A new sample appends; if full,
// the oldest is discarded. Reported fitness is the bucket mean."
type fitnessBucket struct {
	values []float64
	sum    float64
	cap    int
}

func (b *fitnessBucket) add(v float64, cap int) {
	b.cap = cap
	b.values = append(b.values, v)
	b.sum += v
	if len(b.values) > cap {
		b.sum -= b.values[0]
		b.values = b.values[1:]
	}
}

func (b *fitnessBucket) mean() float64 {
	if len(b.values) == 0 {
		return 0
	}
	return b.sum / float64(len(b.values))
}

func (b *fitnessBucket) len() int { return len(b.values) }
