package ga

import "math/rand"

// OperatorConfig holds the gate probabilities and per-gate magnitudes from
// spec §4.10's per-offspring pipeline.
type OperatorConfig struct {
	PXover  float64
	PValue  float64
	PInvert float64
	PSwap   float64
	PMove   float64
	PInsert float64
	PDelete float64
	N       int     // point count for value-mutation/swap/insert/delete
	SMFactor float64 // multi-string crossover selection factor (spec §4.10)
}

// breed runs one offspring through spec §4.10's pipeline: crossover (or
// clone), then each mutation gate independently. Each mutating gate picks
// its target string uniformly at random, per the multi-string variant's
// rule ("each mutation picks a target string uniformly").
func breed(cfg OperatorConfig, a, b *Genome, rng *rand.Rand) *Genome {
	var child *Genome
	if rng.Float64() < cfg.PXover {
		child = crossover(cfg, a, b, rng)
	} else {
		child = a.clone()
	}

	if rng.Float64() < cfg.PValue {
		pointMutate(child, cfg.N, rng)
	}
	if rng.Float64() < cfg.PInvert {
		invert(child, rng)
	}
	if rng.Float64() < cfg.PSwap {
		swapGenes(child, cfg.N, rng)
	}
	if rng.Float64() < cfg.PMove {
		move(child, rng)
	}
	if rng.Float64() < cfg.PInsert {
		insert(child, cfg.N, rng)
	}
	if rng.Float64() < cfg.PDelete {
		deleteGenes(child, cfg.N, rng)
	}
	return child
}

// crossover implements spec §4.10's multi-string variant: each string is
// independently crossed with probability sm_factor/num_strings, otherwise
// one parent's whole string is copied.
func crossover(cfg OperatorConfig, a, b *Genome, rng *rand.Rand) *Genome {
	n := len(a.Strings)
	child := &Genome{Strings: make([]GeneString, n)}
	pCross := cfg.SMFactor
	if n > 0 {
		pCross = cfg.SMFactor / float64(n)
	}
	for i := range child.Strings {
		sa, sb := a.Strings[i], b.Strings[i]
		if rng.Float64() < pCross {
			child.Strings[i] = crossString(sa, sb, rng)
		} else if rng.Intn(2) == 0 {
			child.Strings[i] = sa.clone()
		} else {
			child.Strings[i] = sb.clone()
		}
	}
	return child
}

// crossString performs single-point crossover: a's prefix up to a random
// cut joined with b's suffix from a random cut. Fixed-length strings
// constrain the two cuts so the child's length equals the shared fixed
// length (spec §4.10 "l1 + l2 = fixed_len"); our genomes never mark a
// string Fixed, so no genome built by this package reaches that branch.
func crossString(a, b GeneString, rng *rand.Rand) GeneString {
	alphabet := a.Alphabet
	if alphabet == 0 {
		alphabet = b.Alphabet
	}
	if a.Fixed || b.Fixed {
		fixedLen := len(a.Genes)
		cut := 0
		if fixedLen > 0 {
			cut = rng.Intn(fixedLen + 1)
		}
		bTail := fixedLen - cut
		if bTail < 0 || bTail > len(b.Genes) {
			bTail = len(b.Genes)
		}
		genes := append(append([]int{}, a.Genes[:min(cut, len(a.Genes))]...), b.Genes[len(b.Genes)-bTail:]...)
		return GeneString{Genes: genes, Alphabet: alphabet, Fixed: true}
	}

	cutA := randCut(rng, len(a.Genes))
	cutB := randCut(rng, len(b.Genes))
	genes := append(append([]int{}, a.Genes[:cutA]...), b.Genes[cutB:]...)
	if len(genes) == 0 {
		genes = []int{0}
	}
	return GeneString{Genes: genes, Alphabet: alphabet, Fixed: false}
}

func randCut(rng *rand.Rand, length int) int {
	if length == 0 {
		return 0
	}
	return rng.Intn(length + 1)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// pointMutate changes n random genes each to a new random value in their
// string's alphabet.
func pointMutate(g *Genome, n int, rng *rand.Rand) {
	s := targetString(g, rng)
	if s == nil || len(s.Genes) == 0 || s.Alphabet <= 1 {
		return
	}
	for i := 0; i < n; i++ {
		pos := rng.Intn(len(s.Genes))
		v := rng.Intn(s.Alphabet - 1)
		if v >= s.Genes[pos] {
			v++
		}
		s.Genes[pos] = v
	}
}

// invert reverses a random sub-range of a randomly chosen string.
func invert(g *Genome, rng *rand.Rand) {
	s := targetString(g, rng)
	if s == nil || len(s.Genes) < 2 {
		return
	}
	i, j := randRange(rng, len(s.Genes))
	for i < j {
		s.Genes[i], s.Genes[j] = s.Genes[j], s.Genes[i]
		i++
		j--
	}
}

// swapGenes exchanges n random index pairs within a randomly chosen string.
func swapGenes(g *Genome, n int, rng *rand.Rand) {
	s := targetString(g, rng)
	if s == nil || len(s.Genes) < 2 {
		return
	}
	for i := 0; i < n; i++ {
		a := rng.Intn(len(s.Genes))
		b := rng.Intn(len(s.Genes))
		s.Genes[a], s.Genes[b] = s.Genes[b], s.Genes[a]
	}
}

// move cuts a random sub-range out of a randomly chosen string and
// reinserts it at a different index.
func move(g *Genome, rng *rand.Rand) {
	s := targetString(g, rng)
	if s == nil || len(s.Genes) < 3 {
		return
	}
	i, j := randRange(rng, len(s.Genes))
	segment := append([]int{}, s.Genes[i:j+1]...)
	rest := append(append([]int{}, s.Genes[:i]...), s.Genes[j+1:]...)
	if len(rest) == 0 {
		return
	}
	at := rng.Intn(len(rest))
	if at >= i {
		at++
	}
	out :=append(append(append([]int{}, rest[:at]...), segment...), rest[at:]...)
	s.Genes = out
}

// insert adds n random genes at random positions. Only variable-length
// strings may grow (spec §4.10).
func insert(g *Genome, n int, rng *rand.Rand) {
	s := targetString(g, rng)
	if s == nil || s.Fixed {
		return
	}
	alphabet := s.Alphabet
	if alphabet <= 0 {
		alphabet = 1
	}
	for i := 0; i < n; i++ {
		pos := rng.Intn(len(s.Genes) + 1)
		gene := rng.Intn(alphabet)
		s.Genes = append(s.Genes[:pos], append([]int{gene}, s.Genes[pos:]...)...)
	}
}

// deleteGenes removes n random positions, never shrinking a variable
// length string below length 1 (spec §4.10).
func deleteGenes(g *Genome, n int, rng *rand.Rand) {
	s := targetString(g, rng)
	if s == nil || s.Fixed {
		return
	}
	for i := 0; i < n && len(s.Genes) > 1; i++ {
		pos := rng.Intn(len(s.Genes))
		s.Genes = append(s.Genes[:pos], s.Genes[pos+1:]...)
	}
}

func targetString(g *Genome, rng *rand.Rand) *GeneString {
	if len(g.Strings) == 0 {
		return nil
	}
	return &g.Strings[rng.Intn(len(g.Strings))]
}

func randRange(rng *rand.Rand, length int) (int, int) {
	i := rng.Intn(length)
	j := rng.Intn(length)
	if i > j {
		i, j = j, i
	}
	return i, j
}
