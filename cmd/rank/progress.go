package main

// progressStep is how many analyzed members separate two progress lines.
const progressStep = 10

// progressGate decides when a batch completion deserves a progress line.
// Batches rarely land on a multiple of progressStep, so it reports every
// time the count crosses into a new step, and always at the end.
type progressGate struct {
	last int
}

func (g *progressGate) due(done, total int) bool {
	crossed := done/progressStep > g.last/progressStep
	g.last = done
	return crossed || done == total
}
