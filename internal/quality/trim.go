package quality

// Trimmer cuts low quality ends off reads and drops reads that end up too
// short or too poor on average.
type Trimmer struct {
	// Threshold is the minimum score kept at either end of a read.
	Threshold int
	// WindowSize, when above 1, trims by the mean of a sliding window
	// instead of single scores.
	WindowSize int
	// MinLength is the minimum length of a kept read after trimming.
	MinLength int
	// MinMean is the minimum mean score of a kept read after trimming.
	MinMean float64
}

// Trim returns the half-open range [start, end) of scores kept after
// trimming both ends. start == end when nothing passes.
func (t Trimmer) Trim(scores Scores) (start, end int) {
	n := len(scores)
	w := max(t.WindowSize, 1)
	if n < w {
		w = max(n, 1)
	}

	passes := func(i int) bool {
		sum := 0
		for _, q := range scores[i : i+w] {
			sum += q
		}
		return sum >= t.Threshold*w
	}

	start = n
	for i := 0; i+w <= n; i++ {
		if passes(i) {
			start = i
			break
		}
	}
	end = start
	for i := n - w; i >= start; i-- {
		if passes(i) {
			end = i + w
			break
		}
	}
	return start, end
}

// Apply trims a read with its Phred+33 qualities. It reports the kept range
// and whether the read passes the length and mean filters.
func (t Trimmer) Apply(bases, qual []byte) (start, end int, keep bool, err error) {
	if len(bases) != len(qual) {
		return 0, 0, false, &LengthMismatchError{Bases: len(bases), Qualities: len(qual)}
	}
	scores, err := FromPhred33(qual)
	if err != nil {
		return 0, 0, false, err
	}
	start, end = t.Trim(scores)
	kept := scores[start:end]
	if len(kept) < t.MinLength || len(kept) == 0 || kept.Mean() < t.MinMean {
		return start, end, false, nil
	}
	return start, end, true, nil
}
