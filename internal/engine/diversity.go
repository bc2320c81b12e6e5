package engine

// Jaccard returns |a∩b| / |a∪b| of two combinations.
func Jaccard(a, b [6]int) float64 {
	inter := 0
	for _, x := range a {
		for _, y := range b {
			if x == y {
				inter++
				break
			}
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// Diversify keeps combinations in order, dropping any whose similarity to an
// already kept one reaches threshold. A threshold <= 0 keeps everything.
// Exact duplicates are always removed.
func Diversify(combos [][6]int, threshold float64) [][6]int {
	kept := make([][6]int, 0, len(combos))
	if threshold > 0 {
	next:
		for _, c := range combos {
			for _, k := range kept {
				if Jaccard(c, k) >= threshold {
					continue next
				}
			}
			kept = append(kept, c)
		}
	} else {
		kept = append(kept, combos...)
	}
	return dedup(kept)
}

func dedup(combos [][6]int) [][6]int {
	seen := make(map[[6]int]struct{}, len(combos))
	out := combos[:0]
	for _, c := range combos {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
