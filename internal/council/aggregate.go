package council

import "sort"

// Aggregate combines successful votes into a consensus ranking. Each label
// earns (N - position) points per vote, position 0-based, so first place in a
// vote is worth N. Ordering is by descending score, ties broken by ascending
// label, which makes the result deterministic regardless of vote arrival
// order.
func Aggregate(votes []Vote, labels *LabelSet) []AggregateEntry {
	if labels.Len() == 0 {
		return nil
	}

	n := labels.Len()
	scores := make(map[string]int, n)
	for _, label := range labels.Labels() {
		scores[label] = 0
	}

	counted := 0
	for _, v := range votes {
		if v.Status != StatusOK {
			continue
		}
		counted++
		for pos, label := range v.Ordering {
			scores[label] += n - pos
		}
	}
	if counted == 0 {
		return nil
	}

	ordered := labels.Labels()
	sort.Slice(ordered, func(i, j int) bool {
		if scores[ordered[i]] != scores[ordered[j]] {
			return scores[ordered[i]] > scores[ordered[j]]
		}
		return ordered[i] < ordered[j]
	})

	out := make([]AggregateEntry, 0, n)
	for i, label := range ordered {
		producer, _ := labels.Producer(label)
		out = append(out, AggregateEntry{
			ProducerID: producer,
			Label:      label,
			Score:      scores[label],
			Rank:       i + 1,
		})
	}
	return out
}
