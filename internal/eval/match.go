package eval

// MatchKind is the ICSD bucket assigned to an event by matching.
type MatchKind int

const (
	// MatchCorrect means the best predicted event met the IoU
	// threshold and carried the ground-truth class.
	MatchCorrect MatchKind = iota
	// MatchSubstitution means the best predicted event met the IoU
	// threshold but carried a different class.
	MatchSubstitution
	// MatchDeletion means no predicted event reached the IoU
	// threshold for a ground-truth event.
	MatchDeletion
	// MatchInsertion means a predicted event matched no ground-truth
	// event.
	MatchInsertion
)

// String returns the bucket name.
func (k MatchKind) String() string {
	switch k {
	case MatchCorrect:
		return "correct"
	case MatchSubstitution:
		return "substitution"
	case MatchDeletion:
		return "deletion"
	case MatchInsertion:
		return "insertion"
	}
	return "unknown"
}

// Match pairs a ground-truth event with the predicted event that
// consumed it. Predicted is the zero value for deletions.
type Match struct {
	GroundTruth Event
	Predicted   Event
	IoU         float64
	Kind        MatchKind
}

// Outcome is the full ICSD labeling of one instance. Every
// ground-truth event appears exactly once across Correct,
// Substitutions and Deletions; every predicted event exactly once
// across Correct, Substitutions and Insertions.
type Outcome struct {
	Correct       []Match
	Substitutions []Match
	Deletions     []Event
	Insertions    []Event
}

// Counts are the scalar ICSD tallies.
type Counts struct {
	Correct      int
	Substitution int
	Deletion     int
	Insertion    int
}

// Counts reduces the outcome to its tallies.
func (o *Outcome) Counts() Counts {
	return Counts{
		Correct:      len(o.Correct),
		Substitution: len(o.Substitutions),
		Deletion:     len(o.Deletions),
		Insertion:    len(o.Insertions),
	}
}

// MatchEvents aligns predicted events against ground-truth events by
// greedy bipartite matching with ground truth as the anchor. For each
// ground-truth event, in input order, the unconsumed predicted event
// with the highest IoU is selected; ties on IoU go to the earliest
// start time, so repeated runs give identical outcomes. A selection
// below iouTh leaves the ground-truth event a deletion and consumes
// nothing. Consumed predicted events are never reused; whatever
// remains unconsumed at the end is an insertion.
//
// Scope controls the candidate pool: with MatchAllClasses every
// predicted event is a candidate and the class is compared only after
// the threshold is met (mismatch → substitution); with MatchSameClass
// only same-class predictions compete and substitutions cannot occur.
func MatchEvents(predicted, groundTruth []Event, iouTh float64, scope MatchScope) *Outcome {
	out := &Outcome{}
	consumed := make([]bool, len(predicted))

	for _, gt := range groundTruth {
		best := -1
		bestIoU := 0.0
		for i, p := range predicted {
			if consumed[i] {
				continue
			}
			if scope == MatchSameClass && p.Label != gt.Label {
				continue
			}
			iou := IoU(gt, p)
			if iou > bestIoU || (best >= 0 && iou == bestIoU && iou > 0 && p.Start < predicted[best].Start) {
				best = i
				bestIoU = iou
			}
		}
		if best < 0 || bestIoU < iouTh {
			out.Deletions = append(out.Deletions, gt)
			continue
		}
		consumed[best] = true
		m := Match{GroundTruth: gt, Predicted: predicted[best], IoU: bestIoU}
		if predicted[best].Label == gt.Label {
			m.Kind = MatchCorrect
			out.Correct = append(out.Correct, m)
		} else {
			m.Kind = MatchSubstitution
			out.Substitutions = append(out.Substitutions, m)
		}
	}

	for i, p := range predicted {
		if !consumed[i] {
			out.Insertions = append(out.Insertions, p)
		}
	}
	return out
}
