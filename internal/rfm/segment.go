package rfm

// Rule pairs a segment with the score predicate that selects it
type Rule struct {
	Segment Segment
	Match   func(r, f, m int) bool
}

// Rules is evaluated top to bottom; the first match wins.
// The last rule always matches.
var Rules = []Rule{
	{SegmentChampions, func(r, f, m int) bool { return r == 5 && f >= 4 && m >= 4 }},
	{SegmentLoyalCustomers, func(r, f, m int) bool { return r >= 4 && f >= 4 }},
	{SegmentPotentialLoyalists, func(r, f, m int) bool { return r >= 3 && f >= 3 && m >= 3 }},
	{SegmentAtRisk, func(r, f, m int) bool { return r <= 2 && f <= 2 }},
	{SegmentNeedsAttention, func(r, f, m int) bool { return r <= 2 }},
	{SegmentStandard, func(r, f, m int) bool { return true }},
}

// Classify returns the segment of the first rule matching the scores
func Classify(r, f, m int) Segment {
	for _, rule := range Rules {
		if rule.Match(r, f, m) {
			return rule.Segment
		}
	}
	return SegmentStandard
}

// Segments lists every segment label in rule order
func Segments() []Segment {
	out := make([]Segment, len(Rules))
	for i, rule := range Rules {
		out[i] = rule.Segment
	}
	return out
}

// RuleIndex returns the position of segment in Rules, or -1
func RuleIndex(segment Segment) int {
	for i, rule := range Rules {
		if rule.Segment == segment {
			return i
		}
	}
	return -1
}
