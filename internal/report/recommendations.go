package report

import "rfmcli/internal/rfm"

// recommendations is the static advice printed for every segment
var recommendations = map[rfm.Segment]string{
	rfm.SegmentChampions: "These are your best and most loyal customers. Reward them with exclusive offers, " +
		"early access to new products, and loyalty programs. They can also be your brand ambassadors.",
	rfm.SegmentLoyalCustomers: "These customers buy frequently. Nurture them to become Champions. Offer them " +
		"loyalty points and involve them in customer surveys to make them feel valued.",
	rfm.SegmentPotentialLoyalists: "These are recent customers with average frequency and spending. Engage them " +
		"with personalized marketing campaigns and offer them membership or loyalty programs.",
	rfm.SegmentAtRisk: "These customers have not purchased in a long time and have low frequency. Reach out to " +
		"them with personalized reactivation campaigns and special discounts to win them back.",
	rfm.SegmentNeedsAttention: "These customers have low recency, but also low frequency and monetary value. Try " +
		"to understand their needs better through surveys and offer them relevant products.",
	rfm.SegmentStandard: "This is a mixed group. While some may not be very profitable, it's good to keep them " +
		"engaged with generic marketing campaigns and newsletters.",
}

// Recommendation is the advice for one segment
type Recommendation struct {
	Segment rfm.Segment `json:"segment"`
	Text    string      `json:"text"`
}

// Recommendations returns the advice for all six segments in rule order,
// whether or not a segment is present in the population
func Recommendations() []Recommendation {
	out := make([]Recommendation, 0, len(rfm.Rules))
	for _, segment := range rfm.Segments() {
		out = append(out, Recommendation{Segment: segment, Text: recommendations[segment]})
	}
	return out
}
