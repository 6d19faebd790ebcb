package staging

const uncertainSuffix = " (Uncertain)"

type confidenceTier struct {
	min       float64
	note      string
	uncertain bool
}

var confidenceTiers = []confidenceTier{
	{min: 0.95, note: "AI confidence: Very High (≥95%)."},
	{min: 0.85, note: "AI confidence: High (≥85%)."},
	{min: 0.70, note: "AI confidence: Moderate (≥70%)."},
	{min: 0, note: "AI confidence: Lower (<70%). Clinical verification recommended.", uncertain: true},
}

func qualify(confidence float64) confidenceTier {
	for _, tier := range confidenceTiers {
		if confidence >= tier.min {
			return tier
		}
	}
	return confidenceTiers[len(confidenceTiers)-1]
}
