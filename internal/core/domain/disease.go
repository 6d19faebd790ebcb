package domain

// DiseaseLabel is a diagnosis name produced by the image classification model.
type DiseaseLabel string

const (
	AlopeciaAreata       DiseaseLabel = "Alopecia Areata"
	ContactDermatitis    DiseaseLabel = "Contact Dermatitis"
	Folliculitis         DiseaseLabel = "Folliculitis"
	HeadLice             DiseaseLabel = "Head Lice"
	LichenPlanus         DiseaseLabel = "Lichen Planus"
	MalePatternBaldness  DiseaseLabel = "Male Pattern Baldness"
	NoDisease            DiseaseLabel = "No Disease"
	Psoriasis            DiseaseLabel = "Psoriasis"
	SeborrheicDermatitis DiseaseLabel = "Seborrheic Dermatitis"
	TelogenEffluvium     DiseaseLabel = "Telogen Effluvium"
	TineaCapitis         DiseaseLabel = "Tinea Capitis"
)

// Model output order.
var knownLabels = []DiseaseLabel{
	AlopeciaAreata,
	ContactDermatitis,
	Folliculitis,
	HeadLice,
	LichenPlanus,
	MalePatternBaldness,
	NoDisease,
	Psoriasis,
	SeborrheicDermatitis,
	TelogenEffluvium,
	TineaCapitis,
}

func KnownLabels() []DiseaseLabel {
	out := make([]DiseaseLabel, len(knownLabels))
	copy(out, knownLabels)
	return out
}

func (l DiseaseLabel) IsKnown() bool {
	for _, known := range knownLabels {
		if l == known {
			return true
		}
	}
	return false
}

func (l DiseaseLabel) String() string {
	return string(l)
}

// ProgressionClass groups diseases by expected clinical progression speed.
type ProgressionClass string

const (
	ProgressionFast         ProgressionClass = "fast"
	ProgressionModerate     ProgressionClass = "moderate"
	ProgressionSlow         ProgressionClass = "slow"
	ProgressionNone         ProgressionClass = "none"
	ProgressionUnclassified ProgressionClass = "unclassified"
)
