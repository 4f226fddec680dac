package similarity

// ConfidenceScorer maps a composite similarity score (0-100) to a
// classifier confidence in [0,1]. The production implementation is expected
// to be a trained model; the detector only depends on this interface.
type ConfidenceScorer interface {
	Confidence(compositeScore float64) float64
}

// SyntheticConfidence is a stand-in for a real classifier: a deterministic
// rescaling of the composite score. It carries no learned parameters and
// exists so the pipeline shape survives until a model replaces it.
type SyntheticConfidence struct{}

func (SyntheticConfidence) Confidence(compositeScore float64) float64 {
	c := compositeScore / 100 * 1.2
	if c > 1 {
		return 1
	}
	if c < 0 {
		return 0
	}
	return c
}
