package proxfill

import "testing"

func TestNumericStabilityWithinWindow(t *testing.T) {
	history := []Value{numValue(100), numValue(12), numValue(12.4), numValue(12.2), numValue(12.3)}
	// Only the last 4 entries count; the early outlier is forgotten.
	s := stability(history, 4)
	if !isConverged(true, s) {
		t.Fatalf("tight recent series should converge, stability=%v", s)
	}
	s = stability(history, 5)
	if isConverged(true, s) {
		t.Fatalf("widening the window over the outlier should not converge, stability=%v", s)
	}
}

func TestCategoricalStabilityRequiresFullAgreement(t *testing.T) {
	agree := []Value{modValue("a"), modValue("a"), modValue("a")}
	if s := stability(agree, 3); !isConverged(false, s) {
		t.Fatalf("identical modalities should converge, stability=%v", s)
	}
	flip := []Value{modValue("a"), modValue("b"), modValue("a")}
	if s := stability(flip, 3); isConverged(false, s) {
		t.Fatalf("alternating modalities should not converge, stability=%v", s)
	}
}

func TestEmptyHistoryIsNotConverged(t *testing.T) {
	if s := stability(nil, 4); isConverged(true, s) || isConverged(false, s) {
		t.Fatalf("empty history should never converge, stability=%v", s)
	}
}
