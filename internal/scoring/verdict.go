package scoring

// Verdict is the coarse classification of a risk score
type Verdict string

const (
	VerdictSafe       Verdict = "Safe"
	VerdictSuspicious Verdict = "Suspicious"
	VerdictMalicious  Verdict = "Malicious"
)

// Classify maps score onto [0,S) Safe, [S,M) Suspicious, [M,10] Malicious.
// A score exactly on a boundary falls into the higher-risk band.
func Classify(score float64, t Thresholds) Verdict {
	switch {
	case score >= t.Malicious:
		return VerdictMalicious
	case score >= t.Suspicious:
		return VerdictSuspicious
	default:
		return VerdictSafe
	}
}

// Severity orders verdicts: Safe 0, Suspicious 1, Malicious 2
func (v Verdict) Severity() int {
	switch v {
	case VerdictMalicious:
		return 2
	case VerdictSuspicious:
		return 1
	default:
		return 0
	}
}
