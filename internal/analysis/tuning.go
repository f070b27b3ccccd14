package analysis

// TuningRule identifies a Ziegler-Nichols closed-loop tuning variant.
type TuningRule string

const (
	RuleP   TuningRule = "P"
	RulePI  TuningRule = "PI"
	RulePID TuningRule = "PID"
)

// TuningSuggestion holds controller gains derived from an ultimate-gain test.
type TuningSuggestion struct {
	Rule TuningRule
	Kp   float64
	Ti   float64
	Td   float64
}

// ZieglerNichols computes the classic closed-loop tuning table from the
// ultimate gain ku and ultimate period pu (seconds). Returns nil when the
// inputs do not describe a sustained oscillation.
func ZieglerNichols(ku, pu float64) []TuningSuggestion {
	if ku <= 0 || pu <= 0 {
		return nil
	}
	return []TuningSuggestion{
		{Rule: RuleP, Kp: 0.5 * ku},
		{Rule: RulePI, Kp: 0.45 * ku, Ti: pu / 1.2},
		{Rule: RulePID, Kp: 0.6 * ku, Ti: 0.5 * pu, Td: 0.125 * pu},
	}
}

// SuggestFromRun inspects a process-value trace recorded under proportional
// gain kp. If the trace shows a sustained oscillation its period is taken as
// the ultimate period and kp as the ultimate gain.
func SuggestFromRun(values []float64, dt, kp float64) []TuningSuggestion {
	pu := DominantPeriod(values, dt)
	if pu == 0 {
		return nil
	}
	return ZieglerNichols(kp, pu)
}
