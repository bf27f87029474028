// Package loopdetect implements the loop detector and leak resolver
// (component C): it drives repeated simulator passes, looking for a
// steady cycle, and falls back to the least-leaky sub-range of passes
// once patience is exhausted.
package loopdetect

import "github.com/arup-group/batsim/internal/model"

// PassRunner is the subset of *simulate.Simulator this package needs,
// kept as an interface so tests can supply a stub sequence of passes
// without constructing a full trace.
type PassRunner interface {
	RunPass(passIndex int, startSoCWs float64) (model.PassResult, error)
}

// Run drives runner for up to patience passes starting from
// initialSoCWs, returning the first closed loop found (within
// precision watt-seconds) or, failing that, the sub-range of the
// patience passes with the smallest absolute leak.
func Run(runner PassRunner, initialSoCWs, precision float64, patience int) (model.Loop, error) {
	if patience < 1 {
		patience = 1
	}
	passes := make([]model.PassResult, 0, patience)
	soc := initialSoCWs

	for i := 0; i < patience; i++ {
		pr, err := runner.RunPass(i, soc)
		if err != nil {
			return model.Loop{}, err
		}
		passes = append(passes, pr)
		soc = pr.Fingerprint.EndSoC

		for start := 0; start <= i; start++ {
			leak := pr.Fingerprint.EndSoC - passes[start].Fingerprint.StartSoC
			if abs(leak) <= precision {
				return buildLoop(passes, start, i, leak, true), nil
			}
		}
	}

	return fallback(passes, precision), nil
}

// fallback picks [i, j] minimising |end_j - start_i|, tie-broken by
// smaller span then smaller i.
func fallback(passes []model.PassResult, precision float64) model.Loop {
	bestI, bestJ := 0, 0
	bestLeak := passes[0].Fingerprint.EndSoC - passes[0].Fingerprint.StartSoC
	bestAbs := abs(bestLeak)

	for i := 0; i < len(passes); i++ {
		for j := i; j < len(passes); j++ {
			leak := passes[j].Fingerprint.EndSoC - passes[i].Fingerprint.StartSoC
			a := abs(leak)
			span := j - i
			bestSpan := bestJ - bestI
			if a < bestAbs ||
				(a == bestAbs && span < bestSpan) ||
				(a == bestAbs && span == bestSpan && i < bestI) {
				bestI, bestJ, bestLeak, bestAbs = i, j, leak, a
			}
		}
	}
	closed := bestAbs <= precision
	return buildLoop(passes, bestI, bestJ, bestLeak, closed)
}

func buildLoop(passes []model.PassResult, i, j int, leak float64, closed bool) model.Loop {
	var events []model.ChargeEvent
	for p := i; p <= j; p++ {
		events = append(events, passes[p].Events...)
	}
	return model.Loop{
		StartPass: i,
		EndPass:   j,
		Events:    events,
		LeakWs:    leak,
		Closed:    closed,
	}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
