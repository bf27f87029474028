// Package planenum implements the plan enumerator (component D): a
// lazy, cancellable generator of charging-plan candidates over an
// agent's chargeable activity slots, ordered smallest-subset-first.
package planenum

import (
	"context"
	"math/bits"
	"sort"

	"github.com/arup-group/batsim/internal/model"
)

// Enumerate returns a channel yielding every subset of slots exactly
// once, ordered by subset size ascending then by bitmask value
// ascending. The empty set is always yielded first. Closing ctx (or
// the caller abandoning the channel) stops generation; callers that
// stop early must cancel ctx to let the goroutine exit.
func Enumerate(ctx context.Context, slots []int) <-chan model.ChargingPlan {
	out := make(chan model.ChargingPlan)
	n := len(slots)

	go func() {
		defer close(out)
		if n == 0 {
			select {
			case out <- model.ChargingPlan{}:
			case <-ctx.Done():
			}
			return
		}
		// 2^n enumeration is impractical much past a few dozen slots;
		// this generator does not cap |S| itself (that tradeoff must
		// not be silently enabled). Callers are responsible for
		// bounding the chargeable-slot set upstream.
		total := 1 << n
		order := make([]int, total)
		for i := range order {
			order[i] = i
		}
		sort.Slice(order, func(a, b int) bool {
			pa, pb := bits.OnesCount(uint(order[a])), bits.OnesCount(uint(order[b]))
			if pa != pb {
				return pa < pb
			}
			return order[a] < order[b]
		})

		for _, mask := range order {
			plan := model.ChargingPlan{}
			for bit := 0; bit < n; bit++ {
				if mask&(1<<bit) != 0 {
					plan[slots[bit]] = true
				}
			}
			select {
			case out <- plan:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}
