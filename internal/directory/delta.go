package directory

import (
	"sort"
	"strings"
)

// ComputeDelta returns the membership changes that transform current
// into desired: additions = desired − current, removals = current −
// desired. Exceptions suppress additions only; an excepted identity
// already in the group still gets removed once no longer desired.
// Account names in both sets are lowercase, so exceptions are lowercased
// here rather than trusting how an operator typed them in config. Both
// slices come back sorted so runs are deterministic, and they are
// disjoint by construction.
func ComputeDelta(current, desired map[string]struct{}, exceptions []string) (additions, removals []string) {
	excepted := make(map[string]struct{}, len(exceptions))
	for _, identity := range exceptions {
		excepted[strings.ToLower(identity)] = struct{}{}
	}

	for identity := range desired {
		if _, ok := current[identity]; ok {
			continue
		}
		if _, ok := excepted[identity]; ok {
			continue
		}
		additions = append(additions, identity)
	}

	for identity := range current {
		if _, ok := desired[identity]; !ok {
			removals = append(removals, identity)
		}
	}

	sort.Strings(additions)
	sort.Strings(removals)
	return additions, removals
}
