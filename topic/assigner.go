package topic

import (
	"math/rand"
	"time"
)

// Assigner draws topic sets for a player. The random source is injectable so
// tests can pin shuffle outcomes.
type Assigner struct {
	rng *rand.Rand
}

// NewAssigner returns an Assigner backed by src, or by a time-seeded source
// when src is nil.
func NewAssigner(src rand.Source) *Assigner {
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return &Assigner{rng: rand.New(src)}
}

// Random samples up to PerPlayer distinct topics from the catalog, skipping
// any in exclude. When fewer candidates remain it returns all of them rather
// than failing.
func (a *Assigner) Random(exclude []Topic) []Topic {
	excluded := toSet(exclude)

	candidates := make([]Topic, 0, len(catalog))
	for _, t := range catalog {
		if !excluded[t] {
			candidates = append(candidates, t)
		}
	}

	a.rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	if len(candidates) > PerPlayer {
		candidates = candidates[:PerPlayer]
	}

	return candidates
}

// Initialize reuses a prior assignment when it is still a valid four-topic
// set, so a reloaded client keeps the same topics. Otherwise it deals a
// fresh random set.
func (a *Assigner) Initialize(existing []Topic) []Topic {
	if validAssignment(existing) {
		return clone(existing)
	}

	return a.Random(nil)
}

// ShuffleOne replaces target with a topic not currently assigned and not
// locked. The result is a new slice; current is never modified. No-op when
// target is absent or no candidate remains.
func (a *Assigner) ShuffleOne(current []Topic, locked []Topic, target Topic) []Topic {
	out := clone(current)

	idx := -1
	for i, t := range out {
		if t == target {
			idx = i
			break
		}
	}
	if idx == -1 {
		return out
	}

	used := toSet(current)
	for _, t := range locked {
		used[t] = true
	}

	candidates := make([]Topic, 0, len(catalog))
	for _, t := range catalog {
		if !used[t] {
			candidates = append(candidates, t)
		}
	}
	if len(candidates) == 0 {
		return out
	}

	out[idx] = candidates[a.rng.Intn(len(candidates))]

	return out
}

// ShuffleUnlocked redraws every unlocked slot, keeping locked topics in
// place. Replacements are drawn without duplicates from topics neither
// locked nor currently assigned. If the pool runs short, the leftover slots
// keep their current topics instead of shrinking the set.
func (a *Assigner) ShuffleUnlocked(current []Topic, locked []Topic) []Topic {
	out := clone(current)

	lockedSet := toSet(locked)
	used := toSet(current)
	for t := range lockedSet {
		used[t] = true
	}

	candidates := make([]Topic, 0, len(catalog))
	for _, t := range catalog {
		if !used[t] {
			candidates = append(candidates, t)
		}
	}

	a.rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	next := 0
	for i, t := range out {
		if lockedSet[t] {
			continue
		}
		if next >= len(candidates) {
			break
		}
		out[i] = candidates[next]
		next++
	}

	return out
}

// ToggleLock flips topic's membership in locked. Completed topics stay
// locked no matter what.
func ToggleLock(locked []Topic, t Topic, completed []Topic) []Topic {
	if contains(completed, t) {
		return clone(locked)
	}

	if contains(locked, t) {
		out := make([]Topic, 0, len(locked)-1)
		for _, c := range locked {
			if c != t {
				out = append(out, c)
			}
		}
		return out
	}

	out := clone(locked)

	return append(out, t)
}

// MergeLocks combines server-derived completions with the player's manual
// locks into the effective locked set, completions first, without
// duplicates.
func MergeLocks(completed, manual []Topic) []Topic {
	out := clone(completed)
	for _, t := range manual {
		if !contains(out, t) {
			out = append(out, t)
		}
	}

	return out
}

func validAssignment(topics []Topic) bool {
	if len(topics) != PerPlayer {
		return false
	}

	seen := make(map[Topic]bool, len(topics))
	for _, t := range topics {
		if !Valid(t) || seen[t] {
			return false
		}
		seen[t] = true
	}

	return true
}
