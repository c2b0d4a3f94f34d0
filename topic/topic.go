// Package topic holds the fixed photo-challenge catalog and the assignment
// logic that deals each player their four topics.
package topic

// Topic is one of the fixed photo-challenge categories.
type Topic string

const (
	Food           Topic = "food"
	OOTD           Topic = "ootd"
	CuteAnimals    Topic = "cute animals"
	TrendingTopics Topic = "trending topics"
	Selfies        Topic = "selfies"
	Views          Topic = "views"
	Drinks         Topic = "drinks"
	Watching       Topic = "watching/listening"
	QuoteOfTheDay  Topic = "quote of the day"
	Workstation    Topic = "workstation"
	Transportation Topic = "transportation"
)

// PerPlayer is how many topics each player is assigned at a time.
const PerPlayer = 4

var catalog = []Topic{
	Food, OOTD, CuteAnimals, TrendingTopics, Selfies,
	Views, Drinks, Watching, QuoteOfTheDay,
	Workstation, Transportation,
}

// All returns the full topic catalog. The catalog is immutable at runtime;
// callers get their own copy.
func All() []Topic {
	out := make([]Topic, len(catalog))
	copy(out, catalog)
	return out
}

// Valid reports whether t is part of the catalog.
func Valid(t Topic) bool {
	for _, c := range catalog {
		if c == t {
			return true
		}
	}
	return false
}

func toSet(topics []Topic) map[Topic]bool {
	set := make(map[Topic]bool, len(topics))
	for _, t := range topics {
		set[t] = true
	}
	return set
}

func contains(topics []Topic, t Topic) bool {
	for _, c := range topics {
		if c == t {
			return true
		}
	}
	return false
}

func clone(topics []Topic) []Topic {
	out := make([]Topic, len(topics))
	copy(out, topics)
	return out
}
