package queue

import "sort"

// DefaultAvgServiceMinutes is the assumed consultation length used for wait
// estimates when no override is configured.
const DefaultAvgServiceMinutes = 5

// Rank orders waiting patients into serving order: emergency tier before
// routine, lower token number first within a tier. Token numbers are unique,
// so the order is total and ties cannot occur.
func Rank(patients []*Patient) []QueueEntry {
	entries := make([]QueueEntry, 0, len(patients))
	for _, p := range patients {
		entries = append(entries, QueueEntry{Patient: p, Tier: p.Tier()})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Tier != entries[j].Tier {
			return entries[i].Tier > entries[j].Tier
		}
		return entries[i].Patient.TokenNumber < entries[j].Patient.TokenNumber
	})
	return entries
}

// WithEstimates fills in positions and wait estimates for a ranked queue.
// The estimate at zero-based position i is i * avgServiceMinutes, so the
// head of the queue always waits 0. The estimate is static per position; it
// does not adapt to observed service durations.
func WithEstimates(entries []QueueEntry, avgServiceMinutes int) []QueueEntry {
	for i := range entries {
		entries[i].Position = i
		entries[i].EstimatedWaitMin = i * avgServiceMinutes
	}
	return entries
}
