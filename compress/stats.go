package compress

import "math"

// Stats is the read-only summary of a compression run. It is derived
// from the task list after all tasks reach a terminal status and is
// never mutated afterward.
type Stats struct {
	MessagesCompressed int `json:"messages_compressed"`
	MessagesSkipped    int `json:"messages_skipped"`
	MessagesFailed     int `json:"messages_failed"`

	// OriginalTokens sums the estimates of all units that were worth
	// compressing (success + failed). Skipped units were judged not
	// worth compressing and are excluded from the reduction math.
	OriginalTokens int `json:"original_tokens"`

	// CompressedTokens sums the result estimates of successful units
	// plus the original estimates of failed units. A failed unit keeps
	// its original text in the clone, so it contributes its full size
	// to the "after" total; the reported reduction always reflects the
	// actual output document.
	CompressedTokens int `json:"compressed_tokens"`

	// ReductionPercent is round((original-compressed)/original*100),
	// or 0 when OriginalTokens is 0. No assumption of shrinkage is
	// made: a provider that inflates text yields a negative value.
	ReductionPercent int `json:"reduction_percent"`
}

// Summarize reduces task outcomes into aggregate statistics.
func Summarize(tasks []*Task) Stats {
	var s Stats
	for _, t := range tasks {
		switch t.Status {
		case StatusSuccess:
			s.MessagesCompressed++
			s.OriginalTokens += t.EstimatedTokens
			s.CompressedTokens += EstimateTokens(t.Result)
		case StatusSkipped:
			s.MessagesSkipped++
		case StatusFailed:
			s.MessagesFailed++
			s.OriginalTokens += t.EstimatedTokens
			s.CompressedTokens += t.EstimatedTokens
		}
	}
	if s.OriginalTokens > 0 {
		s.ReductionPercent = int(math.Round(float64(s.OriginalTokens-s.CompressedTokens) / float64(s.OriginalTokens) * 100))
	}
	return s
}
