package domain

type OutcomeKind string

const (
	OutcomeParsed   OutcomeKind = "parsed"
	OutcomeFallback OutcomeKind = "fallback"
	OutcomeFailed   OutcomeKind = "failed"
)

// ParseOutcome records how a stage result was obtained from the model reply.
type ParseOutcome struct {
	Kind   OutcomeKind `json:"kind"`
	Reason string      `json:"reason,omitempty"`
}

func Parsed() ParseOutcome {
	return ParseOutcome{Kind: OutcomeParsed}
}

func Fallback(reason string) ParseOutcome {
	return ParseOutcome{Kind: OutcomeFallback, Reason: reason}
}

func Failed(reason string) ParseOutcome {
	return ParseOutcome{Kind: OutcomeFailed, Reason: reason}
}
