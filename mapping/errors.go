package mapping

import "errors"

var (
	// ErrRetrieverRequired is returned when a retriever is not provided.
	ErrRetrieverRequired = errors.New("retriever required")

	// ErrExternalCandidate is returned when a web result is offered for
	// cross-mapping. Web results carry no catalog code.
	ErrExternalCandidate = errors.New("external candidates cannot be cross-mapped")

	// ErrCodeRequired is returned when a candidate has no code.
	ErrCodeRequired = errors.New("candidate code required")
)
