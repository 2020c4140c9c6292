// Package classify assigns a single category to a message via an external
// text-classification model.
package classify

import "context"

// Request carries the message features sent to the classifier.
type Request struct {
	Sender      string
	Subject     string
	Snippet     string
	BodyExcerpt string
}

// Classifier returns one category string for a message. The output is not
// trusted to be a vocabulary member; the caller enforces that.
type Classifier interface {
	Classify(ctx context.Context, req Request) (string, error)
}
