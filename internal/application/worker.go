package application

import "context"

// Worker is a background loop owned by a cmd process. Start blocks until
// ctx is canceled.
type Worker interface {
	Start(ctx context.Context)
}
