package port

import "context"

// StatusPublisher emits a JSON entity.RenderStatusMessage after every job
// state change.
type StatusPublisher interface {
	PublishStatus(ctx context.Context, msg []byte) error
}

// DLQPublisher parks render requests that can never succeed.
type DLQPublisher interface {
	PublishToDLQ(ctx context.Context, msg []byte, reason string) error
}
