package port

import "context"

// NotificationGateway delivers a notice to one user. Fire-and-forget from
// the workflow's perspective: errors are logged by the dispatcher, never
// propagated to the operation that caused the notice.
type NotificationGateway interface {
	Send(ctx context.Context, fromUserID, toUserID, title, body string) error
}
