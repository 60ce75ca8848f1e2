package notify

import "context"

// latestLimit caps how many notifications a user fetch returns.
const latestLimit = 20

// Store persists notifications.
type Store interface {
	Create(ctx context.Context, n *Notification) error
	// Latest returns the user's newest notifications, capped at 20.
	Latest(ctx context.Context, userID string) ([]*Notification, error)
	// MarkRead flips one notification owned by the user.
	MarkRead(ctx context.Context, id, userID string) error
	// MarkAllRead flips every unread notification of the user.
	MarkAllRead(ctx context.Context, userID string) error
}
