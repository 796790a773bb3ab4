package push

import (
	"errors"
	"log/slog"

	"github.com/dukerupert/milkrun/internal/model"
	"github.com/dukerupert/milkrun/internal/store"
)

// Notifier fans a stored Notification out to browser push endpoints: the
// owner's endpoints for a targeted notification, every endpoint for a
// broadcast. Delivery is best-effort; failures are logged, and endpoints
// the push service reports gone are pruned.
type Notifier struct {
	service *Service
	store   *store.PushStore
	logger  *slog.Logger
}

func NewNotifier(service *Service, pushStore *store.PushStore, logger *slog.Logger) *Notifier {
	return &Notifier{service: service, store: pushStore, logger: logger}
}

// Notify delivers the notification to the relevant endpoints. Safe to call
// on a nil Notifier (push not configured).
func (n *Notifier) Notify(notification *model.Notification) {
	if n == nil {
		return
	}

	var subs []model.PushSubscription
	var err error
	if notification.UserID != nil {
		subs, err = n.store.ListByUser(*notification.UserID)
	} else {
		subs, err = n.store.ListAll()
	}
	if err != nil {
		n.logger.Error("list push subscriptions", "error", err)
		return
	}

	payload := Payload{
		Title: notification.Title,
		Body:  notification.Message,
		URL:   "/notifications",
		Tag:   notification.ID,
	}
	for i := range subs {
		sub := &subs[i]
		if err := n.service.Send(sub, payload); err != nil {
			if errors.Is(err, ErrExpired) {
				if derr := n.store.DeleteByID(sub.ID); derr != nil {
					n.logger.Error("prune expired push subscription", "id", sub.ID, "error", derr)
				}
				continue
			}
			n.logger.Error("send push", "id", sub.ID, "error", err)
		}
	}
}
