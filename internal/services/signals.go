package services

// Signal is the wake-up payload pushed to subscribed admin dashboards on
// every notification append. It carries just enough for the client to decide
// which read queries to re-run; it is never authoritative state.
type Signal struct {
	Type             string `json:"type"`
	NotificationType string `json:"notification_type"`
	EntityID         int64  `json:"entity_id"`
}

type SignalPublisher interface {
	Publish(signal Signal)
}

func newSignal(notificationType string, entityID int64) Signal {
	return Signal{
		Type:             "notification",
		NotificationType: notificationType,
		EntityID:         entityID,
	}
}
