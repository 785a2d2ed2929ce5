package services

import (
	"terrainhub/models"
)

// Notifier receives gamification events once the change they describe is stored.
type Notifier interface {
	Notify(event models.GamificationEvent)
}

type nopNotifier struct{}

func (nopNotifier) Notify(models.GamificationEvent) {}

func orNop(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}
