package models

import (
	"time"
)

// GamificationEventType enumerates the events pushed to connected clients
type GamificationEventType string

const (
	EventPointsAwarded GamificationEventType = "points_awarded"
	EventBadgeUnlocked GamificationEventType = "badge_unlocked"
	EventItemPurchased GamificationEventType = "item_purchased"
	EventContentHidden GamificationEventType = "content_hidden"
	EventLevelUp       GamificationEventType = "level_up"
)

// GamificationEvent represents a gamification event to broadcast via WebSocket
type GamificationEvent struct {
	Type       GamificationEventType `json:"type"`
	UserID     string                `json:"userId,omitempty"` // empty means broadcast
	BadgeID    string                `json:"badgeId,omitempty"`
	ItemID     string                `json:"itemId,omitempty"`
	Points     int                   `json:"points,omitempty"`
	NewPoints  int                   `json:"newPoints,omitempty"`
	Level      int                   `json:"level,omitempty"`
	Action     string                `json:"action,omitempty"`
	TargetType TargetType            `json:"targetType,omitempty"`
	TargetID   string                `json:"targetId,omitempty"`
	Timestamp  time.Time             `json:"timestamp"`
}
