package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationType identifies the social action behind a notification.
type NotificationType string

const (
	NotificationTypeFollow NotificationType = "FOLLOW"
	NotificationTypeInvite NotificationType = "INVITE"
	NotificationTypeChat   NotificationType = "CHAT"
)

// Notification is a stored social-action notification. The natural key for
// dedup purposes is (type, user, from) plus party for INVITE.
type Notification struct {
	ID        primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	Type      NotificationType    `json:"type" bson:"type"`
	User      primitive.ObjectID  `json:"user" bson:"user"`
	From      primitive.ObjectID  `json:"from" bson:"from"`
	Party     *primitive.ObjectID `json:"party,omitempty" bson:"party,omitempty"`
	CreatedAt time.Time           `json:"createdAt" bson:"createdAt"`
}
