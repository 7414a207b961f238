package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PartyAvailability controls which users may view and attend a party.
type PartyAvailability string

const (
	PartyAvailabilityPublic    PartyAvailability = "PUBLIC"
	PartyAvailabilityFollowers PartyAvailability = "FOLLOWERS"
	PartyAvailabilityFollowing PartyAvailability = "FOLLOWING"
	PartyAvailabilityPrivate   PartyAvailability = "PRIVATE"
)

// PartyStatus is the party lifecycle state.
type PartyStatus string

const (
	PartyStatusCreated PartyStatus = "CREATED"
	PartyStatusEnabled PartyStatus = "ENABLED"
	PartyStatusExpired PartyStatus = "EXPIRED"
)

// Party is the party document. Organizer is a weak reference: it is unset
// when the organizer account is removed and the party survives, so readers
// must handle a nil organizer.
type Party struct {
	ID           primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	Name         string              `json:"name" bson:"name"`
	Organizer    *primitive.ObjectID `json:"organizer,omitempty" bson:"organizer,omitempty"`
	Address      string              `json:"address" bson:"address"`
	Date         time.Time           `json:"date" bson:"date"`
	Description  string              `json:"description,omitempty" bson:"description,omitempty"`
	MinAge       int                 `json:"minAge,omitempty" bson:"minAge,omitempty"`
	OpenBar      bool                `json:"openBar" bson:"openBar"`
	AllowInvites bool                `json:"allowInvites" bson:"allowInvites"`

	Availability PartyAvailability `json:"availability" bson:"availability"`
	Status       PartyStatus       `json:"status" bson:"status"`

	Attenders      []primitive.ObjectID `json:"attenders" bson:"attenders"`
	AttendersCount int                  `json:"attendersCount" bson:"attendersCount"`
	Invited        []primitive.ObjectID `json:"invited" bson:"invited"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// IsInvited reports whether the given user is on the invite list.
func (p *Party) IsInvited(id primitive.ObjectID) bool {
	return ContainsID(p.Invited, id)
}

// IsOrganizer reports whether the given user organizes this party. False
// when the organizer reference has been unset.
func (p *Party) IsOrganizer(id primitive.ObjectID) bool {
	return p.Organizer != nil && *p.Organizer == id
}

// PartyPreview is the compact projection returned by visibility-scoped search.
type PartyPreview struct {
	ID                primitive.ObjectID `json:"id" bson:"_id"`
	Name              string             `json:"name" bson:"name"`
	Availability      PartyAvailability  `json:"availability" bson:"availability"`
	OrganizerNickname string             `json:"organizerNickname,omitempty" bson:"organizerNickname,omitempty"`
}

type CreatePartyRequest struct {
	Name         string            `json:"name" validate:"required,min=2,max=60"`
	Address      string            `json:"address" validate:"required"`
	Date         time.Time         `json:"date" validate:"required"`
	Description  string            `json:"description,omitempty" validate:"omitempty,max=500"`
	MinAge       int               `json:"minAge,omitempty" validate:"omitempty,min=0,max=99"`
	OpenBar      bool              `json:"openBar"`
	AllowInvites bool              `json:"allowInvites"`
	Availability PartyAvailability `json:"availability" validate:"required,oneof=PUBLIC FOLLOWERS FOLLOWING PRIVATE"`
}
