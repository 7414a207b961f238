package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is the user document. Relationship sets (following, followers,
// attendedParties) are ID arrays paired with cached counts; the counts are
// only ever touched by the guarded repository updates so that
// len(set) == count holds after every settled operation.
type User struct {
	ID                primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Email             string             `json:"email" bson:"email"`
	Nickname          string             `json:"nickname" bson:"nickname"`
	FullName          string             `json:"fullName" bson:"fullName"`
	Password          string             `json:"-" bson:"password"`
	Bio               string             `json:"bio,omitempty" bson:"bio,omitempty"`
	PictureID         string             `json:"pictureId,omitempty" bson:"pictureId,omitempty"`
	BannerID          string             `json:"bannerId,omitempty" bson:"bannerId,omitempty"`
	InstagramUsername string             `json:"instagramUsername,omitempty" bson:"instagramUsername,omitempty"`

	Following            []primitive.ObjectID `json:"following" bson:"following"`
	FollowingCount       int                  `json:"followingCount" bson:"followingCount"`
	Followers            []primitive.ObjectID `json:"followers" bson:"followers"`
	FollowersCount       int                  `json:"followersCount" bson:"followersCount"`
	AttendedParties      []primitive.ObjectID `json:"attendedParties" bson:"attendedParties"`
	AttendedPartiesCount int                  `json:"attendedPartiesCount" bson:"attendedPartiesCount"`
	OrganizedParties     []primitive.ObjectID `json:"organizedParties" bson:"organizedParties"`

	IsAdmin      bool   `json:"-" bson:"isAdmin,omitempty"`
	RecoveryCode string `json:"-" bson:"recoveryCode,omitempty"`
	RefreshToken string `json:"-" bson:"refreshToken,omitempty"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// ContainsID reports membership of id in a document ID set.
func ContainsID(set []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, it := range set {
		if it == id {
			return true
		}
	}
	return false
}

// IsFollowing reports whether u follows the given user.
func (u *User) IsFollowing(id primitive.ObjectID) bool {
	return ContainsID(u.Following, id)
}

// IsFollowedBy reports whether the given user follows u.
func (u *User) IsFollowedBy(id primitive.ObjectID) bool {
	return ContainsID(u.Followers, id)
}

// UserPreview is the compact projection used in listings and search results.
type UserPreview struct {
	ID        primitive.ObjectID `json:"id" bson:"_id"`
	Nickname  string             `json:"nickname" bson:"nickname"`
	FullName  string             `json:"fullName" bson:"fullName"`
	PictureID string             `json:"pictureId,omitempty" bson:"pictureId,omitempty"`
}

// ToPreview projects the user to its compact form.
func (u *User) ToPreview() UserPreview {
	return UserPreview{
		ID:        u.ID,
		Nickname:  u.Nickname,
		FullName:  u.FullName,
		PictureID: u.PictureID,
	}
}

// GroupedCount is a per-day bucket from the created-by-day aggregation.
type GroupedCount struct {
	Day   string `json:"day" bson:"_id"`
	Count int    `json:"count" bson:"count"`
}

type SignUpRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Nickname string `json:"nickname" validate:"required,min=3,max=30"`
	FullName string `json:"fullName" validate:"required,min=2,max=50"`
	Password string `json:"password" validate:"required,min=8"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type EditUserRequest struct {
	Nickname          string `json:"nickname,omitempty" validate:"omitempty,min=3,max=30"`
	FullName          string `json:"fullName,omitempty" validate:"omitempty,min=2,max=50"`
	Bio               string `json:"bio,omitempty" validate:"omitempty,max=300"`
	InstagramUsername string `json:"instagramUsername,omitempty" validate:"omitempty,max=30"`
}

type ChangeFollowingStateRequest struct {
	FollowingID string `json:"followingId" validate:"required"`
	State       bool   `json:"state"`
}

type ChangeAttendingStateRequest struct {
	PartyID string `json:"partyId" validate:"required"`
	State   bool   `json:"state"`
}

type SendPartyInviteRequest struct {
	PartyID    string   `json:"partyId" validate:"required"`
	InvitedIDs []string `json:"invitedIds" validate:"required,min=1"`
}

type DeleteUserRequest struct {
	Password string `json:"password" validate:"required"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}
