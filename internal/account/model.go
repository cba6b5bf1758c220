package account

import "time"

// User is the account record in the primary store, keyed by the
// identity uid. TotalBookings counts lifetime bookings; it is
// incremented on each booking creation and never reconciled.
type User struct {
	UID           string    `bson:"_id" json:"uid"`
	FirstName     string    `bson:"firstName" json:"firstName"`
	LastName      string    `bson:"lastName" json:"lastName"`
	Email         string    `bson:"email,omitempty" json:"email,omitempty"`
	Phone         string    `bson:"phone,omitempty" json:"phone,omitempty"`
	PasswordHash  string    `bson:"passwordHash,omitempty" json:"-"`
	Role          string    `bson:"role" json:"role"`
	TotalBookings int       `bson:"totalBookings" json:"totalBookings"`
	CreatedAt     time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time `bson:"updatedAt" json:"updatedAt"`
}

func (u User) DisplayName() string {
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	return name
}

type RegisterRequest struct {
	FirstName string `json:"firstName" validate:"required,max=80"`
	LastName  string `json:"lastName" validate:"required,max=80"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"omitempty,phone"`
	Password  string `json:"password" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type PhoneCodeRequest struct {
	Phone string `json:"phone" validate:"required"`
}

type PhoneVerifyRequest struct {
	ChallengeID string `json:"challengeId" validate:"required"`
	Code        string `json:"code" validate:"required,len=6,numeric"`
}

type UpdateProfileRequest struct {
	FirstName string `json:"firstName" validate:"required,max=80"`
	LastName  string `json:"lastName" validate:"required,max=80"`
	Phone     string `json:"phone" validate:"omitempty,phone"`
}
