package models

import "time"

// Supported interface languages.
var Languages = []string{"en", "fr", "sw", "ha", "yo", "ar"}

// GeoPoint is a coordinate pair with a human-readable address.
type GeoPoint struct {
	Lat     float64 `bson:"lat" json:"lat"`
	Lng     float64 `bson:"lng" json:"lng"`
	Address string  `bson:"address" json:"address"`
}

// NotificationPrefs selects delivery channels for user notifications.
type NotificationPrefs struct {
	Email bool `bson:"email" json:"email"`
	Push  bool `bson:"push" json:"push"`
	SMS   bool `bson:"sms" json:"sms"`
}

type PrivacyPrefs struct {
	ShareData     bool `bson:"shareData" json:"shareData"`
	PublicProfile bool `bson:"publicProfile" json:"publicProfile"`
}

type Preferences struct {
	Notifications NotificationPrefs `bson:"notifications" json:"notifications"`
	Privacy       PrivacyPrefs      `bson:"privacy" json:"privacy"`
}

type UserStats struct {
	TotalHarvests int     `bson:"totalHarvests" json:"totalHarvests"`
	TotalRevenue  float64 `bson:"totalRevenue" json:"totalRevenue"`
	CropsPlanted  int     `bson:"cropsPlanted" json:"cropsPlanted"`
}

// UserProfile is the per-user document in the "users" collection, keyed by the
// identity provider's subject id.
type UserProfile struct {
	UID         string      `bson:"_id" json:"uid"`
	Email       string      `bson:"email" json:"email"`
	FirstName   string      `bson:"firstName" json:"firstName"`
	LastName    string      `bson:"lastName" json:"lastName"`
	PhoneNumber string      `bson:"phoneNumber" json:"phoneNumber"`
	Location    GeoPoint    `bson:"location" json:"location"`
	Language    string      `bson:"language" json:"language"`
	Role        string      `bson:"role" json:"role"`
	FarmSize    float64     `bson:"farmSize" json:"farmSize"`
	Crops       []string    `bson:"crops" json:"crops"`
	Experience  string      `bson:"experience" json:"experience"`
	IsActive    bool        `bson:"isActive" json:"isActive"`
	CreatedAt   time.Time   `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time   `bson:"updatedAt" json:"updatedAt"`
	LastLoginAt *time.Time  `bson:"lastLoginAt,omitempty" json:"lastLoginAt,omitempty"`
	Preferences Preferences `bson:"preferences" json:"preferences"`
	Stats       UserStats   `bson:"stats" json:"stats"`
}

// NewUserProfile builds a registration-time profile with the platform
// defaults applied (email + push notifications on, private profile).
func NewUserProfile(uid string) *UserProfile {
	now := time.Now().UTC()
	return &UserProfile{
		UID:        uid,
		Language:   "en",
		Role:       "farmer",
		Crops:      []string{},
		Experience: "beginner",
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
		Preferences: Preferences{
			Notifications: NotificationPrefs{Email: true, Push: true, SMS: false},
		},
	}
}
