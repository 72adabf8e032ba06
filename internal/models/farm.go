package models

import "time"

// Farm is a document in the "farms" collection. Ownership and membership
// gate every farm-scoped operation.
type Farm struct {
	ID               string    `bson:"_id" json:"id"`
	Name             string    `bson:"name" json:"name"`
	OwnerID          string    `bson:"ownerId" json:"ownerId"`
	Members          []string  `bson:"members" json:"members"`
	CropPlans        []string  `bson:"cropPlans" json:"cropPlans"`
	TotalPlannedArea float64   `bson:"totalPlannedArea" json:"totalPlannedArea"`
	Location         GeoPoint  `bson:"location" json:"location"`
	CreatedAt        time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time `bson:"updatedAt" json:"updatedAt"`
}

// HasAccess reports whether uid may act on the farm: owner and listed
// members qualify; admins are handled by the caller.
func (f *Farm) HasAccess(uid string) bool {
	if f.OwnerID == uid {
		return true
	}
	for _, m := range f.Members {
		if m == uid {
			return true
		}
	}
	return false
}
