package models

// Crop is a catalog entry in the "crops" collection: static agronomic data
// served alongside a growing guide.
type Crop struct {
	ID                string   `bson:"_id" json:"id"`
	Name              string   `bson:"name" json:"name"`
	PlantingTime      string   `bson:"plantingTime" json:"plantingTime"`
	HarvestTime       string   `bson:"harvestTime" json:"harvestTime"`
	WaterRequirements string   `bson:"waterRequirements" json:"waterRequirements"`
	SoilRequirements  string   `bson:"soilRequirements" json:"soilRequirements"`
	PestManagement    string   `bson:"pestManagement" json:"pestManagement"`
	DiseaseManagement string   `bson:"diseaseManagement" json:"diseaseManagement"`
	HarvestingTips    []string `bson:"harvestingTips" json:"harvestingTips"`
	StorageTips       []string `bson:"storageTips" json:"storageTips"`
}

// GrowingGuide is the guide slice of a catalog crop returned by the crop
// detail endpoint.
type GrowingGuide struct {
	PlantingTime      string   `json:"plantingTime"`
	HarvestTime       string   `json:"harvestTime"`
	WaterRequirements string   `json:"waterRequirements"`
	SoilRequirements  string   `json:"soilRequirements"`
	PestManagement    string   `json:"pestManagement"`
	DiseaseManagement string   `json:"diseaseManagement"`
	HarvestingTips    []string `json:"harvestingTips"`
	StorageTips       []string `json:"storageTips"`
}

// Guide projects the crop onto its growing guide.
func (c *Crop) Guide() GrowingGuide {
	return GrowingGuide{
		PlantingTime:      c.PlantingTime,
		HarvestTime:       c.HarvestTime,
		WaterRequirements: c.WaterRequirements,
		SoilRequirements:  c.SoilRequirements,
		PestManagement:    c.PestManagement,
		DiseaseManagement: c.DiseaseManagement,
		HarvestingTips:    c.HarvestingTips,
		StorageTips:       c.StorageTips,
	}
}
