package model

import "time"

// Category classifies an inventory item. The set is closed; the AI
// extraction schema is constrained to the same values.
type Category string

const (
	CategoryElectronics Category = "electronics"
	CategoryFurniture   Category = "furniture"
	CategoryClothing    Category = "clothing"
	CategoryJewelry     Category = "jewelry"
	CategoryAppliances  Category = "appliances"
	CategoryBooks       Category = "books"
	CategoryArtwork     Category = "artwork"
	CategoryTools       Category = "tools"
	CategorySports      Category = "sports"
	CategoryOther       Category = "other"
)

// Categories lists every valid category.
var Categories = []Category{
	CategoryElectronics,
	CategoryFurniture,
	CategoryClothing,
	CategoryJewelry,
	CategoryAppliances,
	CategoryBooks,
	CategoryArtwork,
	CategoryTools,
	CategorySports,
	CategoryOther,
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

// Condition grades an item's physical state.
type Condition string

const (
	ConditionExcellent Condition = "excellent"
	ConditionGood      Condition = "good"
	ConditionFair      Condition = "fair"
	ConditionPoor      Condition = "poor"
)

// Valid reports whether c is a known condition grade.
func (c Condition) Valid() bool {
	switch c {
	case ConditionExcellent, ConditionGood, ConditionFair, ConditionPoor:
		return true
	}
	return false
}

// Item is one documented belonging. EstimatedValue and the purchase
// fields are pointers so "not known" is distinguishable from zero.
type Item struct {
	ID             int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	AccountID      int64      `gorm:"index:idx_item_account;not null" json:"account_id"`
	Name           string     `gorm:"size:255;not null" json:"name"`
	Description    string     `gorm:"type:text" json:"description"`
	Category       Category   `gorm:"size:32;index" json:"category"`
	Condition      Condition  `gorm:"size:16" json:"condition"`
	EstimatedValue *float64   `json:"estimated_value"`
	PurchasePrice  *float64   `json:"purchase_price"`
	PurchaseDate   *time.Time `json:"purchase_date"`
	Brand          string     `gorm:"size:128" json:"brand"`
	Model          string     `gorm:"size:128" json:"model"`
	SerialNumber   string     `gorm:"size:128" json:"serial_number"`
	RoomLocation   string     `gorm:"size:128" json:"room_location"`
	ImageURL       string     `gorm:"size:512" json:"image_url"`
	CreatedAt      time.Time  `gorm:"index:idx_item_created;autoCreateTime:milli" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
