package models

import "time"

type Category string

const (
	CategoryElectrical Category = "Electrical"
	CategoryPlumbing   Category = "Plumbing"
	CategoryCarpentry  Category = "Carpentry"
	CategoryPainting   Category = "Painting"
	CategoryAppliance  Category = "Appliance"
	CategoryCleaning   Category = "Cleaning"
)

func (c Category) IsValid() bool {
	switch c {
	case CategoryElectrical, CategoryPlumbing, CategoryCarpentry,
		CategoryPainting, CategoryAppliance, CategoryCleaning:
		return true
	}
	return false
}

// Service is a catalog entry customers can book.
type Service struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	Category    Category  `gorm:"type:varchar(32);not null" json:"category"`
	Description string    `json:"description"`
	BasePrice   float64   `gorm:"not null" json:"base_price"`
	CreatedAt   time.Time `json:"created_at"`
}
