package domain

import "time"

// Brewery produces beers.
type Brewery struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	City        string `gorm:"type:varchar(100)" json:"city"`
	Country     string `gorm:"type:varchar(100)" json:"country"`
	Established *int   `json:"established"`
}

// BeerStyle is a catalog style such as "IPA".
type BeerStyle struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
}

// Hop is an ingredient that can be linked to many beers.
type Hop struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Name    string `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	Country string `gorm:"type:varchar(100)" json:"country"`
}

// Beer is a catalog entry. Rooms only ever read it.
type Beer struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Name        string     `gorm:"type:varchar(100);not null;index" json:"name"`
	BreweryID   *uint      `json:"brewery_id"`
	Brewery     *Brewery   `gorm:"constraint:OnDelete:SET NULL" json:"brewery,omitempty"`
	StyleID     *uint      `json:"style_id"`
	Style       *BeerStyle `gorm:"constraint:OnDelete:SET NULL" json:"style,omitempty"`
	Percentage  *float64   `json:"percentage"`
	VolumeML    *int       `gorm:"column:volume_ml" json:"volume_ml"`
	HopRate     *float64   `json:"hop_rate"`
	Extract     *float64   `json:"extract"`
	IBU         *int       `gorm:"column:ibu" json:"ibu"`
	Description string     `gorm:"type:text" json:"description"`
	Hops        []Hop      `gorm:"many2many:beer_hops" json:"hops"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// BeerSummary is the compact form used inside rooms and results.
// Brewery and style are rendered by name.
type BeerSummary struct {
	ID      uint   `json:"id"`
	Name    string `json:"name"`
	Brewery string `json:"brewery"`
	Style   string `json:"style"`
}

func (b Beer) Summary() BeerSummary {
	s := BeerSummary{ID: b.ID, Name: b.Name}
	if b.Brewery != nil {
		s.Brewery = b.Brewery.Name
	}
	if b.Style != nil {
		s.Style = b.Style.Name
	}
	return s
}
