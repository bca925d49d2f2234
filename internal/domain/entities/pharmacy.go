package entities

// Pharmacy is one geolocated store as read from the point store
type Pharmacy struct {
	ID       int64     `json:"id" db:"id"`
	Name     *string   `json:"name" db:"name"`
	Address  *string   `json:"address" db:"address"`
	Province *string   `json:"province" db:"province"`
	District *string   `json:"district" db:"district"`
	Phone    *string   `json:"phone" db:"phone"`
	Status   *string   `json:"status" db:"status"`
	Rating   *float64  `json:"rating" db:"rating"`
	Image    *string   `json:"image" db:"image"`
	Location *Location `json:"location" db:"-"`
}

// Location represents geographical coordinates in WGS84 degrees
type Location struct {
	Latitude  float64 `json:"latitude" db:"latitude"`
	Longitude float64 `json:"longitude" db:"longitude"`
}

// PharmacyPage is one page of the administrative listing
type PharmacyPage struct {
	Rows       []*Pharmacy `json:"rows"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	TotalPages int         `json:"totalPages"`
}

// NewPharmacyPage computes the page count, never reporting fewer than one page
func NewPharmacyPage(rows []*Pharmacy, total int64, page, pageSize int) *PharmacyPage {
	if rows == nil {
		rows = []*Pharmacy{}
	}
	totalPages := 1
	if pageSize > 0 && total > 0 {
		totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return &PharmacyPage{
		Rows:       rows,
		Total:      total,
		Page:       page,
		TotalPages: totalPages,
	}
}
