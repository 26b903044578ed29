package models

import "time"

type Property struct {
	ID                 int64        `json:"id"`
	Title              string       `json:"title"`
	Description        string       `json:"description"`
	Address            string       `json:"address"`
	Price              int          `json:"price"`
	Bedrooms           int          `json:"bedrooms"`
	Bathrooms          int          `json:"bathrooms"`
	Area               int          `json:"area"`
	PropertyType       string       `json:"property_type"`
	Furnishing         string       `json:"furnishing"`
	Amenities          []string     `json:"amenities"`
	NearbyUniversities []string     `json:"nearby_universities"`
	Images             []string     `json:"images"`
	OwnerID            int64        `json:"owner_id"`
	Owner              *UserSummary `json:"owner,omitempty"`
	Views              int          `json:"views"`
	Inquiries          int          `json:"inquiries"`
	IsActive           bool         `json:"is_active"`
	CreatedAt          time.Time    `json:"created_at"`
}

type PaginationMeta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}
