package models

import "time"

// RatingCategories holds the five optional sub-scores. Zero means the student
// left that category unrated, so it is skipped when averaging.
type RatingCategories struct {
	Location         int `json:"location"`
	Cleanliness      int `json:"cleanliness"`
	Amenities        int `json:"amenities"`
	ValueForMoney    int `json:"valueForMoney"`
	LandlordResponse int `json:"landlordResponse"`
}

type Rating struct {
	ID          int64            `json:"id"`
	PropertyID  int64            `json:"property_id"`
	StudentID   int64            `json:"student_id"`
	StudentName string           `json:"student_name,omitempty"`
	Rating      int              `json:"rating"`
	Review      string           `json:"review"`
	Categories  RatingCategories `json:"categories"`
	CreatedAt   time.Time        `json:"created_at"`
}

// RatingAggregate is computed on read and never stored. With no ratings at
// all CategoryAverages stays an empty map; otherwise every category key is
// present, zero when nothing contributed to it.
type RatingAggregate struct {
	Ratings          []Rating           `json:"ratings"`
	AverageRating    float64            `json:"averageRating"`
	TotalRatings     int                `json:"totalRatings"`
	CategoryAverages map[string]float64 `json:"categoryAverages"`
}

type AdminStats struct {
	TotalUsers       int `json:"total_users"`
	TotalStudents    int `json:"total_students"`
	TotalBrokers     int `json:"total_brokers"`
	TotalProperties  int `json:"total_properties"`
	ActiveProperties int `json:"active_properties"`
	TotalContacts    int `json:"total_contacts"`
}
