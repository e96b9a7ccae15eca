package models

import "time"

// MemorialCandidate is a person record under comparison. Optional string
// fields use "" for unknown. ID is "" for a record that is not yet persisted.
type MemorialCandidate struct {
	ID           string `json:"id" yaml:"id" db:"id"`
	FirstName    string `json:"first_name" yaml:"first_name" db:"first_name"`
	MiddleName   string `json:"middle_name,omitempty" yaml:"middle_name" db:"middle_name"`
	LastName     string `json:"last_name" yaml:"last_name" db:"last_name"`
	Nickname     string `json:"nickname,omitempty" yaml:"nickname" db:"nickname"`
	BirthDate    string `json:"birth_date,omitempty" yaml:"birth_date" db:"birth_date"`
	DeathDate    string `json:"death_date,omitempty" yaml:"death_date" db:"death_date"`
	BirthPlace   string `json:"birth_place,omitempty" yaml:"birth_place" db:"birth_place"`
	RestingPlace string `json:"resting_place,omitempty" yaml:"resting_place" db:"resting_place"`

	// Presentation only; never scored.
	Slug            string `json:"slug,omitempty" yaml:"slug" db:"slug"`
	ViewCount       int    `json:"view_count" yaml:"view_count" db:"view_count"`
	ProfilePhotoURL string `json:"profile_photo_url,omitempty" yaml:"profile_photo_url" db:"profile_photo_url"`
}

// Memorial is a persisted memorial record
type Memorial struct {
	MemorialCandidate
	CanonicalHash string    `json:"canonical_hash" db:"canonical_hash"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// CreateMemorialRequest is the request to create a memorial
type CreateMemorialRequest struct {
	FirstName       string `json:"first_name" validate:"required"`
	MiddleName      string `json:"middle_name,omitempty"`
	LastName        string `json:"last_name" validate:"required"`
	Nickname        string `json:"nickname,omitempty"`
	BirthDate       string `json:"birth_date,omitempty"`
	DeathDate       string `json:"death_date,omitempty"`
	BirthPlace      string `json:"birth_place,omitempty"`
	RestingPlace    string `json:"resting_place,omitempty"`
	Slug            string `json:"slug,omitempty"`
	ProfilePhotoURL string `json:"profile_photo_url,omitempty" validate:"omitempty,url"`
}

// ToCandidate converts the request to an unpersisted candidate
func (r CreateMemorialRequest) ToCandidate() MemorialCandidate {
	return MemorialCandidate{
		FirstName:       r.FirstName,
		MiddleName:      r.MiddleName,
		LastName:        r.LastName,
		Nickname:        r.Nickname,
		BirthDate:       r.BirthDate,
		DeathDate:       r.DeathDate,
		BirthPlace:      r.BirthPlace,
		RestingPlace:    r.RestingPlace,
		Slug:            r.Slug,
		ProfilePhotoURL: r.ProfilePhotoURL,
	}
}

// PoolScope narrows the candidate pool a source returns
type PoolScope struct {
	LastName string // when set, only plausibly matching last names are returned
	Limit    int    // maximum number of records; <= 0 means the source default
}
