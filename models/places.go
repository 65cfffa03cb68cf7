package models

// PlaceInfo is the denormalised place record carried by a PlaceItem.
type PlaceInfo struct {
	PlaceID   int64    `json:"place_id" bson:"place_id"`
	Name      string   `json:"name" bson:"name"`
	Address   string   `json:"address" bson:"address"`
	Latitude  float64  `json:"latitude" bson:"latitude"`
	Longitude float64  `json:"longitude" bson:"longitude"`
	Type      string   `json:"type" bson:"type"`
	Location  string   `json:"location,omitempty" bson:"location,omitempty"`
	ImageURL  string   `json:"image_url,omitempty" bson:"image_url,omitempty"` // semicolon separated
	Images    []string `json:"images,omitempty" bson:"-"`
}

// Accommodation is a stay record as listed in the catalogue.
type Accommodation struct {
	AccommodationID int64    `json:"accommodation_id" bson:"accommodation_id"`
	Name            string   `json:"name" bson:"name"`
	Address         string   `json:"address" bson:"address"`
	Latitude        float64  `json:"latitude" bson:"latitude"`
	Longitude       float64  `json:"longitude" bson:"longitude"`
	Type            string   `json:"type" bson:"type"`
	Phone           string   `json:"phone,omitempty" bson:"phone,omitempty"`
	Location        string   `json:"location,omitempty" bson:"location,omitempty"`
	ImageURL        string   `json:"image_url,omitempty" bson:"image_url,omitempty"` // semicolon separated
	Images          []string `json:"images,omitempty" bson:"-"`
}

type Coordinates struct {
	Lat float64 `json:"lat" bson:"lat"`
	Lng float64 `json:"lng" bson:"lng"`
}

// Coordinates returns the place position as a waypoint.
func (p PlaceInfo) Coordinates() Coordinates {
	return Coordinates{Lat: p.Latitude, Lng: p.Longitude}
}

func (a Accommodation) Coordinates() Coordinates {
	return Coordinates{Lat: a.Latitude, Lng: a.Longitude}
}

// Clone copies the record including its image list.
func (p PlaceInfo) Clone() PlaceInfo {
	if p.Images != nil {
		p.Images = append([]string(nil), p.Images...)
	}
	return p
}

func (a Accommodation) Clone() Accommodation {
	if a.Images != nil {
		a.Images = append([]string(nil), a.Images...)
	}
	return a
}
