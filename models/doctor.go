package models

// Location is a latitude/longitude pair in decimal degrees.
type Location struct {
	Latitude  float64 `bson:"latitude" json:"latitude"`
	Longitude float64 `bson:"longitude" json:"longitude"`
}

// Valid reports whether the coordinates are within range.
func (l Location) Valid() bool {
	return l.Latitude >= -90 && l.Latitude <= 90 && l.Longitude >= -180 && l.Longitude <= 180
}

// Doctor is owned by the directory; the consultation core only reads it.
type Doctor struct {
	ID              string    `bson:"id" json:"id"`
	Name            string    `bson:"name" json:"name"`
	Specialty       string    `bson:"specialty" json:"specialty"`
	Available       bool      `bson:"available" json:"available"`
	ExperienceYears int       `bson:"experienceYears" json:"experienceYears"`
	Email           string    `bson:"email,omitempty" json:"email,omitempty"`
	Phone           string    `bson:"phone,omitempty" json:"phone,omitempty"`
	WhatsApp        string    `bson:"whatsapp,omitempty" json:"whatsapp,omitempty"`
	FCMToken        string    `bson:"fcmToken,omitempty" json:"-"`
	ClinicAddress   string    `bson:"clinicAddress,omitempty" json:"clinicAddress,omitempty"`
	ClinicLocation  *Location `bson:"clinicLocation,omitempty" json:"clinicLocation,omitempty"`
}

type Patient struct {
	ID     string `bson:"id" json:"id"`
	Name   string `bson:"name" json:"name"`
	Email  string `bson:"email,omitempty" json:"email,omitempty"`
	Phone  string `bson:"phone,omitempty" json:"phone,omitempty"`
	Age    int    `bson:"age,omitempty" json:"age,omitempty"`
	Gender string `bson:"gender,omitempty" json:"gender,omitempty"`
}

// DistanceResult describes the trip from the patient to a clinic.
type DistanceResult struct {
	DistanceKm    float64 `json:"distanceKm"`
	DistanceText  string  `json:"distanceText"`
	DurationMin   int     `json:"durationMin"`
	DurationText  string  `json:"durationText"`
	NavigationURL string  `json:"navigationUrl"`
	Estimated     bool    `json:"estimated"`
}
