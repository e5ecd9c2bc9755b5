// internal/domain/record/vet.go

package record

// Vet field keys
const (
	FieldSpecialization       = "specialization"
	FieldIsEmergencyAvailable = "isEmergencyAvailable"
	FieldIs24Hours            = "is24Hours"
	FieldRating               = "rating"
)

// Vet is a veterinary directory entry
type Vet struct {
	Base                 `bson:",inline"`
	ClinicName           string   `bson:"clinicName" json:"clinicName"`
	Phone                string   `bson:"phone,omitempty" json:"phone,omitempty"`
	Address              string   `bson:"address,omitempty" json:"address,omitempty"`
	Specialization       []string `bson:"specialization,omitempty" json:"specialization,omitempty"`
	IsEmergencyAvailable bool     `bson:"isEmergencyAvailable" json:"isEmergencyAvailable"`
	Is24Hours            bool     `bson:"is24Hours" json:"is24Hours"`
	Rating               float64  `bson:"rating" json:"rating"`
}

// Field returns a filterable attribute by key
func (v *Vet) Field(name string) (any, bool) {
	switch name {
	case FieldSpecialization:
		return v.Specialization, true
	case FieldIsEmergencyAvailable:
		return v.IsEmergencyAvailable, true
	case FieldIs24Hours:
		return v.Is24Hours, true
	case FieldRating:
		return v.Rating, true
	}
	return v.Base.field(name)
}

// Clone returns a copy safe to annotate per query
func (v *Vet) Clone() *Vet {
	c := *v
	c.Base = v.Base.clone()
	c.Specialization = append([]string(nil), v.Specialization...)
	return &c
}
