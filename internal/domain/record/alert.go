// internal/domain/record/alert.go

package record

// Urgency ranks how quickly an alert needs attention
type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

// UrgencyOrder lists urgencies from least to most urgent
var UrgencyOrder = []string{
	string(UrgencyLow),
	string(UrgencyMedium),
	string(UrgencyHigh),
	string(UrgencyCritical),
}

// Valid reports whether u is a known urgency
func (u Urgency) Valid() bool {
	for _, v := range UrgencyOrder {
		if string(u) == v {
			return true
		}
	}
	return false
}

// AlertType categorizes an alert
type AlertType string

const (
	AlertLostPet       AlertType = "lost_pet"
	AlertFoundPet      AlertType = "found_pet"
	AlertInjuredAnimal AlertType = "injured_animal"
	AlertAbuseReport   AlertType = "abuse_report"
	AlertRescueNeeded  AlertType = "rescue_needed"
)

// AlertTypes lists every known alert type
var AlertTypes = []AlertType{
	AlertLostPet,
	AlertFoundPet,
	AlertInjuredAnimal,
	AlertAbuseReport,
	AlertRescueNeeded,
}

// Alert statuses
const (
	AlertStatusActive   = "active"
	AlertStatusResolved = "resolved"
	AlertStatusExpired  = "expired"
)

// Alert field keys
const (
	FieldAlertType = "type"
	FieldUrgency   = "urgency"
	FieldRadius    = "radius"
)

// Alert radius-of-relevance bounds in kilometers
const (
	DefaultAlertRadiusKm = 10.0
	MinAlertRadiusKm     = 1.0
	MaxAlertRadiusKm     = 100.0
)

// Alert is a geo-scoped notice about an animal in need
type Alert struct {
	Base        `bson:",inline"`
	Title       string    `bson:"title" json:"title"`
	Description string    `bson:"description,omitempty" json:"description,omitempty"`
	Type        AlertType `bson:"type" json:"type"`
	Urgency     Urgency   `bson:"urgency" json:"urgency"`
	RadiusKm    float64   `bson:"radius" json:"radius"`
}

// Field returns a filterable attribute by key
func (a *Alert) Field(name string) (any, bool) {
	switch name {
	case FieldAlertType:
		return string(a.Type), true
	case FieldUrgency:
		return string(a.Urgency), true
	case FieldRadius:
		return a.RelevanceRadiusKm(), true
	}
	return a.Base.field(name)
}

// RelevanceRadiusKm returns the alert's radius of relevance clamped to its bounds
func (a *Alert) RelevanceRadiusKm() float64 {
	switch {
	case a.RadiusKm == 0:
		return DefaultAlertRadiusKm
	case a.RadiusKm < MinAlertRadiusKm:
		return MinAlertRadiusKm
	case a.RadiusKm > MaxAlertRadiusKm:
		return MaxAlertRadiusKm
	}
	return a.RadiusKm
}

// Clone returns a copy safe to annotate per query
func (a *Alert) Clone() *Alert {
	c := *a
	c.Base = a.Base.clone()
	return &c
}
