package vitals

import (
	"strings"
	"time"

	"vitalis/cmd/identity"
)

// Reporting channels a reading may arrive from. Anything else is rejected;
// an empty source defaults to SourceUnknown.
const (
	SourceWeb       = "web"
	SourceArduino   = "arduino"
	SourceSimulator = "simulator"
	SourceUnknown   = "unknown"
)

// MaxNotesLen caps free-text notes attached to a reading.
const MaxNotesLen = 500

func validSource(s string) bool {
	switch s {
	case SourceWeb, SourceArduino, SourceSimulator, SourceUnknown:
		return true
	}
	return false
}

// Physiological bounds for accepted readings. Values outside these ranges are
// sensor garbage, not medical outliers, and are rejected at ingest.
const (
	MinHeartRate = 20
	MaxHeartRate = 220

	MinSystolic = 60
	MaxSystolic = 250

	MinDiastolic = 40
	MaxDiastolic = 150

	MinSpO2 = 50
	MaxSpO2 = 100

	MinTemperatureC = 30.0
	MaxTemperatureC = 43.0

	// Readings may arrive from devices with skewed clocks; anything further
	// ahead than this is rejected.
	maxFutureSkew = 24 * time.Hour
)

// Reading is one vital-sign measurement for a user.
type Reading struct {
	ID           string
	UserID       string
	HeartRate    int
	Systolic     int
	Diastolic    int
	SpO2         int
	TemperatureC float64
	Notes        string
	Source       string
	RecordedAt   time.Time
	CreatedAt    time.Time

	// Risk assessment attached by the predictor. Nil when the predictor was
	// unavailable at ingest time.
	RiskLabel *string
	RiskScore *float64
}

// ReadingInput is the caller-supplied portion of a reading.
type ReadingInput struct {
	HeartRate    int
	Systolic     int
	Diastolic    int
	SpO2         int
	TemperatureC float64

	// Notes is optional free text attached by the reporter.
	Notes string

	// Source names the reporting channel. Empty means SourceUnknown.
	Source string

	// RecordedAt is when the measurement was taken. Zero means "now".
	RecordedAt time.Time
}

// ValidationError lists the range rules an input violated.
type ValidationError struct {
	Fields []FieldError
}

// FieldError names one out-of-range input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "vitals: invalid reading"
	}
	return "vitals: invalid reading: " + e.Fields[0].Field + ": " + e.Fields[0].Message
}

// Validate checks every range rule and returns the full list of violations.
func (in ReadingInput) Validate(now time.Time) *ValidationError {
	var errs []FieldError

	if in.HeartRate < MinHeartRate || in.HeartRate > MaxHeartRate {
		errs = append(errs, FieldError{Field: "heart_rate", Message: "must be between 20 and 220"})
	}
	if in.Systolic < MinSystolic || in.Systolic > MaxSystolic {
		errs = append(errs, FieldError{Field: "systolic", Message: "must be between 60 and 250"})
	}
	if in.Diastolic < MinDiastolic || in.Diastolic > MaxDiastolic {
		errs = append(errs, FieldError{Field: "diastolic", Message: "must be between 40 and 150"})
	}
	if in.SpO2 < MinSpO2 || in.SpO2 > MaxSpO2 {
		errs = append(errs, FieldError{Field: "spo2", Message: "must be between 50 and 100"})
	}
	if in.TemperatureC < MinTemperatureC || in.TemperatureC > MaxTemperatureC {
		errs = append(errs, FieldError{Field: "temperature_c", Message: "must be between 30.0 and 43.0"})
	}
	if in.Source != "" && !validSource(in.Source) {
		errs = append(errs, FieldError{Field: "source", Message: "must be one of web, arduino, simulator, unknown"})
	}
	if len(in.Notes) > MaxNotesLen {
		errs = append(errs, FieldError{Field: "notes", Message: "must be at most 500 characters"})
	}
	if !in.RecordedAt.IsZero() && in.RecordedAt.After(now.Add(maxFutureSkew)) {
		errs = append(errs, FieldError{Field: "recorded_at", Message: "timestamp too far in the future"})
	}

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

// NewReading builds a validated Reading for userID from in.
func NewReading(now time.Time, userID string, in ReadingInput) (Reading, error) {
	if verr := in.Validate(now); verr != nil {
		return Reading{}, verr
	}

	recordedAt := in.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = now
	}

	source := in.Source
	if source == "" {
		source = SourceUnknown
	}

	id, err := identity.NewULID(now)
	if err != nil {
		return Reading{}, err
	}

	return Reading{
		ID:           id,
		UserID:       userID,
		HeartRate:    in.HeartRate,
		Systolic:     in.Systolic,
		Diastolic:    in.Diastolic,
		SpO2:         in.SpO2,
		TemperatureC: in.TemperatureC,
		Notes:        strings.TrimSpace(in.Notes),
		Source:       source,
		RecordedAt:   recordedAt.UTC(),
		CreatedAt:    now.UTC(),
	}, nil
}
