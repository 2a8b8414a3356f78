package domain

import (
	"fmt"
	"math"
)

// Triage colours, most urgent first.
const (
	TriageRed    = "red"
	TriageOrange = "orange"
	TriageYellow = "yellow"
	TriageGreen  = "green"
	TriageBlue   = "blue"
	TriageGray   = "gray"
)

// TriageColor maps a triage level (1 = immediate … 5 = non-urgent) to its colour.
func TriageColor(level int) string {
	switch level {
	case 1:
		return TriageRed
	case 2:
		return TriageOrange
	case 3:
		return TriageYellow
	case 4:
		return TriageGreen
	case 5:
		return TriageBlue
	default:
		return TriageGray
	}
}

// Screening is a nurse screening as listed by the backend.
type Screening struct {
	ID          int64   `json:"id"`
	PatientID   int64   `json:"patient_id"`
	PatientName string  `json:"patient_name"`
	TriageLevel int     `json:"triage_level"`
	Complaint   string  `json:"complaint,omitempty"`
	WeightKg    float64 `json:"weight,omitempty"`
	HeightCm    float64 `json:"height,omitempty"`
	CreatedAt   string  `json:"created_at,omitempty"`
}

const (
	BMIUnderweight = "underweight"
	BMINormal      = "normal"
	BMIOverweight  = "overweight"
	BMIObese       = "obese"
)

// BMI is a computed body-mass index with its category.
type BMI struct {
	Value    float64 `json:"value"`
	Category string  `json:"category"`
}

// ComputeBMI returns weight / height² (height in metres) rounded to one decimal.
func ComputeBMI(weightKg, heightCm float64) (BMI, error) {
	if weightKg <= 0 || heightCm <= 0 {
		return BMI{}, fmt.Errorf("%w: weight and height must be positive", ErrInvalidInput)
	}
	m := heightCm / 100
	v := math.Round(weightKg/(m*m)*10) / 10

	var cat string
	switch {
	case v < 18.5:
		cat = BMIUnderweight
	case v < 25:
		cat = BMINormal
	case v < 30:
		cat = BMIOverweight
	default:
		cat = BMIObese
	}
	return BMI{Value: v, Category: cat}, nil
}

// Medicine is a pharmacy stock item.
type Medicine struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Stock int    `json:"stock"`
	Unit  string `json:"unit,omitempty"`
}

const (
	StockOut = "out"
	StockLow = "low"
)

// StockAlert flags a medicine at or below the alert threshold.
type StockAlert struct {
	Medicine
	Level string `json:"level"`
}

// StockAlerts returns the medicines whose stock is at or below threshold,
// in input order. Zero stock is reported as out, the rest as low.
func StockAlerts(items []Medicine, threshold int) []StockAlert {
	alerts := make([]StockAlert, 0)
	for _, m := range items {
		if m.Stock > threshold {
			continue
		}
		level := StockLow
		if m.Stock <= 0 {
			level = StockOut
		}
		alerts = append(alerts, StockAlert{Medicine: m, Level: level})
	}
	return alerts
}
