// Package calc computes the body metrics the calculator screen shows: BMI,
// BMR (revised Harris-Benedict) and TDEE.
package calc

import "errors"

var ErrBadInput = errors.New("calc: inputs must be positive")

// ActivityMultipliers maps activity level to the TDEE factor.
var ActivityMultipliers = map[string]float64{
	"sedentary":   1.2,
	"light":       1.375,
	"moderate":    1.55,
	"active":      1.725,
	"very_active": 1.9,
}

// BMI returns weight(kg) / height(m)^2. Height is taken in centimeters.
func BMI(weightKg, heightCm float64) (float64, error) {
	if weightKg <= 0 || heightCm <= 0 {
		return 0, ErrBadInput
	}
	meters := heightCm / 100
	return weightKg / (meters * meters), nil
}

// BMICategory buckets a BMI value.
func BMICategory(bmi float64) string {
	switch {
	case bmi < 18.5:
		return "underweight"
	case bmi < 25:
		return "normal"
	case bmi < 30:
		return "overweight"
	default:
		return "obese"
	}
}

// BMR returns basal metabolic rate (kcal/day), revised Harris-Benedict.
func BMR(gender string, weightKg, heightCm float64, ageYears int) (float64, error) {
	if weightKg <= 0 || heightCm <= 0 || ageYears <= 0 {
		return 0, ErrBadInput
	}
	switch gender {
	case "male":
		return 88.362 + 13.397*weightKg + 4.799*heightCm - 5.677*float64(ageYears), nil
	case "female":
		return 447.593 + 9.247*weightKg + 3.098*heightCm - 4.330*float64(ageYears), nil
	default:
		return 0, errors.New("calc: gender must be male or female")
	}
}

// TDEE scales BMR by the activity multiplier.
func TDEE(bmr float64, activityLevel string) (float64, error) {
	mult, ok := ActivityMultipliers[activityLevel]
	if !ok {
		return 0, errors.New("calc: unknown activity level")
	}
	if bmr <= 0 {
		return 0, ErrBadInput
	}
	return bmr * mult, nil
}

// TargetCalories adjusts TDEE for a goal: a 500 kcal deficit to lose, a 500
// kcal surplus to gain.
func TargetCalories(tdee float64, goal string) float64 {
	switch goal {
	case "lose":
		return tdee - 500
	case "gain":
		return tdee + 500
	default:
		return tdee
	}
}
