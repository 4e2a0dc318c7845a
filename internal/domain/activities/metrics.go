package activities

import "math"

// PercentComplete is how far an activity is towards done, in [0, 100].
// loggedTotal is the sum of the values recorded against it.
func PercentComplete(a Activity, loggedTotal float64) float64 {
	switch a.MeasurementType {
	case MeasurementUnits:
		if a.TargetValue == nil || *a.TargetValue <= 0 {
			return 0
		}
		return Round1(math.Min(loggedTotal / *a.TargetValue * 100, 100))
	case MeasurementPercentage:
		if a.ManualPercentage == nil {
			return 0
		}
		return math.Min(*a.ManualPercentage, 100)
	default:
		if a.Status == StatusCompleted {
			return 100
		}
		return 0
	}
}

// CurrentValue is the activity's progress in its own unit.
func CurrentValue(a Activity, loggedTotal float64) float64 {
	switch a.MeasurementType {
	case MeasurementUnits:
		return loggedTotal
	case MeasurementPercentage:
		if a.ManualPercentage == nil {
			return 0
		}
		return *a.ManualPercentage
	default:
		if a.Status == StatusCompleted {
			return 1
		}
		return 0
	}
}

// DisplayProgress is the number shown in activity lists: the logged amount
// for unit-measured activities and the percentage otherwise.
func DisplayProgress(a Activity, loggedTotal float64) float64 {
	if a.MeasurementType == MeasurementUnits {
		return CurrentValue(a, loggedTotal)
	}
	return PercentComplete(a, loggedTotal)
}

// Round1 rounds half away from zero to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
