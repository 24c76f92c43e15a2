package domain

// metersPerSecondToKnots is the exact conversion factor used throughout:
// 1 m/s = 1.9438444924 kt.
const metersPerSecondToKnots = 1.9438444924

// MetersPerSecondToKnots converts an SI speed to knots. Pure.
func MetersPerSecondToKnots(mps float64) float64 {
	return mps * metersPerSecondToKnots
}

// Wind speed color buckets for the map-rendering collaborator.
const (
	ColorGreen  = "green"  // calm, under 16 kt
	ColorOrange = "orange" // fresh, 16-24 kt inclusive
	ColorRed    = "red"    // strong, above 24 kt
)

// WindSpeedColor buckets a wind speed for map coloring. Both boundary values
// fall into the orange bucket: 16.00 kt is orange, 24.00 kt is orange.
func WindSpeedColor(kt float64) string {
	switch {
	case kt < 16:
		return ColorGreen
	case kt <= 24:
		return ColorOrange
	default:
		return ColorRed
	}
}
