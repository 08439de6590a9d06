package weather

import (
	"fmt"
	"math"
	"strings"
)

// Scale is a temperature scale.
type Scale string

const (
	Celsius    Scale = "celsius"
	Fahrenheit Scale = "fahrenheit"
	Kelvin     Scale = "kelvin"
)

// ToFahrenheit converts Celsius to Fahrenheit.
func ToFahrenheit(c float64) float64 { return c*9/5 + 32 }

// ToCelsius converts Fahrenheit to Celsius.
func ToCelsius(f float64) float64 { return (f - 32) * 5 / 9 }

// ConvertTemperature converts v between scales. Matching or unknown
// scales return v unchanged.
func ConvertTemperature(v float64, from, to Scale) float64 {
	if from == to {
		return v
	}
	var c float64
	switch from {
	case Celsius:
		c = v
	case Fahrenheit:
		c = ToCelsius(v)
	case Kelvin:
		c = v - 273.15
	default:
		return v
	}
	switch to {
	case Celsius:
		return c
	case Fahrenheit:
		return ToFahrenheit(c)
	case Kelvin:
		return c + 273.15
	default:
		return v
	}
}

// ScaleForUnits maps an OpenWeatherMap units value to the scale its
// temperatures are reported in.
func ScaleForUnits(units string) (Scale, error) {
	switch strings.ToLower(strings.TrimSpace(units)) {
	case "metric":
		return Celsius, nil
	case "imperial":
		return Fahrenheit, nil
	case "standard", "":
		return Kelvin, nil
	default:
		return "", fmt.Errorf("weather: unknown units %q", units)
	}
}

// Symbol returns the display suffix for s.
func (s Scale) Symbol() string {
	switch s {
	case Celsius:
		return "°C"
	case Fahrenheit:
		return "°F"
	case Kelvin:
		return "K"
	default:
		return ""
	}
}

var compass = [16]string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// WindDirection buckets a bearing in degrees into one of 16 compass points.
// Bearings outside [0, 360) are wrapped first.
func WindDirection(deg float64) string {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return compass[int(math.Round(deg/22.5))%16]
}

// UVIndexLevel names the exposure category for a UV index.
func UVIndexLevel(uvi float64) string {
	switch {
	case uvi <= 2:
		return "Low"
	case uvi <= 5:
		return "Moderate"
	case uvi <= 7:
		return "High"
	case uvi <= 10:
		return "Very High"
	default:
		return "Extreme"
	}
}

// Advice returns a one-line suggestion for the conditions. Temperatures in
// c are read in scale.
func Advice(c Current, scale Scale) string {
	main := strings.ToLower(c.Condition().Main)
	temp := ConvertTemperature(c.Main.Temp, scale, Celsius)
	switch {
	case strings.Contains(main, "rain"):
		return "Don't forget your umbrella!"
	case strings.Contains(main, "snow"):
		return "Bundle up and drive safely!"
	case temp > 30:
		return "Stay hydrated and avoid sun exposure!"
	case temp < 5:
		return "Wear warm layers today!"
	default:
		return "Perfect weather to go outside!"
	}
}
