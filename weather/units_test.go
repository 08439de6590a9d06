package weather

import (
	"math"
	"testing"
)

func TestTemperatureConversion(t *testing.T) {
	if got := ToFahrenheit(0); got != 32 {
		t.Errorf("ToFahrenheit(0) = %v, want 32", got)
	}
	if got := ToCelsius(32); got != 0 {
		t.Errorf("ToCelsius(32) = %v, want 0", got)
	}
	if got := ToFahrenheit(100); got != 212 {
		t.Errorf("ToFahrenheit(100) = %v, want 212", got)
	}
	for _, v := range []float64{-40, -12.3, 0, 15, 36.6, 1e6} {
		if got := ToCelsius(ToFahrenheit(v)); math.Abs(got-v) > 1e-9 {
			t.Errorf("round trip %v = %v", v, got)
		}
	}
}

func TestConvertTemperature(t *testing.T) {
	tests := []struct {
		v        float64
		from, to Scale
		want     float64
	}{
		{v: 21, from: Celsius, to: Celsius, want: 21},
		{v: 100, from: Celsius, to: Fahrenheit, want: 212},
		{v: 212, from: Fahrenheit, to: Celsius, want: 100},
		{v: 273.15, from: Kelvin, to: Celsius, want: 0},
		{v: 0, from: Celsius, to: Kelvin, want: 273.15},
		{v: 32, from: Fahrenheit, to: Kelvin, want: 273.15},
		{v: 7, from: "rankine", to: Celsius, want: 7},
		{v: 7, from: Celsius, to: "rankine", want: 7},
	}
	for _, tt := range tests {
		got := ConvertTemperature(tt.v, tt.from, tt.to)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("ConvertTemperature(%v, %s, %s) = %v, want %v", tt.v, tt.from, tt.to, got, tt.want)
		}
	}
}

func TestScaleForUnits(t *testing.T) {
	tests := []struct {
		units   string
		want    Scale
		wantErr bool
	}{
		{units: "metric", want: Celsius},
		{units: " Imperial ", want: Fahrenheit},
		{units: "standard", want: Kelvin},
		{units: "", want: Kelvin},
		{units: "nautical", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ScaleForUnits(tt.units)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ScaleForUnits(%q) error = %v", tt.units, err)
		}
		if got != tt.want {
			t.Errorf("ScaleForUnits(%q) = %q, want %q", tt.units, got, tt.want)
		}
	}
	if Celsius.Symbol() != "°C" || Fahrenheit.Symbol() != "°F" || Scale("x").Symbol() != "" {
		t.Error("unexpected Symbol()")
	}
}

func TestWindDirection(t *testing.T) {
	tests := []struct {
		deg  float64
		want string
	}{
		{deg: 0, want: "N"},
		{deg: 360, want: "N"},
		{deg: 180, want: "S"},
		{deg: 11.25, want: "NNE"},
		{deg: 11.24, want: "N"},
		{deg: 90, want: "E"},
		{deg: 225, want: "SW"},
		{deg: 348.75, want: "N"},
		{deg: 337.5, want: "NNW"},
		{deg: -22.5, want: "NNW"},
		{deg: 720 + 45, want: "NE"},
	}
	for _, tt := range tests {
		if got := WindDirection(tt.deg); got != tt.want {
			t.Errorf("WindDirection(%v) = %q, want %q", tt.deg, got, tt.want)
		}
	}
}

func TestUVIndexLevel(t *testing.T) {
	tests := []struct {
		uvi  float64
		want string
	}{
		{0, "Low"}, {2, "Low"}, {2.1, "Moderate"}, {5, "Moderate"},
		{6, "High"}, {7, "High"}, {8, "Very High"}, {10, "Very High"}, {11, "Extreme"},
	}
	for _, tt := range tests {
		if got := UVIndexLevel(tt.uvi); got != tt.want {
			t.Errorf("UVIndexLevel(%v) = %q, want %q", tt.uvi, got, tt.want)
		}
	}
}

func TestAdvice(t *testing.T) {
	cur := func(main string, temp float64) Current {
		return Current{Conditions: []Condition{{Main: main}}, Main: Readings{Temp: temp}}
	}

	tests := []struct {
		name  string
		c     Current
		scale Scale
		want  string
	}{
		{name: "rain wins over heat", c: cur("Rain", 35), scale: Celsius, want: "Don't forget your umbrella!"},
		{name: "drizzle is not rain", c: cur("Drizzle", 15), scale: Celsius, want: "Perfect weather to go outside!"},
		{name: "snow", c: cur("Snow", -2), scale: Celsius, want: "Bundle up and drive safely!"},
		{name: "hot", c: cur("Clear", 31), scale: Celsius, want: "Stay hydrated and avoid sun exposure!"},
		{name: "exactly 30 is fine", c: cur("Clear", 30), scale: Celsius, want: "Perfect weather to go outside!"},
		{name: "cold", c: cur("Clouds", 4), scale: Celsius, want: "Wear warm layers today!"},
		{name: "hot in fahrenheit", c: cur("Clear", 95), scale: Fahrenheit, want: "Stay hydrated and avoid sun exposure!"},
		{name: "cold in kelvin", c: cur("Clear", 270), scale: Kelvin, want: "Wear warm layers today!"},
		{name: "no conditions", c: Current{Main: Readings{Temp: 18}}, scale: Celsius, want: "Perfect weather to go outside!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Advice(tt.c, tt.scale); got != tt.want {
				t.Errorf("Advice() = %q, want %q", got, tt.want)
			}
		})
	}
}
