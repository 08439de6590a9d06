package weather

// DemoCurrent returns the canned London conditions shown when live data is
// unavailable. Temperatures are Celsius.
func DemoCurrent() Current {
	return Current{
		Coord:      Coord{Lat: 51.5074, Lon: -0.1278},
		Conditions: []Condition{{ID: 800, Main: "Clear", Description: "clear sky", Icon: "01d"}},
		Main: Readings{
			Temp:      15,
			FeelsLike: 14,
			Pressure:  1013,
			Humidity:  65,
		},
		Visibility: 10000,
		Wind:       Wind{Speed: 3.5},
		Sys:        Sys{Country: "GB", Sunrise: 1678244400, Sunset: 1678287600},
		Name:       "London",
	}
}
