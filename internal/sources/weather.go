// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/pdiddy/neighborfit/pkg/types"
)

type forecastResponse struct {
	Current *struct {
		Temperature   *float64 `json:"temperature_2m"`
		Humidity      *float64 `json:"relative_humidity_2m"`
		Apparent      *float64 `json:"apparent_temperature"`
		Precipitation *float64 `json:"precipitation"`
		WeatherCode   *int     `json:"weather_code"`
	} `json:"current"`
}

type airQualityResponse struct {
	Hourly struct {
		EuropeanAQI []*float64 `json:"european_aqi"`
	} `json:"hourly"`
}

var errNoForecast = errors.New("forecast has no current conditions")

// Weather defaults, used for missing fields and for the fallback record.
const (
	defaultTemperature = 25
	defaultHumidity    = 60
	defaultDescription = "Partly cloudy"
)

// weatherCodes maps WMO weather interpretation codes to descriptions.
var weatherCodes = map[int]string{
	0:  "Clear sky",
	1:  "Mainly clear",
	2:  "Partly cloudy",
	3:  "Overcast",
	45: "Foggy",
	48: "Depositing rime fog",
	51: "Light drizzle",
	53: "Moderate drizzle",
	55: "Dense drizzle",
	61: "Slight rain",
	63: "Moderate rain",
	65: "Heavy rain",
	71: "Slight snow",
	73: "Moderate snow",
	75: "Heavy snow",
	95: "Thunderstorm",
}

// describeWeather returns the description for a WMO code.
func describeWeather(code *int) string {
	if code == nil {
		return defaultDescription
	}
	if d, ok := weatherCodes[*code]; ok {
		return d
	}
	return defaultDescription
}

// WeatherKey is the cache key for a weather reading.
func WeatherKey(lat, lon float64) string {
	return "weather_" + coord(lat) + "_" + coord(lon)
}

// FallbackWeather is served when the forecast upstream is unreachable.
func FallbackWeather() types.WeatherResult {
	return types.WeatherResult{
		Temperature:     defaultTemperature,
		Humidity:        defaultHumidity,
		Precipitation:   0,
		Description:     defaultDescription,
		AirQualityIndex: types.Float(types.DefaultAQI),
		Source:          types.FromFallback,
	}
}

// Weather reads current conditions and the European AQI at a point. Both
// calls share the weather queue. A failed air-quality call leaves the AQI
// unknown but keeps the forecast; that reading is not cached.
func (c *Client) Weather(ctx context.Context, lat, lon float64) types.WeatherResult {
	key := WeatherKey(lat, lon)
	return shared(c, key, func() types.WeatherResult {
		return c.weather(ctx, lat, lon, key)
	})
}

func (c *Client) weather(ctx context.Context, lat, lon float64, key string) types.WeatherResult {
	var res types.WeatherResult
	if c.cached(types.SourceWeather, key, &res) {
		res.Source = types.FromCache
		return res
	}

	fq := pointQuery(lat, lon)
	fq.Set("current", "temperature_2m,relative_humidity_2m,apparent_temperature,precipitation,weather_code")
	fq.Set("timezone", "auto")
	fq.Set("forecast_days", "1")

	raw, err := fetch[forecastResponse](ctx, c, types.SourceWeather, upstreamOpenMeteo, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.OpenMeteoURL+"/v1/forecast?"+fq.Encode(), nil)
	})
	var forecast types.WeatherResult
	if err == nil {
		forecast, err = normalizeForecast(raw)
	}
	if err != nil {
		c.degraded(types.SourceWeather, err, "weather lookup failed, using fallback")
		res = FallbackWeather()
		res.UpdatedAt = c.now()
		return res
	}
	res = forecast

	aq := pointQuery(lat, lon)
	aq.Set("hourly", "european_aqi")

	air, err := fetch[airQualityResponse](ctx, c, types.SourceWeather, upstreamAirQuality, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.AirQualityURL+"/v1/air-quality?"+aq.Encode(), nil)
	})
	res.UpdatedAt = c.now()
	res.Source = types.FromAPI
	if err != nil {
		// Not cached: the next lookup retries the AQI instead of serving a
		// reading without it for the whole weather TTL.
		c.log.Info().Err(err).Msg("air quality unavailable, AQI left unknown")
		return res
	}
	res.AirQualityIndex = firstReading(air.Hourly.EuropeanAQI)
	c.remember(types.SourceWeather, key, res)
	return res
}

func pointQuery(lat, lon float64) url.Values {
	return url.Values{"latitude": {coord(lat)}, "longitude": {coord(lon)}}
}

// normalizeForecast fills missing fields with defaults. A body without a
// current block carries no reading at all and is an error.
func normalizeForecast(f forecastResponse) (types.WeatherResult, error) {
	cur := f.Current
	if cur == nil {
		return types.WeatherResult{}, errNoForecast
	}
	res := types.WeatherResult{
		Temperature: defaultTemperature,
		Humidity:    defaultHumidity,
		Description: defaultDescription,
	}
	if cur.Temperature != nil {
		res.Temperature = *cur.Temperature
	}
	if cur.Humidity != nil {
		res.Humidity = *cur.Humidity
	}
	if cur.Precipitation != nil {
		res.Precipitation = *cur.Precipitation
	}
	res.Description = describeWeather(cur.WeatherCode)
	return res, nil
}

// firstReading returns the earliest non-null hourly value.
func firstReading(values []*float64) *float64 {
	for _, v := range values {
		if v != nil {
			return types.Float(*v)
		}
	}
	return nil
}
