// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/neighborfit/pkg/types"
)

type countryResponse struct {
	Population int64    `json:"population"`
	Capital    []string `json:"capital"`
	Region     string   `json:"region"`
}

var errNoCountry = errors.New("no country data returned")

// indiaStates is the static state population table reported with Indian
// demographics.
var indiaStates = []types.StatePopulation{
	{Name: "Maharashtra", Population: 112374333},
	{Name: "Delhi", Population: 16787941},
	{Name: "Karnataka", Population: 67562686},
	{Name: "Tamil Nadu", Population: 72147030},
	{Name: "Gujarat", Population: 60439692},
	{Name: "Uttar Pradesh", Population: 199812341},
	{Name: "West Bengal", Population: 91276115},
	{Name: "Telangana", Population: 35193978},
}

const (
	indiaPopulation = 1380004385
	indiaCapital    = "New Delhi"
	indiaRegion     = "Asia"
)

func isIndia(country string) bool {
	return strings.EqualFold(country, "India")
}

// DemographicsKey is the cache key for a demographics lookup.
func DemographicsKey(country, category string) string {
	return "demographics_" + strings.ToLower(country) + "_" + category
}

// FallbackDemographics is served when REST Countries is unreachable. Only
// India has a static table; other countries fall back to an empty record.
func FallbackDemographics(country, category string) types.DemographicsResult {
	res := types.DemographicsResult{Category: category, Source: types.FromFallback}
	if isIndia(country) {
		res.TotalPopulation = indiaPopulation
		res.States = append([]types.StatePopulation(nil), indiaStates...)
		res.Capital = indiaCapital
		res.Region = indiaRegion
	}
	return res
}

// Demographics reads country-level data for the configured country. An empty
// category uses the configured default.
func (c *Client) Demographics(ctx context.Context, category string) types.DemographicsResult {
	if category == "" {
		category = c.cfg.DemographicsCategory
	}
	country := c.cfg.Country
	key := DemographicsKey(country, category)
	return shared(c, key, func() types.DemographicsResult {
		return c.demographics(ctx, country, category, key)
	})
}

func (c *Client) demographics(ctx context.Context, country, category, key string) types.DemographicsResult {
	var res types.DemographicsResult
	if c.cached(types.SourceDemographics, key, &res) {
		res.Source = types.FromCache
		return res
	}

	data, err := fetch[[]countryResponse](ctx, c, types.SourceDemographics, upstreamRestCountries, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.RestCountriesURL+"/v3.1/name/"+url.PathEscape(country), nil)
	})
	if err == nil && len(data) == 0 {
		err = errNoCountry
	}
	if err != nil {
		c.degraded(types.SourceDemographics, err, "demographics lookup failed, using fallback")
		res = FallbackDemographics(country, category)
		res.UpdatedAt = c.now()
		return res
	}

	d := data[0]
	res = types.DemographicsResult{
		TotalPopulation: d.Population,
		Category:        category,
		Region:          d.Region,
	}
	if len(d.Capital) > 0 {
		res.Capital = d.Capital[0]
	}
	if isIndia(country) {
		res.States = append([]types.StatePopulation(nil), indiaStates[:5]...)
	}
	res.UpdatedAt = c.now()
	res.Source = types.FromAPI
	c.remember(types.SourceDemographics, key, res)
	return res
}
