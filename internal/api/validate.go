// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package api

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/pdiddy/neighborfit/pkg/types"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// getValidator returns the shared validator. Field errors carry JSON names
// so they can be echoed back to clients.
func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// prefsInput mirrors types.Preferences with pointers so an absent rating
// can be told apart from an out-of-range one.
type prefsInput struct {
	Safety          *float64 `json:"safety" validate:"required,gte=1,lte=5"`
	Walkability     *float64 `json:"walkability" validate:"required,gte=1,lte=5"`
	Healthcare      *float64 `json:"healthcare" validate:"required,gte=1,lte=5"`
	FastInternet    *float64 `json:"fastInternet" validate:"required,gte=1,lte=5"`
	Affordability   *float64 `json:"affordability" validate:"required,gte=1,lte=5"`
	Restaurants     *float64 `json:"restaurants" validate:"required,gte=1,lte=5"`
	PublicTransport *float64 `json:"publicTransport" validate:"required,gte=1,lte=5"`
	ParksGreenery   *float64 `json:"parksGreenery" validate:"required,gte=1,lte=5"`
}

func (p *prefsInput) preferences() types.Preferences {
	val := func(v *float64) float64 {
		if v == nil {
			return 0
		}
		return *v
	}
	return types.Preferences{
		Safety:          val(p.Safety),
		Walkability:     val(p.Walkability),
		Healthcare:      val(p.Healthcare),
		FastInternet:    val(p.FastInternet),
		Affordability:   val(p.Affordability),
		Restaurants:     val(p.Restaurants),
		PublicTransport: val(p.PublicTransport),
		ParksGreenery:   val(p.ParksGreenery),
	}
}

type matchRequest struct {
	UserPrefs       *prefsInput `json:"userPrefs" validate:"required"`
	UseRealTimeData bool        `json:"useRealTimeData"`
	City            string      `json:"city" validate:"omitempty,max=100"`
	Limit           int         `json:"limit" validate:"omitempty,gte=1,lte=50"`
}

// fieldProblems splits validation failures into absent and invalid fields.
type fieldProblems struct {
	Missing []string
	Invalid []string
}

func (p fieldProblems) empty() bool { return len(p.Missing) == 0 && len(p.Invalid) == 0 }

func validateMatchRequest(req *matchRequest) (fieldProblems, error) {
	var probs fieldProblems
	err := getValidator().Struct(req)
	if err == nil {
		return probs, nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return probs, err
	}
	for _, fe := range verrs {
		switch {
		case fe.Field() == "userPrefs":
			for _, f := range types.Factors {
				probs.Missing = append(probs.Missing, string(f))
			}
		case fe.Tag() == "required":
			probs.Missing = append(probs.Missing, fe.Field())
		default:
			probs.Invalid = append(probs.Invalid, fe.Field())
		}
	}
	return probs, nil
}
