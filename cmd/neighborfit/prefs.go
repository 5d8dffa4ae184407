// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/neighborfit/pkg/types"
)

// parsePrefs reads "safety=5,walkability=3,..." into Preferences.
func parsePrefs(s string) (types.Preferences, error) {
	var p types.Preferences
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, raw, ok := strings.Cut(pair, "=")
		if !ok {
			return p, fmt.Errorf("preference %q: want name=value", pair)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return p, fmt.Errorf("preference %q: %w", pair, err)
		}
		if !p.Set(types.Factor(strings.TrimSpace(name)), v) {
			return p, fmt.Errorf("unknown preference %q (want one of %s)", name, factorNames())
		}
	}
	return p, nil
}

// readPrefsFile loads Preferences from a JSON or YAML object.
func readPrefsFile(path string) (types.Preferences, error) {
	var p types.Preferences
	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("reading preferences: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &p)
	default:
		err = json.Unmarshal(data, &p)
	}
	if err != nil {
		return p, fmt.Errorf("parsing preferences %s: %w", path, err)
	}
	return p, nil
}

// validatePrefs requires every factor rated between 1 and 5.
func validatePrefs(p types.Preferences) error {
	err := validator.New().Struct(p)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	var missing, invalid []string
	for _, fe := range verrs {
		name := jsonName(fe.StructField())
		if fe.Tag() == "required" {
			missing = append(missing, name)
		} else {
			invalid = append(invalid, name)
		}
	}
	var msgs []string
	if len(missing) > 0 {
		msgs = append(msgs, "missing: "+strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		msgs = append(msgs, "must be between 1 and 5: "+strings.Join(invalid, ", "))
	}
	return errors.New("preferences " + strings.Join(msgs, "; "))
}

func jsonName(field string) string {
	for _, f := range types.Factors {
		if strings.EqualFold(string(f), field) {
			return string(f)
		}
	}
	return field
}

func factorNames() string {
	names := make([]string, len(types.Factors))
	for i, f := range types.Factors {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}
