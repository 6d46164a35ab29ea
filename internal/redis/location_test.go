package redis

import (
	"testing"

	"ridehail/internal/domain"
)

func TestMatchesPresence(t *testing.T) {
	base := map[string]string{
		"available":    "1",
		"vehicle_type": "auto",
		"gender":       "female",
	}
	with := func(k, v string) map[string]string {
		m := make(map[string]string, len(base))
		for key, val := range base {
			m[key] = val
		}
		m[k] = v
		return m
	}

	tests := []struct {
		name   string
		fields map[string]string
		filter domain.CandidateFilter
		want   bool
	}{
		{"match", base, domain.CandidateFilter{VehicleType: domain.VehicleAuto}, true},
		{"unavailable", with("available", "0"), domain.CandidateFilter{VehicleType: domain.VehicleAuto}, false},
		{"other vehicle", base, domain.CandidateFilter{VehicleType: domain.VehicleCar}, false},
		{"gender match", base, domain.CandidateFilter{VehicleType: domain.VehicleAuto, GenderPreference: domain.GenderFemale}, true},
		{"gender mismatch", base, domain.CandidateFilter{VehicleType: domain.VehicleAuto, GenderPreference: domain.GenderMale}, false},
		{"any gender", with("gender", ""), domain.CandidateFilter{VehicleType: domain.VehicleAuto, GenderPreference: domain.GenderAny}, true},
	}

	for _, tt := range tests {
		if got := matchesPresence(tt.fields, tt.filter); got != tt.want {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, got)
		}
	}
}
