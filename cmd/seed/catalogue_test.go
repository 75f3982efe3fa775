package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/medifly/internal/core/domain"
)

func TestParseCatalogue_Defaults(t *testing.T) {
	in := `{
		"pharmacies": [{"name": "MG Road Pharmacy", "address": "12 MG Road", "lat": 12.975, "lon": 77.606}],
		"medicines": [
			{"name": "Paracetamol 500mg", "category": "Pain Relief", "price": 30},
			{"id": "m-fixed", "name": "Cetirizine", "category": "Allergy", "price": 45, "in_stock": false}
		]
	}`

	pharmacies, medicines, err := parseCatalogue(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, pharmacies, 1)
	require.Len(t, medicines, 2)

	p := pharmacies[0]
	assert.True(t, p.Active)
	assert.Equal(t, domain.DefaultPharmacyRating, p.Rating)
	assert.Equal(t, domain.DefaultOpenHours, p.OpenHours)
	assert.NotEmpty(t, p.ID)

	assert.True(t, medicines[0].InStock)
	assert.Equal(t, "m-fixed", medicines[1].ID)
	assert.False(t, medicines[1].InStock)
}

func TestParseCatalogue_StableIDs(t *testing.T) {
	in := `{"medicines": [{"name": "Aspirin", "category": "Pain Relief", "price": 10}]}`

	_, a, err := parseCatalogue(strings.NewReader(in))
	require.NoError(t, err)
	_, b, err := parseCatalogue(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, a[0].ID, b[0].ID)
}

func TestParseCatalogue_Invalid(t *testing.T) {
	cases := map[string]string{
		"garbage":        `{`,
		"no name":        `{"medicines": [{"category": "X", "price": 1}]}`,
		"negative price": `{"medicines": [{"name": "A", "category": "X", "price": -1}]}`,
		"bad coords":     `{"pharmacies": [{"name": "P", "lat": 91, "lon": 0}]}`,
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := parseCatalogue(strings.NewReader(in))
			assert.Error(t, err)
		})
	}
}
