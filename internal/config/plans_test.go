package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlanCatalogLabel(t *testing.T) {
	catalog := PlanCatalog{Labels: DefaultPlanLabels()}

	cases := []struct {
		name   string
		planID string
		want   string
	}{
		{name: "monthly", planID: "price_1PlV7fE8m3oia4xi6IAJxARU", want: "5 Dollars Per Month"},
		{name: "delayed", planID: "price_1PlVSxE8m3oia4xi8007EBw6", want: "12 Dollars After 3 months"},
		{name: "unknown", planID: "price_other", want: UnknownPlanLabel},
		{name: "empty", planID: "", want: UnknownPlanLabel},
		{name: "malformed", planID: "%%%", want: UnknownPlanLabel},
		{name: "padded", planID: " price_1PlV7fE8m3oia4xi6IAJxARU\n", want: UnknownPlanLabel},
		{name: "case differs", planID: "PRICE_1PlV7fE8m3oia4xi6IAJxARU", want: UnknownPlanLabel},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, catalog.Label(tc.planID))
		})
	}
}

func TestValidatePlanCatalog(t *testing.T) {
	assert.Error(t, validatePlanCatalog(PlanCatalog{}))
	assert.Error(t, validatePlanCatalog(PlanCatalog{Labels: map[string]string{"price_x": " "}}))
	assert.NoError(t, validatePlanCatalog(PlanCatalog{Labels: DefaultPlanLabels()}))
}

func TestStaticPlanCatalogHolder(t *testing.T) {
	holder := NewStaticPlanCatalogHolder(map[string]string{"price_x": "X"})
	assert.Equal(t, "X", holder.Get().Label("price_x"))
	assert.Equal(t, UnknownPlanLabel, holder.Get().Label("price_1PlV7fE8m3oia4xi6IAJxARU"))
}
