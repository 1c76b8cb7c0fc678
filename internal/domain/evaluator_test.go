package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fardannozami/scoopquest/internal/domain"
)

var evalNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func TestEvaluate_SaturatesAtTarget(t *testing.T) {
	obj := domain.Objective{ID: "o1", Type: domain.ObjectiveTryFlavor, TargetCount: 3}
	cur := domain.ObjectiveProgress{ObjectiveID: "o1"}

	for i := 0; i < 1000; i++ {
		cur, _ = domain.Evaluate(cur, obj, domain.ActivityPayload{}, evalNow)
	}

	assert.Equal(t, 3, cur.CurrentCount)
	assert.True(t, cur.IsCompleted)
}

func TestEvaluate_NoChangeOnceSaturated(t *testing.T) {
	obj := domain.Objective{ID: "o1", Type: domain.ObjectiveVisitShop, TargetCount: 1}
	cur := domain.ObjectiveProgress{ObjectiveID: "o1", CurrentCount: 1, IsCompleted: true, LastUpdated: evalNow.Add(-time.Hour)}

	next, changed := domain.Evaluate(cur, obj, domain.ActivityPayload{}, evalNow)

	assert.False(t, changed)
	assert.Equal(t, cur, next)
}

func TestEvaluate_BatchIncrement(t *testing.T) {
	obj := domain.Objective{ID: "r", Type: domain.ObjectiveLogReviews, TargetCount: 5}

	next, changed := domain.Evaluate(domain.ObjectiveProgress{}, obj, domain.ActivityPayload{Increment: 3}, evalNow)
	assert.True(t, changed)
	assert.Equal(t, 3, next.CurrentCount)
	assert.False(t, next.IsCompleted)
	assert.Equal(t, evalNow, next.LastUpdated)

	next, _ = domain.Evaluate(next, obj, domain.ActivityPayload{Increment: 3}, evalNow)
	assert.Equal(t, 5, next.CurrentCount)
	assert.True(t, next.IsCompleted)
}

func TestEvaluate_EarnPointsUsesPointAmount(t *testing.T) {
	obj := domain.Objective{ID: "p", Type: domain.ObjectiveEarnPoints, TargetCount: 250}

	next, _ := domain.Evaluate(domain.ObjectiveProgress{}, obj, domain.ActivityPayload{Points: 100, Increment: 7}, evalNow)
	assert.Equal(t, 100, next.CurrentCount)

	next, _ = domain.Evaluate(next, obj, domain.ActivityPayload{Points: 100}, evalNow)
	assert.Equal(t, 200, next.CurrentCount)
	assert.False(t, next.IsCompleted)

	next, _ = domain.Evaluate(next, obj, domain.ActivityPayload{Points: 100}, evalNow)
	assert.Equal(t, 250, next.CurrentCount)
	assert.True(t, next.IsCompleted)
}

func TestEvaluate_NeverDecrements(t *testing.T) {
	obj := domain.Objective{ID: "p", Type: domain.ObjectiveEarnPoints, TargetCount: 100}
	cur := domain.ObjectiveProgress{ObjectiveID: "p", CurrentCount: 40}

	next, changed := domain.Evaluate(cur, obj, domain.ActivityPayload{Points: -30}, evalNow)

	assert.False(t, changed)
	assert.Equal(t, 40, next.CurrentCount)
}

func TestMatches(t *testing.T) {
	tests := []struct {
		name  string
		obj   domain.Objective
		event domain.ObjectiveType
		p     domain.ActivityPayload
		want  bool
	}{
		{
			name:  "type mismatch",
			obj:   domain.Objective{Type: domain.ObjectiveVisitShop},
			event: domain.ObjectiveTryFlavor,
			want:  false,
		},
		{
			name:  "shop matcher hit",
			obj:   domain.Objective{Type: domain.ObjectiveVisitShop, ShopID: "shop-42"},
			event: domain.ObjectiveVisitShop,
			p:     domain.ActivityPayload{ShopID: "shop-42"},
			want:  true,
		},
		{
			name:  "shop matcher miss",
			obj:   domain.Objective{Type: domain.ObjectiveVisitShop, ShopID: "shop-42"},
			event: domain.ObjectiveVisitShop,
			p:     domain.ActivityPayload{ShopID: "shop-7"},
			want:  false,
		},
		{
			name:  "any shop",
			obj:   domain.Objective{Type: domain.ObjectiveVisitShop},
			event: domain.ObjectiveVisitShop,
			p:     domain.ActivityPayload{ShopID: "shop-7"},
			want:  true,
		},
		{
			name:  "category is case-insensitive",
			obj:   domain.Objective{Type: domain.ObjectiveTryFlavorCategory, Category: "chocolate"},
			event: domain.ObjectiveTryFlavorCategory,
			p:     domain.ActivityPayload{Category: "Chocolate"},
			want:  true,
		},
		{
			name:  "category event without category",
			obj:   domain.Objective{Type: domain.ObjectiveTryFlavorCategory},
			event: domain.ObjectiveTryFlavorCategory,
			want:  false,
		},
		{
			name:  "flavor id",
			obj:   domain.Objective{Type: domain.ObjectiveTryFlavor, FlavorID: "mint"},
			event: domain.ObjectiveTryFlavor,
			p:     domain.ActivityPayload{FlavorID: "vanilla"},
			want:  false,
		},
		{
			name:  "location inside radius",
			obj:   domain.Objective{Type: domain.ObjectiveVisitLocation, Latitude: -6.2, Longitude: 106.8, RadiusMeters: 500},
			event: domain.ObjectiveVisitLocation,
			p:     domain.ActivityPayload{Latitude: -6.201, Longitude: 106.801, HasLocation: true},
			want:  true,
		},
		{
			name:  "location outside radius",
			obj:   domain.Objective{Type: domain.ObjectiveVisitLocation, Latitude: -6.2, Longitude: 106.8, RadiusMeters: 500},
			event: domain.ObjectiveVisitLocation,
			p:     domain.ActivityPayload{Latitude: -6.3, Longitude: 106.8, HasLocation: true},
			want:  false,
		},
		{
			name:  "location required when radius set",
			obj:   domain.Objective{Type: domain.ObjectiveVisitLocation, RadiusMeters: 500},
			event: domain.ObjectiveVisitLocation,
			want:  false,
		},
		{
			name:  "earn points needs points",
			obj:   domain.Objective{Type: domain.ObjectiveEarnPoints},
			event: domain.ObjectiveEarnPoints,
			want:  false,
		},
		{
			name:  "custom key",
			obj:   domain.Objective{Type: domain.ObjectiveCustom, CustomKey: "share"},
			event: domain.ObjectiveCustom,
			p:     domain.ActivityPayload{CustomKey: "share"},
			want:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.Matches(tt.obj, tt.event, tt.p))
		})
	}
}

func TestDistanceMeters(t *testing.T) {
	// One degree of latitude is ~111.2 km.
	d := domain.DistanceMeters(0, 0, 1, 0)
	assert.InDelta(t, 111195, d, 100)
	assert.Zero(t, domain.DistanceMeters(10, 20, 10, 20))
}
