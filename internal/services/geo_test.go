package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"festival-cleanup-backend/internal/models"
)

func TestHaversineMeters(t *testing.T) {
	// Two points near Tokyo Tower, roughly 290m apart.
	d := haversineMeters(35.6586, 139.7454, 35.6575, 139.7483)
	assert.InDelta(t, 290, d, 200)

	assert.Zero(t, haversineMeters(35.0, 139.0, 35.0, 139.0))
}

func TestInsideFestival(t *testing.T) {
	lat, lng := 35.6586, 139.7454
	near, nearLng := 35.6590, 139.7460
	far, farLng := 34.6937, 135.5023

	open := &models.Festival{}
	assert.True(t, insideFestival(open, &far, &farLng))
	assert.True(t, insideFestival(open, nil, nil))

	fenced := &models.Festival{CenterLat: &lat, CenterLng: &lng}
	assert.True(t, insideFestival(fenced, &near, &nearLng))
	assert.False(t, insideFestival(fenced, &far, &farLng))
	assert.False(t, insideFestival(fenced, nil, nil))
	assert.False(t, insideFestival(fenced, &near, nil))

	tight := 10
	fenced.RadiusMeters = &tight
	assert.False(t, insideFestival(fenced, &near, &nearLng))
}
