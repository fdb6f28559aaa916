package schema

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseBeforeCreate(t *testing.T) {
	var b Base
	require.NoError(t, b.BeforeCreate(nil))
	assert.NotEqual(t, uuid.Nil, b.ID)
	assert.Equal(t, uuid.Version(7), b.ID.Version())

	fixed := uuid.New()
	b2 := Base{ID: fixed}
	require.NoError(t, b2.BeforeCreate(nil))
	assert.Equal(t, fixed, b2.ID)
}

func TestEventFacilityRef(t *testing.T) {
	home := &Facility{Name: "Sunrise Home"}
	other := &Facility{Name: "Maple Court"}

	assert.Nil(t, (&Event{}).FacilityRef())
	assert.Equal(t, home, (&Event{Patient: &Patient{Facility: home}}).FacilityRef())
	assert.Equal(t, other, (&Event{Facility: other, Patient: &Patient{Facility: home}}).FacilityRef())
}

func TestEnumValidity(t *testing.T) {
	assert.True(t, RoleViewer.IsValid())
	assert.False(t, Role("owner").IsValid())
	assert.True(t, EventTypeBoth.IsValid())
	assert.False(t, EventType("call").IsValid())
	assert.True(t, IcsTokenPersonal.IsValid())
	assert.True(t, GenderUnknown.IsValid())
	assert.False(t, Gender("x").IsValid())
}
