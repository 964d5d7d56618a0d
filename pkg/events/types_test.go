package events

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvent_JSONWireForm(t *testing.T) {
	key := uuid.MustParse("7f4c2ab4-3b5e-4f0e-9d8c-0a1b2c3d4e5f")
	evt := New(EventTrashed, CategoryDocument, key)

	data, err := json.Marshal(evt)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"eventType":"Trashed","eventSource":"Document","key":"7f4c2ab4-3b5e-4f0e-9d8c-0a1b2c3d4e5f"}`,
		string(data))
}

func TestGroupName(t *testing.T) {
	for _, c := range AllCategories() {
		group, ok := GroupName(c)
		assert.True(t, ok, "category %s has no group", c)
		assert.Equal(t, "group:"+string(c), group)
	}

	_, ok := GroupName(Category("Nope"))
	assert.False(t, ok)
}

func TestGroupName_Unique(t *testing.T) {
	seen := make(map[string]Category)
	for _, c := range AllCategories() {
		group, _ := GroupName(c)
		if other, dup := seen[group]; dup {
			t.Fatalf("categories %s and %s share group %s", c, other, group)
		}
		seen[group] = c
	}
}

func TestAllCategories_ReturnsCopy(t *testing.T) {
	cats := AllCategories()
	cats[0] = "Mutated"
	assert.Equal(t, CategoryDocument, AllCategories()[0])
}

func TestValid(t *testing.T) {
	assert.True(t, CategoryCurrentUser.Valid())
	assert.False(t, Category("").Valid())

	assert.True(t, EventCreated.Valid())
	assert.True(t, EventTrashed.Valid())
	assert.False(t, EventType("Moved").Valid())
}
