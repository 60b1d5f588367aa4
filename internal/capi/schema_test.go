package capi_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atylespot/conversions-relay/internal/capi"
)

func floatPtr(v float64) *float64 { return &v }

func intPtr(v int) *int { return &v }

func TestValidate(t *testing.T) {
	t.Run("accepts ViewContent with required fields", func(t *testing.T) {
		result := capi.Validate("ViewContent", capi.CustomData{
			ContentName:     "Shirt",
			ContentCategory: "apparel",
			ContentIDs:      []string{"p1"},
		})

		assert.True(t, result.Valid)
		assert.True(t, result.Known)
		assert.Empty(t, result.Missing)
	})

	t.Run("lists exactly the missing required fields", func(t *testing.T) {
		result := capi.Validate("Purchase", capi.CustomData{
			Currency:   "BDT",
			ContentIDs: []string{"p1"},
		})

		require.False(t, result.Valid)
		assert.Equal(t, []string{"value"}, result.Missing)
		assert.Equal(t, []string{"value", "currency", "content_ids"}, result.Required)
		assert.Contains(t, result.Optional, "order_id")
	})

	t.Run("unknown event names always validate at max score", func(t *testing.T) {
		result := capi.Validate("SomethingCustom", capi.CustomData{})

		assert.True(t, result.Valid)
		assert.False(t, result.Known)
		assert.InDelta(t, 100, result.Score, 0.01)
	})

	t.Run("scores full optional coverage at 100", func(t *testing.T) {
		result := capi.Validate("Purchase", capi.CustomData{
			Value:      floatPtr(1499),
			Currency:   "BDT",
			ContentIDs: []string{"p1"},
			OrderID:    "o123",
			NumItems:   intPtr(2),
			Contents:   []capi.Content{{ID: "p1", Quantity: 2}},
		})

		require.True(t, result.Valid)
		assert.InDelta(t, 100, result.Score, 0.01)
	})

	t.Run("scores bare required coverage at 70", func(t *testing.T) {
		result := capi.Validate("Purchase", capi.CustomData{
			Value:      floatPtr(1499),
			Currency:   "BDT",
			ContentIDs: []string{"p1"},
		})

		require.True(t, result.Valid)
		assert.InDelta(t, 70, result.Score, 0.01)
	})

	t.Run("treats empty strings as absent", func(t *testing.T) {
		result := capi.Validate("Lead", capi.CustomData{ContentName: ""})

		assert.False(t, result.Valid)
		assert.Equal(t, []string{"content_name"}, result.Missing)
	})
}

func TestSchemaFor(t *testing.T) {
	t.Run("returns schema for known event", func(t *testing.T) {
		schema, ok := capi.SchemaFor("Search")

		require.True(t, ok)
		assert.Equal(t, []string{"search_string"}, schema.Required)
	})

	t.Run("reports unknown events", func(t *testing.T) {
		_, ok := capi.SchemaFor("NotAnEvent")

		assert.False(t, ok)
	})
}

func TestRepairPageView(t *testing.T) {
	t.Run("derives content name from referrer path", func(t *testing.T) {
		repaired := capi.RepairPageView("PageView", capi.CustomData{}, "https://shop.example.com/products/blue-shirt")

		assert.Equal(t, "blue-shirt", repaired.ContentName)
		assert.Equal(t, "page", repaired.ContentCategory)

		result := capi.Validate("PageView", repaired)
		assert.True(t, result.Valid)
	})

	t.Run("defaults to Home without a referrer", func(t *testing.T) {
		repaired := capi.RepairPageView("PageView", capi.CustomData{}, "")

		assert.Equal(t, "Home", repaired.ContentName)
	})

	t.Run("defaults to Home for root path", func(t *testing.T) {
		repaired := capi.RepairPageView("PageView", capi.CustomData{}, "https://shop.example.com/")

		assert.Equal(t, "Home", repaired.ContentName)
	})

	t.Run("keeps caller-supplied fields", func(t *testing.T) {
		repaired := capi.RepairPageView("PageView", capi.CustomData{
			ContentName: "Checkout",
		}, "https://shop.example.com/products/blue-shirt")

		assert.Equal(t, "Checkout", repaired.ContentName)
		assert.Equal(t, "page", repaired.ContentCategory)
	})

	t.Run("leaves other event types untouched", func(t *testing.T) {
		repaired := capi.RepairPageView("Purchase", capi.CustomData{}, "https://shop.example.com/products/x")

		assert.Empty(t, repaired.ContentName)
		assert.Empty(t, repaired.ContentCategory)
	})
}
