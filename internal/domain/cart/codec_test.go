package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeItems_Format(t *testing.T) {
	p := newTestProduct(2, "24.99")
	p.Title = "Kookaburra Red Cricket Ball"
	p.Rating = nil

	data := EncodeItems([]LineItem{{Product: p, Quantity: 2}})

	assert.JSONEq(t, `[{
		"product": {
			"id": 2,
			"title": "Kookaburra Red Cricket Ball",
			"price": 24.99,
			"description": "",
			"category": "Protection",
			"image": "https://example.com/p.jpg"
		},
		"quantity": 2
	}]`, string(data))
}

func TestDecodeItems_PreservesOrderAndRating(t *testing.T) {
	in := []LineItem{
		{Product: newTestProduct(5, "49.99"), Quantity: 3},
		{Product: newTestProduct(1, "299.99"), Quantity: 1},
	}

	out, err := DecodeItems(EncodeItems(in))
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, int64(5), out[0].Product.ID)
	assert.Equal(t, 3, out[0].Quantity)
	assert.True(t, decimal.RequireFromString("49.99").Equal(out[0].Product.Price))
	require.NotNil(t, out[1].Product.Rating)
	assert.Equal(t, 10, out[1].Product.Rating.Count)
}

func TestDecodeItems_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "empty", data: ``},
		{name: "not an array", data: `{"product":{"id":1}}`},
		{name: "missing product", data: `[{"quantity":1}]`},
		{name: "missing product id", data: `[{"product":{"title":"x","price":1},"quantity":1}]`},
		{name: "zero quantity", data: `[{"product":{"id":1,"price":1},"quantity":0}]`},
		{name: "negative price", data: `[{"product":{"id":1,"price":-1},"quantity":1}]`},
		{name: "duplicate id", data: `[{"product":{"id":1,"price":1},"quantity":1},{"product":{"id":1,"price":1},"quantity":2}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeItems([]byte(tt.data))
			require.Error(t, err)
		})
	}
}

func TestDecodeItems_SkipsUnknownFields(t *testing.T) {
	out, err := DecodeItems([]byte(`[{"addedAt":"2024-01-01","product":{"id":7,"price":69.99,"sku":"K-7"},"quantity":4}]`))
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, int64(7), out[0].Product.ID)
	assert.True(t, decimal.RequireFromString("69.99").Equal(out[0].Product.Price))
}
