package budget

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCategorize(t *testing.T) {
	cases := []struct {
		description string
		expected    string
	}{
		{"Zomato Order #4411", "Food"},
		{"SWIGGY INSTAMART", "Food"},
		{"BigBasket weekly groceries", "Food"},
		{"Amazon Pay order", "Shopping"},
		{"FLIPKART BIG BILLION", "Shopping"},
		{"Uber trip to airport", "Travel"},
		{"IRCTC ticket booking", "Travel"},
		{"HP Petrol pump", "Travel"},
		{"Cash withdrawal", "Other"},
		{"", "Other"},
	}

	for _, tc := range cases {
		t.Run(tc.description, func(t *testing.T) {
			require.Equal(t, tc.expected, Categorize(tc.description))
		})
	}
}
