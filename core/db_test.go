package core

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPage_Clean(t *testing.T) {
	tests := []struct {
		name       string
		page       Page
		want       Page
		wantOffset uint64
	}{
		{name: "zero", page: Page{}, want: Page{Number: 1, Size: DefaultPageSize}, wantOffset: 0},
		{name: "negative", page: Page{Number: -3, Size: -1}, want: Page{Number: 1, Size: DefaultPageSize}, wantOffset: 0},
		{name: "third page", page: Page{Number: 3, Size: 10}, want: Page{Number: 3, Size: 10}, wantOffset: 20},
		{name: "size capped", page: Page{Number: 2, Size: 1000}, want: Page{Number: 2, Size: MaxPageSize}, wantOffset: MaxPageSize},
		{
			name: "number capped", page: Page{Number: math.MaxInt, Size: MaxPageSize},
			want: Page{Number: MaxPageNumber, Size: MaxPageSize}, wantOffset: (MaxPageNumber - 1) * MaxPageSize,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.page.Clean()
			assert.Equal(t, tt.want, tt.page)
			assert.Equal(t, tt.wantOffset, tt.page.Offset())
			assert.Equal(t, uint64(tt.want.Size), tt.page.Limit())
		})
	}
}

func TestPage_Offset_uncleaned(t *testing.T) {
	assert.Equal(t, uint64(0), Page{Number: -5, Size: 10}.Offset())
	assert.Equal(t, uint64(0), Page{Number: 3, Size: -10}.Offset())
	assert.Equal(t, uint64(math.MaxInt32-1)*MaxPageSize, Page{Number: math.MaxInt32, Size: MaxPageSize}.Offset())
}
