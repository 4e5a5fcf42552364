package pagination

import (
	"encoding/json"
	"math"
	"testing"
)

func TestMeta_TotalPages(t *testing.T) {
	tests := []struct {
		name string
		meta Meta
		want int
	}{
		{"exact multiple", Meta{PageSize: 20, Total: 120}, 6},
		{"partial last page", Meta{PageSize: 20, Total: 121}, 7},
		{"fewer than one page", Meta{PageSize: 20, Total: 3}, 1},
		{"empty result", Meta{PageSize: 20, Total: 0}, 0},
		{"invalid page size", Meta{PageSize: 0, Total: 50}, 0},
		{"total near max int", Meta{PageSize: 2, Total: math.MaxInt}, math.MaxInt/2 + 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.meta.TotalPages(); got != tt.want {
				t.Errorf("TotalPages() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMeta_HasNext(t *testing.T) {
	tests := []struct {
		page int
		want bool
	}{
		{1, true},
		{5, true},
		{6, false},
		{7, false},
	}

	for _, tt := range tests {
		meta := Meta{Page: tt.page, PageSize: 20, Total: 120}
		if got := meta.HasNext(); got != tt.want {
			t.Errorf("page %d: HasNext() = %v, want %v", tt.page, got, tt.want)
		}
	}
}

func TestPage_DecodesListResponse(t *testing.T) {
	raw := `{"items":[{"id":1},{"id":2}],"page":2,"page_size":2,"total":5}`

	var p Page[struct {
		ID int `json:"id"`
	}]
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if len(p.Items) != 2 || p.Items[1].ID != 2 {
		t.Errorf("Items = %+v", p.Items)
	}
	want := Meta{Page: 2, PageSize: 2, Total: 5}
	if p.Meta() != want {
		t.Errorf("Meta() = %+v, want %+v", p.Meta(), want)
	}
}
