package models

import (
	"encoding/json"
	"testing"
)

func TestNewPagination(t *testing.T) {
	tests := []struct {
		name               string
		page, limit, total int
		wantPages, wantOff int
		wantNext, wantPrev bool
	}{
		{"empty", 1, 10, 0, 0, 0, false, false},
		{"single page", 1, 10, 7, 1, 0, false, false},
		{"exact multiple", 2, 10, 20, 2, 10, false, true},
		{"first of many", 1, 10, 25, 3, 0, true, false},
		{"middle", 2, 10, 25, 3, 10, true, true},
		{"past the end", 5, 10, 25, 3, 40, false, true},
		{"page beyond MaxPage", 1 << 62, 50, 25, 1, (MaxPage - 1) * 50, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPagination("totalArticles", tt.page, tt.limit, tt.total)
			if p.TotalPages != tt.wantPages {
				t.Errorf("TotalPages: got %d, want %d", p.TotalPages, tt.wantPages)
			}
			if p.Offset() != tt.wantOff {
				t.Errorf("Offset: got %d, want %d", p.Offset(), tt.wantOff)
			}
			if p.HasNextPage() != tt.wantNext {
				t.Errorf("HasNextPage: got %v, want %v", p.HasNextPage(), tt.wantNext)
			}
			if p.HasPrevPage() != tt.wantPrev {
				t.Errorf("HasPrevPage: got %v, want %v", p.HasPrevPage(), tt.wantPrev)
			}
		})
	}
}

func TestPaginationJSON(t *testing.T) {
	raw, err := json.Marshal(NewPagination("totalImages", 1, 20, 45))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := map[string]any{
		"currentPage": 1.0, "totalPages": 3.0, "totalImages": 45.0,
		"hasNextPage": true, "hasPrevPage": false, "limit": 20.0,
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s: got %v, want %v", k, got[k], v)
		}
	}
}
