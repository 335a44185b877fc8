package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestParsePagination(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		query      string
		page       int
		limit      int
		wantOffset int
	}{
		{"", 1, 50, 0},
		{"?page=3&limit=20", 3, 20, 40},
		{"?page=0&limit=-5", 1, 50, 0},
		{"?page=abc&limit=1000", 1, 100, 0},
	}
	for _, tt := range tests {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest("GET", "/api/tts/history"+tt.query, nil)

		p := ParsePagination(c)
		if p.Page != tt.page || p.Limit != tt.limit || p.Offset() != tt.wantOffset {
			t.Errorf("%q: got %+v offset %d", tt.query, p, p.Offset())
		}
	}
}
