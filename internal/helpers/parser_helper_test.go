package helpers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext(t *testing.T, query string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/?"+query, nil)
	return c
}

func TestPagination(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantPage  int
		wantLimit int
		wantErr   bool
	}{
		{name: "defaults", query: "", wantPage: 1, wantLimit: 10},
		{name: "explicit values", query: "page=3&limit=25", wantPage: 3, wantLimit: 25},
		{name: "zero page rejected", query: "page=0", wantErr: true},
		{name: "negative limit rejected", query: "limit=-5", wantErr: true},
		{name: "non-numeric page rejected", query: "page=abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, limit, err := Pagination(testContext(t, tt.query))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantPage, page)
			assert.Equal(t, tt.wantLimit, limit)
		})
	}
}

func TestGenerateRMACode(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		code := GenerateRMACode()
		require.True(t, strings.HasPrefix(code, "RMA-"))
		assert.Len(t, code, 14)
		assert.Equal(t, strings.ToUpper(code), code)
		assert.False(t, seen[code], "codes must not repeat")
		seen[code] = true
	}
}
