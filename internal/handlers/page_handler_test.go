package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func testContext(t *testing.T, target string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	recorder := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(recorder)
	ctx.Request = httptest.NewRequest(http.MethodGet, target, nil)
	return ctx, recorder
}

func TestAuthorFromContext(t *testing.T) {
	ctx, _ := testContext(t, "/")
	if got := authorFromContext(ctx); got != 0 {
		t.Fatalf("expected anonymous author, got %d", got)
	}

	ctx.Set("user_id", uint(42))
	if got := authorFromContext(ctx); got != 42 {
		t.Fatalf("expected author 42, got %d", got)
	}

	ctx.Set("user_id", "not-a-uint")
	if got := authorFromContext(ctx); got != 0 {
		t.Fatalf("expected anonymous author for bad value, got %d", got)
	}
}

func TestParseListWindow(t *testing.T) {
	cases := []struct {
		name   string
		target string
		limit  int
		offset int
	}{
		{name: "Defaults", target: "/pages", limit: 50, offset: 0},
		{name: "Explicit", target: "/pages?limit=10&offset=30", limit: 10, offset: 30},
		{name: "Zero limit ignored", target: "/pages?limit=0", limit: 50, offset: 0},
		{name: "Oversized limit ignored", target: "/pages?limit=9999", limit: 50, offset: 0},
		{name: "Negative offset ignored", target: "/pages?offset=-5", limit: 50, offset: 0},
		{name: "Garbage ignored", target: "/pages?limit=abc&offset=xyz", limit: 50, offset: 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx, _ := testContext(t, tc.target)
			limit, offset := parseListWindow(ctx)
			if limit != tc.limit || offset != tc.offset {
				t.Fatalf("expected (%d, %d), got (%d, %d)", tc.limit, tc.offset, limit, offset)
			}
		})
	}
}
