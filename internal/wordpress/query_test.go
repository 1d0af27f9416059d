package wordpress

import (
	"strconv"
	"strings"
	"testing"
)

func TestBuildTarget_Default(t *testing.T) {
	got := BuildTarget("5", "retrofoxsimplecustom01.wordpress.com")
	want := "https://public-api.wordpress.com/wp/v2/sites/retrofoxsimplecustom01.wordpress.com/posts?per_page=5"
	if got != want {
		t.Errorf("BuildTarget() = %q, want %q", got, want)
	}
}

func TestBuildTarget_Order(t *testing.T) {
	sites := []string{"a.wordpress.com", "example.blog", "x", "with space.com", "dash-ed.wordpress.com"}
	for _, site := range sites {
		for _, n := range []int{1, 2, 10, 100, 12345} {
			pageSize := strconv.Itoa(n)
			got := BuildTarget(pageSize, site)

			parts := []string{APIHost, APIVersion, site, "per_page=" + pageSize}
			pos := 0
			for _, part := range parts {
				i := strings.Index(got[pos:], part)
				if i < 0 {
					t.Fatalf("BuildTarget(%q, %q) = %q: %q missing after offset %d", pageSize, site, got, part, pos)
				}
				pos += i + len(part)
			}
			if pos != len(got) {
				t.Errorf("BuildTarget(%q, %q) = %q: trailing text after per_page", pageSize, site, got)
			}
		}
	}
}

func TestBuilder_Target(t *testing.T) {
	tests := []struct {
		name     string
		builder  Builder
		pageSize string
		site     string
		want     string
	}{
		{
			name:     "custom host",
			builder:  Builder{Host: "http://127.0.0.1:9000/"},
			pageSize: "3",
			site:     "demo.test",
			want:     "http://127.0.0.1:9000/wp/v2/sites/demo.test/posts?per_page=3",
		},
		{
			name:     "custom version",
			builder:  Builder{Version: "wp/v3/"},
			pageSize: "1",
			site:     "demo.test",
			want:     "https://public-api.wordpress.com/wp/v3/sites/demo.test/posts?per_page=1",
		},
		{
			name:     "empty page size while editing",
			pageSize: "",
			site:     "demo.test",
			want:     "https://public-api.wordpress.com/wp/v2/sites/demo.test/posts?per_page=",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.builder.Target(tt.pageSize, tt.site); got != tt.want {
				t.Errorf("Target() = %q, want %q", got, tt.want)
			}
		})
	}
}
