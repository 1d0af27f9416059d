package model

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestPayload_UnmarshalList(t *testing.T) {
	body := `[
		{"id": 11, "guid": {"rendered": "https://x.test/?p=11"}, "title": {"rendered": "Hello &amp; <em>World</em>"}, "modified": "2021-05-04T12:00:00", "status": "publish"},
		{"id": 10, "guid": {"rendered": "https://x.test/?p=10"}, "title": {"rendered": "Older"}, "modified": "2021-05-01T08:30:00"}
	]`

	var p Payload
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Posts) != 2 {
		t.Fatalf("len(Posts) = %d, want 2", len(p.Posts))
	}
	if p.Error != nil {
		t.Error("Error should be nil for a list body")
	}
	if Text(p.Posts[0].ID) != "11" || Text(p.Posts[1].ID) != "10" {
		t.Errorf("order not preserved: %s, %s", p.Posts[0].ID, p.Posts[1].ID)
	}
	if title, err := p.Posts[0].TitleMarkup(); err != nil || title != "Hello &amp; <em>World</em>" {
		t.Errorf("TitleMarkup() = (%q, %v)", title, err)
	}
	if link, err := p.Posts[1].Link(); err != nil || link != "https://x.test/?p=10" {
		t.Errorf("Link() = (%q, %v)", link, err)
	}
	if _, failed := p.LogicalFailure(); failed {
		t.Error("list payload reported a logical failure")
	}
}

func TestPayload_UnmarshalError(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantCode   string
		wantStatus string
		wantFailed bool
	}{
		{
			name:       "wp/v2 route error",
			body:       `{"code":"rest_no_route","message":"No route was found","data":{"status":404}}`,
			wantCode:   "rest_no_route",
			wantStatus: "404",
			wantFailed: true,
		},
		{
			name:       "numeric code",
			body:       `{"code":403,"message":"Forbidden","data":{"status":403}}`,
			wantCode:   "403",
			wantStatus: "403",
			wantFailed: true,
		},
		{
			name:       "status 200 is not a failure",
			body:       `{"code":"ok","data":{"status":200}}`,
			wantCode:   "ok",
			wantFailed: false,
		},
		{
			name:       "data without status",
			body:       `{"code":"odd","data":{}}`,
			wantCode:   "odd",
			wantFailed: true,
		},
		{
			name:       "object without data",
			body:       `{"message":"nothing nested"}`,
			wantFailed: false,
		},
		{
			name:       "string status",
			body:       `{"code":"rest_no_route","data":{"status":"404"}}`,
			wantCode:   "rest_no_route",
			wantStatus: "404",
			wantFailed: true,
		},
		{
			name:       "string 200 is still a failure",
			body:       `{"code":"odd","data":{"status":"200"}}`,
			wantCode:   "odd",
			wantStatus: "200",
			wantFailed: true,
		},
		{
			name:       "fractional 200 is not a failure",
			body:       `{"code":"ok","data":{"status":200.0}}`,
			wantCode:   "ok",
			wantFailed: false,
		},
		{
			name:       "boolean status shows empty",
			body:       `{"code":"odd","data":{"status":true}}`,
			wantCode:   "odd",
			wantFailed: true,
		},
		{
			name:       "scalar data",
			body:       `{"code":"odd","data":"yes"}`,
			wantCode:   "odd",
			wantFailed: true,
		},
		{
			name:       "falsy data",
			body:       `{"code":"odd","data":0}`,
			wantCode:   "odd",
			wantFailed: false,
		},
		{
			name:       "null data",
			body:       `{"code":null,"data":null}`,
			wantFailed: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p Payload
			if err := json.Unmarshal([]byte(tt.body), &p); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.Error == nil {
				t.Fatal("Error is nil for an object body")
			}
			if got := Text(p.Error.Code); got != tt.wantCode {
				t.Errorf("Code = %q, want %q", got, tt.wantCode)
			}
			status, failed := p.LogicalFailure()
			if failed != tt.wantFailed || status != tt.wantStatus {
				t.Errorf("LogicalFailure() = (%q, %v), want (%q, %v)", status, failed, tt.wantStatus, tt.wantFailed)
			}
			if p.PostList() != nil {
				t.Error("PostList() should be nil for an error payload")
			}
		})
	}
}

func TestPayload_UnmarshalScalarAndInvalid(t *testing.T) {
	var p Payload
	if err := json.Unmarshal([]byte(`null`), &p); err != nil {
		t.Fatalf("null: unexpected error: %v", err)
	}
	if p.Posts != nil || p.Error != nil {
		t.Error("null body should leave payload empty")
	}

	for _, body := range []string{`<html>`, `[{"id": 1},`, `{"code":`} {
		var bad Payload
		if err := json.Unmarshal([]byte(body), &bad); err == nil {
			t.Errorf("expected error for %s", body)
		}
	}
}

func TestPayload_UnexpectedFieldTypesDecode(t *testing.T) {
	body := `[
		{"id": "eleven", "guid": {"rendered": "https://x.test/?p=11"}, "title": "plain", "modified": 20210504},
		{"id": 12, "guid": "https://x.test/?p=12", "title": {"rendered": 42}},
		{"id": 13, "title": {"raw": "no rendered"}},
		7
	]`

	var p Payload
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Posts) != 4 {
		t.Fatalf("len(Posts) = %d, want 4", len(p.Posts))
	}

	first := p.Posts[0]
	if Text(first.ID) != "eleven" || Text(first.Modified) != "20210504" {
		t.Errorf("scalars = %q, %q", Text(first.ID), Text(first.Modified))
	}
	if _, err := first.TitleMarkup(); !errors.Is(err, ErrNotRendered) {
		t.Errorf("string title: err = %v, want ErrNotRendered", err)
	}

	if _, err := p.Posts[1].Link(); !errors.Is(err, ErrNotRendered) {
		t.Errorf("string guid: err = %v, want ErrNotRendered", err)
	}
	if title, err := p.Posts[1].TitleMarkup(); err != nil || title != "42" {
		t.Errorf("numeric rendered: TitleMarkup() = (%q, %v)", title, err)
	}

	if _, err := p.Posts[2].Link(); !errors.Is(err, ErrFieldMissing) {
		t.Errorf("absent guid: err = %v, want ErrFieldMissing", err)
	}
	if _, err := p.Posts[2].TitleMarkup(); !errors.Is(err, ErrNotRendered) {
		t.Errorf("title without rendered: err = %v, want ErrNotRendered", err)
	}

	if _, err := p.Posts[3].Link(); !errors.Is(err, ErrFieldMissing) {
		t.Errorf("scalar element: err = %v, want ErrFieldMissing", err)
	}
}

func TestText(t *testing.T) {
	tests := map[string]string{
		``:          "",
		`null`:      "",
		`"a \"b\""`: `a "b"`,
		`404`:       "404",
		` true `:    "true",
		`{"x":1}`:   `{"x":1}`,
	}
	for raw, want := range tests {
		if got := Text(json.RawMessage(raw)); got != want {
			t.Errorf("Text(%s) = %q, want %q", raw, got, want)
		}
	}
}

func TestPayload_NilSafe(t *testing.T) {
	var p *Payload
	if _, failed := p.LogicalFailure(); failed {
		t.Error("nil payload reported failure")
	}
	if p.PostList() != nil {
		t.Error("nil payload returned posts")
	}
}

func TestPayload_MarshalJSON(t *testing.T) {
	for _, body := range []string{
		`{"code":"rest_no_route","data":{"status":"404"}}`,
		`[{"id":1,"guid":"plain","title":{"rendered":"t"}}]`,
	} {
		var p Payload
		if err := json.Unmarshal([]byte(body), &p); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		b, err := json.Marshal(p)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(b) != body {
			t.Errorf("Marshal = %s, want %s", b, body)
		}
	}

	empty, _ := json.Marshal(Payload{})
	if string(empty) != "null" {
		t.Errorf("empty Marshal = %s", empty)
	}
}
