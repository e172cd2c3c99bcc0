package contract

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"portfolio/app/internal/content"
)

func TestBuildURLSubstitutesNamedSegments(t *testing.T) {
	t.Parallel()

	got := BuildURL(PostsGet.Path, map[string]string{"slug": "why-kue-exists"})
	if got != "/api/posts/why-kue-exists" {
		t.Fatalf("expected substituted path, got %q", got)
	}

	if unchanged := BuildURL(PostsGet.Path, nil); unchanged != PostsGet.Path {
		t.Fatalf("expected template unchanged without params, got %q", unchanged)
	}

	if partial := BuildURL("/a/:x/b/:y", map[string]string{"y": "2"}); partial != "/a/:x/b/2" {
		t.Fatalf("expected only known params substituted, got %q", partial)
	}
}

func TestOpenAPIPathUsesBraces(t *testing.T) {
	t.Parallel()

	if got := PostsGet.OpenAPIPath(); got != "/api/posts/{slug}" {
		t.Fatalf("expected /api/posts/{slug}, got %q", got)
	}
	if got := BeliefsList.OpenAPIPath(); got != "/api/beliefs" {
		t.Fatalf("expected /api/beliefs, got %q", got)
	}
}

func TestRoutesTable(t *testing.T) {
	t.Parallel()

	expected := map[string]struct {
		method  string
		path    string
		success int
	}{
		"posts.list":     {http.MethodGet, "/api/posts", http.StatusOK},
		"posts.get":      {http.MethodGet, "/api/posts/:slug", http.StatusOK},
		"beliefs.list":   {http.MethodGet, "/api/beliefs", http.StatusOK},
		"now.list":       {http.MethodGet, "/api/now", http.StatusOK},
		"contact.create": {http.MethodPost, "/api/contact", http.StatusCreated},
	}

	routes := All()
	if len(routes) != len(expected) {
		t.Fatalf("expected %d routes, got %d", len(expected), len(routes))
	}

	for _, route := range routes {
		want, ok := expected[route.Name]
		if !ok {
			t.Fatalf("unexpected route %q", route.Name)
		}
		if route.Method != want.method || route.Path != want.path {
			t.Fatalf("%s: expected %s %s, got %s %s", route.Name, want.method, want.path, route.Method, route.Path)
		}
		if status := route.SuccessStatus(); status != want.success {
			t.Fatalf("%s: expected success status %d, got %d", route.Name, want.success, status)
		}
		if _, ok := route.Responses[http.StatusInternalServerError]; !ok {
			t.Fatalf("%s: expected a documented 500 response", route.Name)
		}
		if strings.Contains(route.OperationID(), ".") {
			t.Fatalf("%s: operation id must not contain dots", route.Name)
		}
	}
}

func TestDecodeResponseValidatesBodies(t *testing.T) {
	t.Parallel()

	body := []byte(`[{"id":1,"slug":"a","title":"A","content":"","type":"kue","publishedAt":"2025-01-01T00:00:00Z"}]`)
	posts, err := Decode[[]content.Post](PostsList, http.StatusOK, body)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if len(posts) != 1 || posts[0].Slug != "a" {
		t.Fatalf("unexpected posts %#v", posts)
	}

	invalid := []byte(`[{"id":1,"slug":"a","title":"A","type":"kue"},{"id":2,"slug":"b","title":"B","type":"diary"}]`)
	_, err = PostsList.DecodeResponse(http.StatusOK, invalid)
	var verr *content.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if verr.Field != "1.type" {
		t.Fatalf("expected field 1.type, got %q", verr.Field)
	}
}

func TestDecodeResponseRejectsUndocumentedStatus(t *testing.T) {
	t.Parallel()

	if _, err := BeliefsList.DecodeResponse(http.StatusNotFound, []byte(`{"message":"x"}`)); err == nil {
		t.Fatalf("expected error for undocumented status")
	}
}

func TestDecodeErrorBodies(t *testing.T) {
	t.Parallel()

	body, err := Decode[ValidationErrorBody](ContactCreate, http.StatusBadRequest, []byte(`{"message":"Invalid email address","field":"email"}`))
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if body.Field != "email" {
		t.Fatalf("expected field email, got %q", body.Field)
	}

	if _, err := Decode[MessageBody](PostsGet, http.StatusNotFound, []byte(`{"message":""}`)); err == nil {
		t.Fatalf("expected error for empty message body")
	}
}

func TestParseBody(t *testing.T) {
	t.Parallel()

	input, err := ParseBody[content.InsertMessage]([]byte(`{"name":"Ada","email":"ada@example.com","message":"Hi"}`))
	if err != nil {
		t.Fatalf("ParseBody returned error: %v", err)
	}
	if input.Name != "Ada" {
		t.Fatalf("expected name Ada, got %q", input.Name)
	}

	cases := map[string]struct {
		body  string
		field string
	}{
		"malformed json": {`{"name":`, ""},
		"wrong type":     {`{"name":42,"email":"ada@example.com","message":"Hi"}`, "name"},
		"missing name":   {`{"email":"ada@example.com","message":"Hi"}`, "name"},
		"bad email":      {`{"name":"Ada","email":"not-an-email","message":"Hi"}`, "email"},
	}

	for name, tc := range cases {
		_, err := ParseBody[content.InsertMessage]([]byte(tc.body))
		var verr *content.ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("%s: expected validation error, got %v", name, err)
		}
		if verr.Field != tc.field {
			t.Fatalf("%s: expected field %q, got %q", name, tc.field, verr.Field)
		}
	}
}

func TestPostsQuery(t *testing.T) {
	t.Parallel()

	postType, err := PostsQuery{}.PostType()
	if err != nil || postType != nil {
		t.Fatalf("expected no filter, got %v, %v", postType, err)
	}

	postType, err = PostsQuery{Type: "kue"}.PostType()
	if err != nil || postType == nil || *postType != content.PostTypeKue {
		t.Fatalf("expected kue filter, got %v, %v", postType, err)
	}

	if err := (PostsQuery{Type: "diary"}).Validate(); err == nil {
		t.Fatalf("expected error for unknown type")
	}
}
