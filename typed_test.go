package restrepo

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// TestUser represents a test user struct for unmarshaling
type TestUser struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func newUserServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/users":
			w.Write([]byte(`[{"id":1,"name":"Ada","email":"ada@example.com"},{"id":2,"name":"Linus","email":"linus@example.com"}]`))
		case r.Method == http.MethodGet && r.URL.Path == "/users/1":
			w.Write([]byte(`{"id":1,"name":"Ada","email":"ada@example.com"}`))
		case (r.Method == http.MethodPost || r.Method == http.MethodPut) && r.URL.Path == "/users":
			var in TestUser
			if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			in.ID = 3
			json.NewEncoder(w).Encode(in)
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte("<b>description</b> <u>The requested resource is not available.</u>"))
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestGetObject(t *testing.T) {
	server := newUserServer(t)

	user, err := GetObject[TestUser](context.Background(), New(), server.URL+"/users/1", nil)
	if err != nil {
		t.Fatalf("GetObject() returned error: %v", err)
	}

	want := TestUser{ID: 1, Name: "Ada", Email: "ada@example.com"}
	if diff := cmp.Diff(want, user); diff != "" {
		t.Errorf("GetObject() mismatch (-want +got):\n%s", diff)
	}
}

func TestGetList(t *testing.T) {
	server := newUserServer(t)

	users, err := GetList[TestUser](context.Background(), New(), server.URL+"/users", nil)
	if err != nil {
		t.Fatalf("GetList() returned error: %v", err)
	}

	want := []TestUser{
		{ID: 1, Name: "Ada", Email: "ada@example.com"},
		{ID: 2, Name: "Linus", Email: "linus@example.com"},
	}
	if diff := cmp.Diff(want, users); diff != "" {
		t.Errorf("GetList() mismatch (-want +got):\n%s", diff)
	}
}

func TestPostAndPutObject(t *testing.T) {
	server := newUserServer(t)
	client := New()
	in := TestUser{Name: "Grace", Email: "grace@example.com"}

	created, err := PostObject[TestUser](context.Background(), client, server.URL+"/users", in, nil)
	if err != nil {
		t.Fatalf("PostObject() returned error: %v", err)
	}
	if created.ID != 3 || created.Name != "Grace" {
		t.Errorf("Unexpected created user: %+v", created)
	}

	updated, err := PutObject[TestUser](context.Background(), client, server.URL+"/users", in, nil)
	if err != nil {
		t.Fatalf("PutObject() returned error: %v", err)
	}
	if updated.Email != "grace@example.com" {
		t.Errorf("Unexpected updated user: %+v", updated)
	}
}

func TestCustomConstructor(t *testing.T) {
	server := newUserServer(t)

	type badge struct{ Label string }
	construct := func(raw json.RawMessage) (badge, error) {
		var u TestUser
		if err := json.Unmarshal(raw, &u); err != nil {
			return badge{}, err
		}
		return badge{Label: strings.ToUpper(u.Name)}, nil
	}

	badges, err := GetList[badge](context.Background(), New(), server.URL+"/users", construct)
	if err != nil {
		t.Fatalf("GetList() returned error: %v", err)
	}
	if len(badges) != 2 || badges[0].Label != "ADA" || badges[1].Label != "LINUS" {
		t.Errorf("Unexpected badges: %+v", badges)
	}
}

func TestConstructorErrorIsWrapped(t *testing.T) {
	server := newUserServer(t)
	invalid := errors.New("invalid user")

	_, err := GetList[TestUser](context.Background(), New(), server.URL+"/users", func(json.RawMessage) (TestUser, error) {
		return TestUser{}, invalid
	})
	if !errors.Is(err, invalid) {
		t.Fatalf("Expected constructor error in chain, got %v", err)
	}
	if !strings.Contains(err.Error(), "index 0") {
		t.Errorf("Expected element index in error, got %q", err.Error())
	}
}

func TestGetObjectShapeMismatch(t *testing.T) {
	server := newUserServer(t)

	_, err := GetObject[TestUser](context.Background(), New(), server.URL+"/users", nil)
	if !IsTypeMismatch(err) {
		t.Errorf("Expected type mismatch when an array is returned, got %v", err)
	}
}

func TestGetObjectClassifiedError(t *testing.T) {
	server := newUserServer(t)

	_, err := GetObject[TestUser](context.Background(), New(), server.URL+"/missing", nil)
	if !IsNetwork(err) {
		t.Fatalf("Expected network error, got %v", err)
	}
	var clientErr *ClientError
	errors.As(err, &clientErr)
	if clientErr.Message != "404 - The requested resource is not available." {
		t.Errorf("Unexpected message %q", clientErr.Message)
	}
}
