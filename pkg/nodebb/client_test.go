package nodebb

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// newTestClient points a client at the given handler with retries disabled so
// error-path tests return fast.
func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(ClientOptions{
		BaseURL:           srv.URL,
		Token:             "master-token",
		ActingUID:         1,
		RequestsPerSecond: 1000,
	})
	c.httpClient.RetryMax = 0

	return c
}

func writeEnvelope(w http.ResponseWriter, payload any) {
	raw, _ := json.Marshal(payload)
	json.NewEncoder(w).Encode(apiResponse{Code: "ok", Payload: raw})
}

func TestClient_CreateUser(t *testing.T) {
	var gotPath, gotAuth, gotUID string
	var gotBody CreateUserRequest

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.Method + " " + r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotUID = r.Header.Get("X-NodeBB-UID")
		json.NewDecoder(r.Body).Decode(&gotBody)
		writeEnvelope(w, createUserPayload{UID: 17})
	})

	uid, err := client.CreateUser(context.Background(), CreateUserRequest{
		Username: "alice",
		Email:    "a@x.com",
		JoinDate: "1000000000",
	})
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	if uid != 17 {
		t.Errorf("uid = %d, want 17", uid)
	}
	if gotPath != "POST /api/v2/users" {
		t.Errorf("request = %q, want POST /api/v2/users", gotPath)
	}
	if gotAuth != "Bearer master-token" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotUID != "1" {
		t.Errorf("X-NodeBB-UID = %q, want 1", gotUID)
	}
	if gotBody.Username != "alice" || gotBody.JoinDate != "1000000000" {
		t.Errorf("body = %+v", gotBody)
	}
}

func TestClient_UpdateProfile(t *testing.T) {
	var gotPath string
	var gotBody UpdateProfileRequest

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.Method + " " + r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		writeEnvelope(w, struct{}{})
	})

	err := client.UpdateProfile(context.Background(), 17, UpdateProfileRequest{
		Fullname: "Alice Liddell",
		Location: "Lahore, Pakistan",
		Birthday: "01/01/1990",
	})
	if err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}

	if gotPath != "PUT /api/v2/users/17" {
		t.Errorf("request = %q, want PUT /api/v2/users/17", gotPath)
	}
	if gotBody.Birthday != "01/01/1990" {
		t.Errorf("body = %+v", gotBody)
	}
}

func TestClient_DeleteUser(t *testing.T) {
	var gotPath string

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.Method + " " + r.URL.Path
		writeEnvelope(w, struct{}{})
	})

	if err := client.DeleteUser(context.Background(), 17); err != nil {
		t.Fatalf("DeleteUser() error = %v", err)
	}
	if gotPath != "DELETE /api/v2/users/17" {
		t.Errorf("request = %q, want DELETE /api/v2/users/17", gotPath)
	}
}

func TestClient_CreateCategoryAndGroup(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v2/categories":
			writeEnvelope(w, createCategoryPayload{CID: 42})
		case "/api/v2/groups":
			writeEnvelope(w, createGroupPayload{Name: "Demo-edX-DemoX-2026", Slug: "demo-edx-demox-2026"})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
		}
	})

	ctx := context.Background()

	cid, err := client.CreateCategory(ctx, CreateCategoryRequest{Name: "Demo-edX-DemoX-2026"})
	if err != nil {
		t.Fatalf("CreateCategory() error = %v", err)
	}
	if cid != 42 {
		t.Errorf("cid = %d, want 42", cid)
	}

	slug, err := client.CreateGroup(ctx, CreateGroupRequest{Name: "Demo-edX-DemoX-2026", Hidden: 1, Private: 1})
	if err != nil {
		t.Fatalf("CreateGroup() error = %v", err)
	}
	if slug != "demo-edx-demox-2026" {
		t.Errorf("slug = %q, want demo-edx-demox-2026", slug)
	}
}

func TestClient_GroupMembership(t *testing.T) {
	var gotRequests []string

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotRequests = append(gotRequests, r.Method+" "+r.URL.Path)
		writeEnvelope(w, struct{}{})
	})

	ctx := context.Background()

	if err := client.JoinGroup(ctx, "demo-edx-demox-2026", 17); err != nil {
		t.Fatalf("JoinGroup() error = %v", err)
	}
	if err := client.LeaveGroup(ctx, "demo-edx-demox-2026", 17); err != nil {
		t.Fatalf("LeaveGroup() error = %v", err)
	}

	want := []string{
		"PUT /api/v2/groups/demo-edx-demox-2026/membership/17",
		"DELETE /api/v2/groups/demo-edx-demox-2026/membership/17",
	}
	if len(gotRequests) != 2 || gotRequests[0] != want[0] || gotRequests[1] != want[1] {
		t.Errorf("requests = %v, want %v", gotRequests, want)
	}
}

func TestClient_ErrorStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad request", http.StatusBadRequest)
	})

	if _, err := client.CreateUser(context.Background(), CreateUserRequest{Username: "alice"}); err == nil {
		t.Fatal("CreateUser() error = nil, want error on 400")
	}
}

func TestClient_ErrorEnvelopeCode(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(apiResponse{Code: "bad-request", Message: "username taken"})
	})

	_, err := client.CreateUser(context.Background(), CreateUserRequest{Username: "alice"})
	if err == nil {
		t.Fatal("CreateUser() error = nil, want envelope code error")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate([]byte("short"), 10); got != "short" {
		t.Errorf("truncate = %q, want short", got)
	}
	if got := truncate([]byte("0123456789abcdef"), 10); got != "0123456789..." {
		t.Errorf("truncate = %q, want 0123456789...", got)
	}
}
