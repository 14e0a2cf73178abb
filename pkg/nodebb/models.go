package nodebb

import "encoding/json"

// apiResponse is the envelope the Write API wraps every response in.
type apiResponse struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Payload json.RawMessage `json:"payload"`
}

// CreateUserRequest creates a forum user. JoinDate is epoch seconds as a
// string, matching the joindate format NodeBB stores.
type CreateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	JoinDate string `json:"joindate,omitempty"`
}

// createUserPayload is the payload returned for a created user.
type createUserPayload struct {
	UID int64 `json:"uid"`
}

// UpdateProfileRequest updates a forum user's profile fields. Empty fields
// are omitted and left unchanged remotely.
type UpdateProfileRequest struct {
	Fullname string `json:"fullname,omitempty"`
	Location string `json:"location,omitempty"`
	Birthday string `json:"birthday,omitempty"`
}

// CreateCategoryRequest creates a forum category.
type CreateCategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// createCategoryPayload is the payload returned for a created category.
type createCategoryPayload struct {
	CID int64 `json:"cid"`
}

// CreateGroupRequest creates a forum group. Hidden groups don't show up in
// the public group directory.
type CreateGroupRequest struct {
	Name    string `json:"name"`
	Hidden  int    `json:"hidden,omitempty"`
	Private int    `json:"private,omitempty"`
}

// createGroupPayload is the payload returned for a created group.
type createGroupPayload struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}
