// Package tasks defines the sync action job payloads and the inserter used to
// enqueue them on the job queue.
package tasks

import "github.com/riverqueue/river"

// Task kind identifiers. One kind per remote sync action.
const (
	KindUserCreate     = "nodebb_user_create"
	KindUserUpdate     = "nodebb_user_update"
	KindUserDelete     = "nodebb_user_delete"
	KindCategoryCreate = "nodebb_category_create"
	KindCategoryDelete = "nodebb_category_delete"
	KindGroupJoin      = "nodebb_group_join"
	KindGroupUnjoin    = "nodebb_group_unjoin"
)

// UserCreateArgs creates the remote forum user for a new platform account.
// JoinDate is the account's join timestamp as an epoch-seconds string, the
// format NodeBB stores for joindate.
type UserCreateArgs struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	JoinDate string `json:"joindate"`
}

// Kind returns the job kind for the queue.
func (UserCreateArgs) Kind() string { return KindUserCreate }

// UserUpdateArgs updates the remote user's profile fields. Empty fields are
// omitted from the remote call.
type UserUpdateArgs struct {
	Username string `json:"username"`
	Fullname string `json:"fullname"`
	Location string `json:"location,omitempty"`
	Birthday string `json:"birthday,omitempty"`
}

// Kind returns the job kind for the queue.
func (UserUpdateArgs) Kind() string { return KindUserUpdate }

// UserDeleteArgs deletes the remote forum user.
type UserDeleteArgs struct {
	Username string `json:"username"`
}

// Kind returns the job kind for the queue.
func (UserDeleteArgs) Kind() string { return KindUserDelete }

// CategoryCreateArgs creates the remote category (and its member group) for a
// new course. Name is the unique "display-org-course-run" category name.
type CategoryCreateArgs struct {
	CourseID    string `json:"course_id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
}

// Kind returns the job kind for the queue.
func (CategoryCreateArgs) Kind() string { return KindCategoryCreate }

// CategoryDeleteArgs deletes the remote category identified by CategoryID.
// CourseID lets the worker drop the local link row afterwards.
type CategoryDeleteArgs struct {
	CourseID   string `json:"course_id"`
	CategoryID int64  `json:"category_id"`
}

// Kind returns the job kind for the queue.
func (CategoryDeleteArgs) Kind() string { return KindCategoryDelete }

// GroupJoinArgs adds the user to the course's member group.
type GroupJoinArgs struct {
	Username string `json:"username"`
	CourseID string `json:"course_id"`
}

// Kind returns the job kind for the queue.
func (GroupJoinArgs) Kind() string { return KindGroupJoin }

// GroupUnjoinArgs removes the user from the course's member group.
type GroupUnjoinArgs struct {
	Username string `json:"username"`
	CourseID string `json:"course_id"`
}

// Kind returns the job kind for the queue.
func (GroupUnjoinArgs) Kind() string { return KindGroupUnjoin }

var (
	_ river.JobArgs = UserCreateArgs{}
	_ river.JobArgs = UserUpdateArgs{}
	_ river.JobArgs = UserDeleteArgs{}
	_ river.JobArgs = CategoryCreateArgs{}
	_ river.JobArgs = CategoryDeleteArgs{}
	_ river.JobArgs = GroupJoinArgs{}
	_ river.JobArgs = GroupUnjoinArgs{}
)
