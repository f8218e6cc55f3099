package domain

// Task is the V1 development-task projection, unique on (ProjectRef, TaskID).
// StartTime and EndTime come from an authoritative chain read, not from the
// event payload. Completed and Canceled are one-way latches.
type Task struct {
	ID          string `json:"-"` // surrogate id assigned by the store
	ProjectRef  string `json:"projectId"`
	TaskID      int64  `json:"taskId"`
	CheckAmount string `json:"checkAmount"`
	StartTime   int64  `json:"startTime"`
	EndTime     int64  `json:"endTime"`
	Payload     string `json:"payload"`
	Completed   bool   `json:"completed"`
	Canceled    bool   `json:"canceled"`
}

// Plan is the maydone funding sub-record created alongside a project.
type Plan struct {
	ID         string `json:"-"`
	ProjectRef string `json:"project_id"`
	CostUSD    string `json:"cost_usd"`
}

// Act is the development-progress sub-record created alongside a project.
// The forum fields are filled in when the progress discussion is created.
type Act struct {
	ID            string `json:"-"`
	ProjectRef    string `json:"project_id"`
	TechStack     string `json:"tech_stack"`
	SourceCodeURL string `json:"source_code_url"`
	TestURL       string `json:"test_url"`
	StartTime     int64  `json:"start_time"`
	Duration      int64  `json:"duration"`

	ForumUsername     string `json:"forum_username,omitempty"`
	ForumDiscussionID int64  `json:"forum_discussion_id,omitempty"`
	ForumUserID       int64  `json:"forum_user_id,omitempty"`
	ForumCreatedAt    string `json:"forum_created_at,omitempty"`
}

// ActWithProject joins an act with its owning project, the shape the stats
// endpoint reads.
type ActWithProject struct {
	Act     Act
	Project Project
}
