package domain

// TaskType is a presentation tag; it has no effect on timing or reward.
type TaskType string

const (
	TaskTypeVideo TaskType = "video"
	TaskTypeAd    TaskType = "ad"
)

// Task is a catalog entry a user can run once to earn its reward.
type Task struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Reward          int      `json:"reward"`
	DurationSeconds int      `json:"duration_seconds"`
	Type            TaskType `json:"type"`
	Completed       bool     `json:"completed"`
}
