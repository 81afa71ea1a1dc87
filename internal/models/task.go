package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Task is a dated item under a tag. TagID and ParentTask are advisory references:
// cycle prevention and orphan handling belong to the storage services, not the schema.
type Task struct {
	TaskID     int64     `gorm:"column:task_id;primaryKey;autoIncrement" json:"task_id"`
	Content    string    `gorm:"column:content;not null" json:"content"`
	StartDate  time.Time `gorm:"column:start_date;not null" json:"start_date"`
	EndDate    time.Time `gorm:"column:end_date;not null" json:"end_date"`
	TagID      int64     `gorm:"column:tag_id;not null;index" json:"tag_id"`
	ParentTask *int64    `gorm:"column:parent_task;index" json:"parent_task,omitempty"`
	Order      int       `gorm:"column:order;not null" json:"order"`
	Archived   bool      `gorm:"column:archived;not null" json:"archived"`
	Base
}

func (Task) TableName() string { return "tasks" }

type TaskOption func(*Task)

func WithParentTask(parentID int64) TaskOption {
	return func(t *Task) { t.ParentTask = &parentID }
}

func WithTaskArchived(archived bool) TaskOption {
	return func(t *Task) { t.Archived = archived }
}

// NewTask builds a task with archived=false unless overridden.
func NewTask(content string, start, end time.Time, tagID int64, order int, opts ...TaskOption) (*Task, error) {
	t := &Task{
		Content:   content,
		StartDate: start,
		EndDate:   end,
		TagID:     tagID,
		Order:     order,
	}
	for _, opt := range opts {
		opt(t)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Task) Validate() error {
	switch {
	case strings.TrimSpace(t.Content) == "":
		return missing("task", "content")
	case t.StartDate.IsZero():
		return missing("task", "start_date")
	case t.EndDate.IsZero():
		return missing("task", "end_date")
	case t.TagID == 0:
		return missing("task", "tag_id")
	}
	return nil
}

func (t *Task) BeforeSave(tx *gorm.DB) error { return t.Validate() }

func (t *Task) State() Lifecycle { return lifecycleOf(t.Archived) }
func (t *Task) Archive()         { t.Archived = true }
func (t *Task) Unarchive()       { t.Archived = false }

// IsSubtask reports whether the task hangs under another task.
func (t *Task) IsSubtask() bool { return t.ParentTask != nil }
