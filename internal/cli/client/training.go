package client

import (
	"context"
	"fmt"
)

// PathCourses lists the training catalogue
const PathCourses = "/training/courses"

// Lesson is one unit of a course. Status is "completed", "in-progress" or
// "locked" for the requesting user.
type Lesson struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Duration string `json:"duration"`
	Status   string `json:"status"`
}

// Course groups lessons with the user's progress through them
type Course struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Level    string   `json:"level"`
	Focus    string   `json:"focus"`
	Progress int      `json:"progress"`
	Lessons  []Lesson `json:"lessons"`
}

// CompleteLesson marks a lesson as done
func (c *Client) CompleteLesson(ctx context.Context, lessonID int64) error {
	return c.Post(ctx, fmt.Sprintf("/training/lessons/%d/complete", lessonID), struct{}{}, true, nil)
}
