package models

import (
	"encoding/json"
	"fmt"
)

// UserRef идентификатор пользователя из корпуса users.
// В файле допускается как строка, так и объект с полем user_id.
type UserRef string

// UnmarshalJSON принимает "id" или {"user_id": "id", ...}.
func (u *UserRef) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		*u = UserRef(id)
		return nil
	}

	var obj struct {
		UserId string `json:"user_id"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("user entry must be a string or an object with user_id: %w", err)
	}
	*u = UserRef(obj.UserId)
	return nil
}

// FixturePullRequest описывает PR из корпуса prs.
// ReviewerIDs пул ревьюеров, из которого выбирается заменяемый при reassign.
type FixturePullRequest struct {
	PullRequestId   string            `json:"pull_request_id" validate:"required"`
	PullRequestName string            `json:"pull_request_name,omitempty"`
	AuthorId        string            `json:"author_id,omitempty"`
	Status          PullRequestStatus `json:"status" validate:"required,oneof=OPEN MERGED"`
	ReviewerIDs     []string          `json:"reviewer_ids"`
}
