package models

import "encoding/json"

// User описывает сущность пользователя, которую возвращает сервис.
type User struct {
	IsActive bool   `json:"is_active"`
	TeamName string `json:"team_name"`
	UserId   string `json:"user_id"`
	Username string `json:"username"`
}

// PostUsersSetIsActiveJSONBody описывает тело запроса на изменение активности пользователя.
type PostUsersSetIsActiveJSONBody struct {
	IsActive bool   `json:"is_active"`
	UserId   string `json:"user_id"`
}

// SetIsActiveResponse описывает ответ POST /users/setIsActive.
type SetIsActiveResponse struct {
	User *User `json:"user"`
}

// PullRequestShort задаёт укороченное представление PR.
type PullRequestShort struct {
	AuthorId        string            `json:"author_id"`
	PullRequestId   string            `json:"pull_request_id"`
	PullRequestName string            `json:"pull_request_name"`
	Status          PullRequestStatus `json:"status"`
}

// GetReviewResponse описывает ответ GET /users/getReview.
// PullRequests хранится сырым, чтобы отличить список от null или объекта.
type GetReviewResponse struct {
	UserId       string          `json:"user_id"`
	PullRequests json.RawMessage `json:"pull_requests"`
}
