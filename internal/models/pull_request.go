package models

// PullRequest описывает модель pull request в ответах сервиса.
type PullRequest struct {
	// AssignedReviewers идентификаторы ревьюеров (0..2).
	AssignedReviewers []string          `json:"assigned_reviewers"`
	AuthorId          string            `json:"author_id"`
	PullRequestId     string            `json:"pull_request_id"`
	PullRequestName   string            `json:"pull_request_name"`
	Status            PullRequestStatus `json:"status"`
}

// PostPullRequestCreateJSONBody описывает тело запроса создания PR.
type PostPullRequestCreateJSONBody struct {
	AuthorId        string `json:"author_id"`
	PullRequestId   string `json:"pull_request_id"`
	PullRequestName string `json:"pull_request_name"`
}

// PostPullRequestMergeJSONBody описывает параметры запроса на Merge.
type PostPullRequestMergeJSONBody struct {
	PullRequestId string `json:"pull_request_id"`
}

// PostPullRequestReassignJSONBody описывает тело запроса на переназначение ревьюера.
type PostPullRequestReassignJSONBody struct {
	OldReviewerId string `json:"old_reviewer_id"`
	PullRequestId string `json:"pull_request_id"`
}

// PullRequestResponse описывает ответы create и merge.
type PullRequestResponse struct {
	PR *PullRequest `json:"pr"`
}

// ReassignResponse описывает ответ POST /pullRequest/reassign.
// ReplacedBy указатель: отсутствие поля в ответе само по себе ошибка.
type ReassignResponse struct {
	PR         *PullRequest `json:"pr"`
	ReplacedBy *string      `json:"replaced_by"`
}

// PullRequestStatus описывает статусы PR.
type PullRequestStatus string

// Возможные значения PullRequestStatus.
const (
	PullRequestStatusMERGED PullRequestStatus = "MERGED"
	PullRequestStatusOPEN   PullRequestStatus = "OPEN"
)
