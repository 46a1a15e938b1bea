package models

import "encoding/json"

// AssignmentStatsResponse описывает ответ GET /stats/reviewers/assignments.
// Assignments хранится сырым: проверяются и тип списка, и типы полей элементов.
type AssignmentStatsResponse struct {
	Assignments json.RawMessage `json:"assignments"`
}

// UserAssignmentStat показывает, сколько назначений у конкретного пользователя.
type UserAssignmentStat struct {
	UserId   string `json:"user_id"`
	Username string `json:"username"`
	Count    int    `json:"count"`
}

// StatsFilter задаёт фильтры запроса статистики.
type StatsFilter struct {
	Status     string
	ActiveOnly bool
}
