package models

// Team описывает команду в формате API сервиса.
type Team struct {
	Members  []TeamMember `json:"members" validate:"dive"`
	TeamName string       `json:"team_name" validate:"required"`
}

// TeamMember описывает участника команды.
type TeamMember struct {
	IsActive bool   `json:"is_active"`
	UserId   string `json:"user_id" validate:"required"`
	Username string `json:"username"`
}

// TeamResponse описывает тело ответа POST /team/add.
type TeamResponse struct {
	Team *Team `json:"team"`
}
