// Package ident генерирует синтетические идентификаторы для сущностей, создаваемых нагрузкой.
package ident

import "github.com/google/uuid"

// Префиксы идентификаторов. Суффикс всегда UUIDv4, поэтому с данными корпуса они не пересекаются.
const (
	UserPrefix        = "k6user"
	TeamPrefix        = "k6team"
	PullRequestPrefix = "k6pullReq"
	NewUsernamePrefix = "newUserName"
	UpdatedPrefix     = "updated_"
	MissingTeamPrefix = "no-exists"
	MissingUserPrefix = "non_exists"
	separator         = "_"
)

// GenStr склеивает префикс, разделитель и случайный 128-битный токен.
func GenStr(prefix string) string {
	return prefix + separator + uuid.NewString()
}
