// Package fixtures хранит корпуса пользователей, команд и PR, из которых сценарии выбирают сущности.
//
// Корпуса загружаются один раз до старта нагрузки и дальше только читаются,
// поэтому Store разделяется между горутинами без блокировок.
package fixtures

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"

	"github.com/AlekseyZapadovnikov/pr-loadgen/conf"
	"github.com/AlekseyZapadovnikov/pr-loadgen/internal/domain"
	"github.com/AlekseyZapadovnikov/pr-loadgen/internal/models"
)

// Имена файлов корпусов по умолчанию.
const (
	UsersFile        = "users.data.json"
	TeamsFile        = "teams.data.json"
	PullRequestsFile = "prs.data.json"
)

var corpusValidator = validator.New()

// Paths указывает, откуда читать корпуса.
type Paths struct {
	Users        string `json:"users_path"`
	Teams        string `json:"teams_path"`
	PullRequests string `json:"pull_requests_path"`
}

// DirPaths возвращает стандартные пути корпусов внутри каталога.
func DirPaths(dir string) Paths {
	return Paths{
		Users:        filepath.Join(dir, UsersFile),
		Teams:        filepath.Join(dir, TeamsFile),
		PullRequests: filepath.Join(dir, PullRequestsFile),
	}
}

// PathsFromConfig берёт стандартные имена внутри каталога и подменяет те, что заданы явно.
func PathsFromConfig(c conf.FixturesConf) Paths {
	p := DirPaths(c.Dir)
	if c.UsersPath != "" {
		p.Users = c.UsersPath
	}
	if c.TeamsPath != "" {
		p.Teams = c.TeamsPath
	}
	if c.PullRequestsPath != "" {
		p.PullRequests = c.PullRequestsPath
	}
	return p
}

// Store неизменяемый набор корпусов.
type Store struct {
	users        []string
	teams        []models.Team
	pullRequests []models.FixturePullRequest
}

type corpus struct {
	Users        []models.UserRef            `validate:"min=1,dive,required"`
	Teams        []models.Team               `validate:"min=1,dive"`
	PullRequests []models.FixturePullRequest `validate:"min=1,dive"`
}

// Load читает три JSON-файла и проверяет их содержимое.
// Любая ошибка здесь фатальна для запуска.
func Load(paths Paths) (*Store, error) {
	var c corpus
	if err := readJSON(paths.Users, &c.Users); err != nil {
		return nil, err
	}
	if err := readJSON(paths.Teams, &c.Teams); err != nil {
		return nil, err
	}
	if err := readJSON(paths.PullRequests, &c.PullRequests); err != nil {
		return nil, err
	}
	return fromCorpus(c)
}

// New собирает Store из уже подготовленных данных, применяя те же проверки, что и Load.
func New(users []string, teams []models.Team, prs []models.FixturePullRequest) (*Store, error) {
	refs := make([]models.UserRef, 0, len(users))
	for _, u := range users {
		refs = append(refs, models.UserRef(u))
	}
	return fromCorpus(corpus{Users: refs, Teams: teams, PullRequests: prs})
}

func fromCorpus(c corpus) (*Store, error) {
	if err := corpusValidator.Struct(c); err != nil {
		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) && len(vErrs) > 0 {
			return nil, domain.NewFixtureInvalidError(vErrs[0].Namespace(), vErrs[0].Tag())
		}
		return nil, domain.NewFixtureInvalidError("corpus", err.Error())
	}

	users := make([]string, 0, len(c.Users))
	for _, u := range c.Users {
		users = append(users, string(u))
	}
	return &Store{
		users:        users,
		teams:        c.Teams,
		pullRequests: c.PullRequests,
	}, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.NewFixtureMissingError(path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return domain.NewFixtureMalformedError(path, err)
	}
	return nil
}

// NumUsers возвращает размер корпуса пользователей.
func (s *Store) NumUsers() int { return len(s.users) }

// NumTeams возвращает размер корпуса команд.
func (s *Store) NumTeams() int { return len(s.teams) }

// NumPullRequests возвращает размер корпуса PR.
func (s *Store) NumPullRequests() int { return len(s.pullRequests) }

// User возвращает идентификатор пользователя по индексу.
func (s *Store) User(i int) string { return s.users[i] }

// Team возвращает команду по индексу. Срез участников общий, его нельзя менять.
func (s *Store) Team(i int) models.Team { return s.teams[i] }

// PullRequest возвращает PR по индексу. Срез ревьюеров общий, его нельзя менять.
func (s *Store) PullRequest(i int) models.FixturePullRequest { return s.pullRequests[i] }

// Save пишет корпуса в JSON-файлы в том же формате, который читает Load.
func (s *Store) Save(paths Paths) error {
	files := []struct {
		path string
		data any
	}{
		{paths.Users, s.users},
		{paths.Teams, s.teams},
		{paths.PullRequests, s.pullRequests},
	}
	for _, f := range files {
		if err := writeJSON(f.path, f.data); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", path, err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
