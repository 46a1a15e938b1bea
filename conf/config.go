package conf

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	configValidator = newConfigValidator()
	numberRegex     = regexp.MustCompile(`^\d+$`)
)

// Источники PR для сценария merge.
const (
	MergeSourceFixtures = "fixtures"
	MergeSourceMixed    = "mixed"
)

type Config struct {
	Target     TargetConf     `json:"target" validate:"required"`
	Load       LoadConf       `json:"load" validate:"required"`
	Fixtures   FixturesConf   `json:"fixtures"`
	Scenario   ScenarioConf   `json:"scenario"`
	Thresholds ThresholdsConf `json:"thresholds"`
	Report     ReportConf     `json:"report"`
	Status     StatusConf     `json:"status"`
	DBConf     DbConf         `json:"dataBase" validate:"-"`
}

type TargetConf struct {
	BaseURL        string   `json:"base_url" validate:"required,url"`
	RequestTimeout Duration `json:"request_timeout" validate:"gt=0"`
	HealthTimeout  Duration `json:"health_timeout" validate:"gte=0"`
	HealthPath     string   `json:"health_path"`
}

type LoadConf struct {
	Rate     float64  `json:"rate" validate:"gt=0"`
	TimeUnit Duration `json:"time_unit" validate:"gt=0"`
	Duration Duration `json:"duration" validate:"gt=0"`
	Workers  int      `json:"workers" validate:"gt=0"`
}

type FixturesConf struct {
	Dir              string `json:"dir"`
	UsersPath        string `json:"users_path"`
	TeamsPath        string `json:"teams_path"`
	PullRequestsPath string `json:"pull_requests_path"`
}

type ScenarioConf struct {
	// NonexistentReviewerRate доля запросов getReview с заведомо несуществующим пользователем.
	// По умолчанию 0: ветка никогда не срабатывает.
	NonexistentReviewerRate float64  `json:"nonexistent_reviewer_rate" validate:"gte=0,lte=1"`
	MergeSource             string   `json:"merge_source" validate:"oneof=fixtures mixed"`
	AssertMissingTeam       bool     `json:"assert_missing_team"`
	LatencyBudget           Duration `json:"latency_budget" validate:"gt=0"`
	TeamLatencyBudget       Duration `json:"team_latency_budget" validate:"gt=0"`
}

type ThresholdsConf struct {
	DurationPercentile float64  `json:"duration_percentile" validate:"gt=0,lte=100"`
	MaxDuration        Duration `json:"max_duration" validate:"gte=0"`
	MinCheckRate       float64  `json:"min_check_rate" validate:"gte=0,lte=1"`
}

type ReportConf struct {
	Path string `json:"path"`
}

type StatusConf struct {
	Host string `json:"host"`
	Port string `json:"port" validate:"omitempty,is-number"`
}

// GetAddress возвращает строку host:port для запуска статус-сервера.
func (s *StatusConf) GetAddress() string {
	return net.JoinHostPort(s.Host, s.Port)
}

// Enabled сообщает, нужно ли поднимать статус-сервер.
func (s *StatusConf) Enabled() bool {
	return s.Port != ""
}

type DbConf struct {
	Host     string `json:"host" validate:"required"`
	Port     string `json:"port" validate:"required,is-number"`
	User     string `json:"user" validate:"required"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name" validate:"required"`
}

// ConnString собирает DSN для pgx.
func (d *DbConf) ConnString() string {
	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   net.JoinHostPort(d.Host, d.Port),
		Path:   d.Name,
	}
	q := u.Query()
	q.Set("sslmode", "disable")
	u.RawQuery = q.Encode()
	return u.String()
}

// Duration позволяет писать длительности в JSON строками вида "2s" или числом наносекунд.
type Duration time.Duration

// Std возвращает значение как time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("duration must be a string or an integer: %w", err)
	}
	*d = Duration(n)
	return nil
}

// Default возвращает конфигурацию исходного сценария нагрузки: 5 rps в течение минуты.
func Default() Config {
	return Config{
		Target: TargetConf{
			BaseURL:        "http://localhost:8080",
			RequestTimeout: Duration(10 * time.Second),
			HealthTimeout:  Duration(30 * time.Second),
			HealthPath:     "/health",
		},
		Load: LoadConf{
			Rate:     5,
			TimeUnit: Duration(time.Second),
			Duration: Duration(time.Minute),
			Workers:  10,
		},
		Fixtures: FixturesConf{Dir: "./load_tests"},
		Scenario: ScenarioConf{
			MergeSource:       MergeSourceFixtures,
			LatencyBudget:     Duration(2 * time.Second),
			TeamLatencyBudget: Duration(3 * time.Second),
		},
		Thresholds: ThresholdsConf{
			DurationPercentile: 100,
			MaxDuration:        Duration(300 * time.Millisecond),
		},
	}
}

// MustLoad читает файл конфигурации, применяет значения из окружения и валидирует структуру.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err.Error())
	}
	return cfg
}

// Load работает как MustLoad, но возвращает ошибку. Пустой путь означает конфигурацию по умолчанию.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("could not read config file: %w", err)
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("could not parse config file: %w", err)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("invalid environment override: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate проверяет конфигурацию после применения всех переопределений (в том числе флагов CLI).
func (c *Config) Validate() error {
	if err := configValidator.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// ValidateDB проверяет секцию базы данных. Нужна только для выгрузки корпусов.
func (c *Config) ValidateDB() error {
	if err := configValidator.Struct(c.DBConf); err != nil {
		return fmt.Errorf("invalid database config: %w", err)
	}
	return nil
}

// applyEnvOverrides подменяет поля конфигурации значениями из переменных окружения.
func applyEnvOverrides(cfg *Config) error {
	var errs []error
	override := func(key string, target *string) {
		if val := os.Getenv(key); val != "" {
			*target = val
		}
	}
	overrideFloat := func(key string, target *float64) {
		if val := os.Getenv(key); val != "" {
			f, err := strconv.ParseFloat(val, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*target = f
		}
	}
	overrideInt := func(key string, target *int) {
		if val := os.Getenv(key); val != "" {
			n, err := strconv.Atoi(val)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*target = n
		}
	}
	overrideDuration := func(key string, target *Duration) {
		if val := os.Getenv(key); val != "" {
			d, err := time.ParseDuration(val)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*target = Duration(d)
		}
	}

	override("TARGET_BASE_URL", &cfg.Target.BaseURL)
	overrideFloat("LOAD_RATE", &cfg.Load.Rate)
	overrideDuration("LOAD_DURATION", &cfg.Load.Duration)
	overrideInt("LOAD_WORKERS", &cfg.Load.Workers)
	override("FIXTURES_DIR", &cfg.Fixtures.Dir)
	override("REPORT_PATH", &cfg.Report.Path)
	override("STATUS_PORT", &cfg.Status.Port)

	override("DB_HOST", &cfg.DBConf.Host)
	override("DB_PORT", &cfg.DBConf.Port)
	override("DB_USER", &cfg.DBConf.User)
	override("DB_PASSWORD", &cfg.DBConf.Password)
	override("DB_NAME", &cfg.DBConf.Name)

	return errors.Join(errs...)
}

// newConfigValidator настраивает валидатор и регистрирует пользовательские проверки.
func newConfigValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("is-number", func(fl validator.FieldLevel) bool {
		return numberRegex.MatchString(fl.Field().String())
	}); err != nil {
		panic("failed to register is-number validation: " + err.Error())
	}
	return v
}
