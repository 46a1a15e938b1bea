// Package scenario выбирает и выполняет сценарии нагрузки на сервис назначения ревьюеров.
//
// Одна итерация: одно случайное число, один сценарий, один (для merge два) HTTP-обмена
// и набор мягких проверок. Проверки записываются в checks.Recorder и не прерывают итерацию.
package scenario

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/AlekseyZapadovnikov/pr-loadgen/conf"
	"github.com/AlekseyZapadovnikov/pr-loadgen/internal/checks"
	"github.com/AlekseyZapadovnikov/pr-loadgen/internal/client"
	"github.com/AlekseyZapadovnikov/pr-loadgen/internal/fixtures"
	"github.com/AlekseyZapadovnikov/pr-loadgen/internal/models"
)

const defaultCreatedPoolSize = 1024

// Target API тестируемого сервиса. *client.Client удовлетворяет интерфейсу.
type Target interface {
	AddTeam(ctx context.Context, team models.Team) client.Response
	GetTeam(ctx context.Context, teamName string) client.Response
	SetIsActive(ctx context.Context, body models.PostUsersSetIsActiveJSONBody) client.Response
	GetReview(ctx context.Context, userID string) client.Response
	CreatePullRequest(ctx context.Context, body models.PostPullRequestCreateJSONBody) client.Response
	MergePullRequest(ctx context.Context, body models.PostPullRequestMergeJSONBody) client.Response
	ReassignPullRequest(ctx context.Context, body models.PostPullRequestReassignJSONBody) client.Response
	AssignmentStats(ctx context.Context, filter models.StatsFilter) client.Response
}

// Random источник случайности. *rand.Rand из math/rand/v2 удовлетворяет интерфейсу.
type Random interface {
	Float64() float64
	IntN(n int) int
	Shuffle(n int, swap func(i, j int))
}

// globalRandom использует функции пакета math/rand/v2, безопасные для горутин.
type globalRandom struct{}

func (globalRandom) Float64() float64                   { return rand.Float64() }
func (globalRandom) IntN(n int) int                     { return rand.IntN(n) }
func (globalRandom) Shuffle(n int, swap func(i, j int)) { rand.Shuffle(n, swap) }

// Options параметры сценариев.
type Options struct {
	NonexistentReviewerRate float64
	MergeSource             string
	AssertMissingTeam       bool
	LatencyBudget           time.Duration
	TeamLatencyBudget       time.Duration
	// CreatedPoolSize ограничивает число запоминаемых созданных PR при MergeSource = mixed.
	CreatedPoolSize int
}

// DefaultOptions возвращает параметры по умолчанию.
func DefaultOptions() Options {
	return Options{
		MergeSource:       conf.MergeSourceFixtures,
		LatencyBudget:     2 * time.Second,
		TeamLatencyBudget: 3 * time.Second,
		CreatedPoolSize:   defaultCreatedPoolSize,
	}
}

// OptionsFromConfig переносит секцию scenario конфигурации в Options.
func OptionsFromConfig(c conf.ScenarioConf) Options {
	opts := DefaultOptions()
	opts.NonexistentReviewerRate = c.NonexistentReviewerRate
	opts.AssertMissingTeam = c.AssertMissingTeam
	if c.MergeSource != "" {
		opts.MergeSource = c.MergeSource
	}
	if c.LatencyBudget > 0 {
		opts.LatencyBudget = c.LatencyBudget.Std()
	}
	if c.TeamLatencyBudget > 0 {
		opts.TeamLatencyBudget = c.TeamLatencyBudget.Std()
	}
	return opts
}

// Runner выполняет итерации. Безопасен для одновременного вызова из нескольких горутин,
// если Random безопасен (по умолчанию это так).
type Runner struct {
	target Target
	store  *fixtures.Store
	rec    checks.Recorder
	rnd    Random
	opts   Options
	now    func() time.Time

	created *createdPool
}

// NewRunner создаёт Runner.
func NewRunner(target Target, store *fixtures.Store, rec checks.Recorder, opts Options) *Runner {
	if opts.CreatedPoolSize <= 0 {
		opts.CreatedPoolSize = defaultCreatedPoolSize
	}
	r := &Runner{
		target: target,
		store:  store,
		rec:    rec,
		rnd:    globalRandom{},
		opts:   opts,
		now:    time.Now,
	}
	if opts.MergeSource == conf.MergeSourceMixed {
		r.created = newCreatedPool(opts.CreatedPoolSize)
	}
	return r
}

// SetRandom заменяет источник случайности. Вызывать до начала нагрузки.
func (r *Runner) SetRandom(rnd Random) {
	r.rnd = rnd
}

// RunIteration выбирает сценарий по таблице и выполняет его.
func (r *Runner) RunIteration(ctx context.Context) Kind {
	kind := Pick(r.rnd.Float64())
	r.Run(ctx, kind)
	return kind
}

// Run выполняет конкретный сценарий.
func (r *Runner) Run(ctx context.Context, kind Kind) {
	r.rec.RecordIteration(kind.String())
	scope := checks.NewScope(r.rec, kind.String())

	switch kind {
	case GetReview:
		r.getReview(ctx, scope)
	case GetTeam:
		r.getTeam(ctx, scope)
	case StatsAssignments:
		r.statsAssignments(ctx, scope)
	case CreatePR:
		r.createPR(ctx, scope)
	case MergePR:
		r.mergePR(ctx, scope)
	case SetIsActive:
		r.setIsActive(ctx, scope)
	case UpdateTeam:
		r.updateTeam(ctx, scope)
	case ReassignPR:
		r.reassignPR(ctx, scope)
	case CreateTeam:
		r.createTeam(ctx, scope)
	default:
		slog.Warn("unknown scenario", "kind", int(kind))
	}
}

// observe записывает обмен в статистику запросов.
func (r *Runner) observe(resp client.Response) client.Response {
	r.rec.RecordRequest(checks.RequestSample{
		Endpoint:   string(resp.Endpoint),
		StatusCode: resp.StatusCode,
		Duration:   resp.Duration,
		Err:        resp.Err,
	})
	if resp.Err != nil {
		slog.Debug("request failed", "endpoint", resp.Endpoint, "error", resp.Err)
	}
	return resp
}

func withinBudget(resp client.Response, budget time.Duration) bool {
	return resp.Err == nil && resp.Duration < budget
}

// createdPool ограниченный набор PR, созданных во время прогона.
// При переполнении новые идентификаторы вытесняют старые по кругу.
type createdPool struct {
	mu   sync.Mutex
	ids  []string
	next int
}

func newCreatedPool(size int) *createdPool {
	return &createdPool{ids: make([]string, 0, size)}
}

func (p *createdPool) add(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.ids) < cap(p.ids) {
		p.ids = append(p.ids, id)
		return
	}
	p.ids[p.next] = id
	p.next = (p.next + 1) % len(p.ids)
}

func (p *createdPool) pick(rnd Random) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.ids) == 0 {
		return "", false
	}
	return p.ids[rnd.IntN(len(p.ids))], true
}

func (p *createdPool) len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.ids)
}
