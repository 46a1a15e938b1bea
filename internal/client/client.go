// Package client отправляет запросы к API сервиса назначения ревьюеров.
//
// Каждый метод возвращает Response по значению: транспортная ошибка не прерывает
// итерацию, а становится частью результата, который потом разбирают проверки.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/AlekseyZapadovnikov/pr-loadgen/internal/domain"
	"github.com/AlekseyZapadovnikov/pr-loadgen/internal/models"
)

// Endpoint имя эндпоинта для группировки латентностей.
type Endpoint string

// Эндпоинты тестируемого сервиса.
const (
	EndpointTeamAdd          Endpoint = "POST /team/add"
	EndpointTeamGet          Endpoint = "GET /team/get"
	EndpointUserSetIsActive  Endpoint = "POST /users/setIsActive"
	EndpointUserGetReview    Endpoint = "GET /users/getReview"
	EndpointPRCreate         Endpoint = "POST /pullRequest/create"
	EndpointPRMerge          Endpoint = "POST /pullRequest/merge"
	EndpointPRReassign       Endpoint = "POST /pullRequest/reassign"
	EndpointStatsAssignments Endpoint = "GET /stats/reviewers/assignments"
)

const defaultHealthPollInterval = time.Second

// Response результат одного HTTP-обмена.
type Response struct {
	Endpoint   Endpoint
	StatusCode int
	Duration   time.Duration
	Body       []byte
	Err        error
}

// Decode разбирает тело ответа как JSON.
func (r Response) Decode(v any) error {
	if r.Err != nil {
		return r.Err
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode %s response: %w", r.Endpoint, err)
	}
	return nil
}

// Client обёртка над resty с базовым URL сервиса.
type Client struct {
	http *resty.Client
}

// New создаёт клиента. Повторы запросов отключены: каждая неудача должна попасть в статистику.
func New(baseURL string, timeout time.Duration) *Client {
	c := resty.New()
	c.SetBaseURL(strings.TrimRight(baseURL, "/"))
	c.SetTimeout(timeout)
	c.SetRetryCount(0)
	c.SetHeader("Content-Type", "application/json")
	c.SetHeader("User-Agent", "pr-loadgen")
	return &Client{http: c}
}

// BaseURL возвращает адрес сервиса.
func (c *Client) BaseURL() string {
	return c.http.BaseURL
}

// AddTeam создаёт команду или обновляет её участников.
func (c *Client) AddTeam(ctx context.Context, team models.Team) Response {
	return c.do(ctx, EndpointTeamAdd, c.http.R().SetBody(team), http.MethodPost, "/team/add")
}

// GetTeam запрашивает команду по имени.
func (c *Client) GetTeam(ctx context.Context, teamName string) Response {
	return c.do(ctx, EndpointTeamGet, c.http.R().SetQueryParam("team_name", teamName), http.MethodGet, "/team/get")
}

// SetIsActive меняет признак активности пользователя.
func (c *Client) SetIsActive(ctx context.Context, body models.PostUsersSetIsActiveJSONBody) Response {
	return c.do(ctx, EndpointUserSetIsActive, c.http.R().SetBody(body), http.MethodPost, "/users/setIsActive")
}

// GetReview запрашивает PR, где пользователь назначен ревьюером.
func (c *Client) GetReview(ctx context.Context, userID string) Response {
	return c.do(ctx, EndpointUserGetReview, c.http.R().SetQueryParam("user_id", userID), http.MethodGet, "/users/getReview")
}

// CreatePullRequest создаёт PR.
func (c *Client) CreatePullRequest(ctx context.Context, body models.PostPullRequestCreateJSONBody) Response {
	return c.do(ctx, EndpointPRCreate, c.http.R().SetBody(body), http.MethodPost, "/pullRequest/create")
}

// MergePullRequest помечает PR как слитый.
func (c *Client) MergePullRequest(ctx context.Context, body models.PostPullRequestMergeJSONBody) Response {
	return c.do(ctx, EndpointPRMerge, c.http.R().SetBody(body), http.MethodPost, "/pullRequest/merge")
}

// ReassignPullRequest заменяет ревьюера PR.
func (c *Client) ReassignPullRequest(ctx context.Context, body models.PostPullRequestReassignJSONBody) Response {
	return c.do(ctx, EndpointPRReassign, c.http.R().SetBody(body), http.MethodPost, "/pullRequest/reassign")
}

// AssignmentStats запрашивает статистику назначений с необязательными фильтрами.
func (c *Client) AssignmentStats(ctx context.Context, filter models.StatsFilter) Response {
	req := c.http.R()
	if filter.Status != "" {
		req.SetQueryParam("status", filter.Status)
	}
	if filter.ActiveOnly {
		req.SetQueryParam("active_only", "true")
	}
	return c.do(ctx, EndpointStatsAssignments, req, http.MethodGet, "/stats/reviewers/assignments")
}

func (c *Client) do(ctx context.Context, endpoint Endpoint, req *resty.Request, method, path string) Response {
	start := time.Now()
	resp, err := req.SetContext(ctx).Execute(method, path)
	out := Response{Endpoint: endpoint, Duration: time.Since(start)}
	if err != nil {
		out.Err = fmt.Errorf("%s: %w", endpoint, err)
		return out
	}
	out.StatusCode = resp.StatusCode()
	out.Body = resp.Body()
	return out
}

// WaitHealthy опрашивает health-эндпоинт, пока он не вернёт 200 или не истечёт timeout.
func (c *Client) WaitHealthy(ctx context.Context, path string, timeout time.Duration) error {
	return c.waitHealthy(ctx, path, timeout, defaultHealthPollInterval)
}

func (c *Client) waitHealthy(ctx context.Context, path string, timeout, interval time.Duration) error {
	url := c.http.BaseURL + path
	deadline := time.Now().Add(timeout)
	var lastErr error
	for {
		resp, err := c.http.R().SetContext(ctx).Get(path)
		switch {
		case err != nil:
			lastErr = err
		case resp.StatusCode() == http.StatusOK:
			return nil
		default:
			lastErr = fmt.Errorf("unexpected status %d", resp.StatusCode())
		}

		if time.Now().Add(interval).After(deadline) {
			return domain.NewTargetUnhealthyError(url, lastErr)
		}
		select {
		case <-ctx.Done():
			return domain.NewTargetUnhealthyError(url, ctx.Err())
		case <-time.After(interval):
		}
	}
}
