package domain

import (
	"errors"
	"fmt"
)

// Сентинельные ошибки, которые прерывают запуск на этапе подготовки или по его итогам.
var (
	ErrFixtureMissing    = errors.New("FIXTURE_MISSING")
	ErrFixtureMalformed  = errors.New("FIXTURE_MALFORMED")
	ErrFixtureInvalid    = errors.New("FIXTURE_INVALID")
	ErrTargetUnhealthy   = errors.New("TARGET_UNHEALTHY")
	ErrThresholdsCrossed = errors.New("THRESHOLDS_CROSSED")
	ErrUnknownScenario   = errors.New("UNKNOWN_SCENARIO")
)

// NewFixtureMissingError сообщает, что файл корпуса не удалось прочитать.
func NewFixtureMissingError(path string, cause error) error {
	return fmt.Errorf("%w: %s: %w", ErrFixtureMissing, path, cause)
}

// NewFixtureMalformedError сообщает, что файл корпуса не является корректным JSON нужной формы.
func NewFixtureMalformedError(path string, cause error) error {
	return fmt.Errorf("%w: %s: %w", ErrFixtureMalformed, path, cause)
}

// NewFixtureInvalidError сообщает о нарушении ограничений корпуса (пустой набор, пустые идентификаторы).
func NewFixtureInvalidError(corpus, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrFixtureInvalid, corpus, reason)
}

// NewTargetUnhealthyError возвращается, когда сервис не ответил на health-check вовремя.
func NewTargetUnhealthyError(url string, cause error) error {
	return fmt.Errorf("%w: %s: %w", ErrTargetUnhealthy, url, cause)
}

// NewThresholdsCrossedError перечисляет нарушенные пороги.
func NewThresholdsCrossedError(names []string) error {
	return fmt.Errorf("%w: %v", ErrThresholdsCrossed, names)
}

// NewUnknownScenarioError используется, когда имя сценария не найдено в таблице.
func NewUnknownScenarioError(name string) error {
	return fmt.Errorf("%w: %s", ErrUnknownScenario, name)
}
