package checks

import "time"

// Category разделяет проверки по смыслу.
type Category string

// Категории проверок.
const (
	CategoryStatus  Category = "status"
	CategoryLatency Category = "latency"
	CategoryContent Category = "content"
)

// Check результат одной именованной проверки.
type Check struct {
	Scenario string
	Name     string
	Category Category
	Passed   bool
}

// RequestSample описывает один HTTP-обмен.
type RequestSample struct {
	Endpoint   string
	StatusCode int
	Duration   time.Duration
	Err        error
}

// Failed сообщает, считается ли обмен неуспешным: транспортная ошибка или статус >= 400.
func (s RequestSample) Failed() bool {
	return s.Err != nil || s.StatusCode >= 400
}

// Recorder принимает результаты итераций.
type Recorder interface {
	RecordCheck(c Check)
	RecordRequest(s RequestSample)
	RecordIteration(scenario string)
	RecordDropped()
}

// Scope привязывает проверки к сценарию.
type Scope struct {
	rec      Recorder
	scenario string
}

// NewScope создаёт Scope для сценария.
func NewScope(rec Recorder, scenario string) Scope {
	return Scope{rec: rec, scenario: scenario}
}

// Status записывает проверку кода ответа и возвращает её результат.
func (s Scope) Status(name string, passed bool) bool {
	return s.record(name, CategoryStatus, passed)
}

// Latency записывает проверку бюджета времени ответа.
func (s Scope) Latency(name string, passed bool) bool {
	return s.record(name, CategoryLatency, passed)
}

// Content записывает проверку содержимого ответа.
func (s Scope) Content(name string, passed bool) bool {
	return s.record(name, CategoryContent, passed)
}

func (s Scope) record(name string, cat Category, passed bool) bool {
	s.rec.RecordCheck(Check{Scenario: s.scenario, Name: name, Category: cat, Passed: passed})
	return passed
}
