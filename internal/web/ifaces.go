package web

import "github.com/AlekseyZapadovnikov/pr-loadgen/internal/checks"

// StatsSource отдаёт текущий снимок статистики. *checks.Sink удовлетворяет интерфейсу.
type StatsSource interface {
	Snapshot() checks.Snapshot
}

// WorkerGauge сообщает число занятых воркеров.
type WorkerGauge interface {
	ActiveWorkers() int
}
