package scenario

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/AlekseyZapadovnikov/pr-loadgen/internal/models"
)

// isJSONArray проверяет, что значение поля является JSON-массивом (возможно пустым).
func isJSONArray(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return false
	}
	var items []json.RawMessage
	return json.Unmarshal(raw, &items) == nil
}

// assignmentsWellFormed проверяет, что у каждого элемента статистики есть непустые
// user_id и username, а count является числом.
func assignmentsWellFormed(raw json.RawMessage) bool {
	var items []map[string]any
	if err := json.Unmarshal(raw, &items); err != nil {
		return false
	}
	for _, item := range items {
		if !nonEmptyString(item["user_id"]) || !nonEmptyString(item["username"]) {
			return false
		}
		if _, ok := item["count"].(float64); !ok {
			return false
		}
	}
	return true
}

func nonEmptyString(v any) bool {
	s, ok := v.(string)
	return ok && s != ""
}

func anyMemberUpdated(members []models.TeamMember) bool {
	for _, m := range members {
		if strings.Contains(m.Username, updatedMarker) {
			return true
		}
	}
	return false
}

func latencyCheckName(action string, budget time.Duration) string {
	return fmt.Sprintf("%s time < %s", action, budget)
}

// isoTimestamp форматирует время в ISO 8601 в UTC с миллисекундами.
func isoTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}
