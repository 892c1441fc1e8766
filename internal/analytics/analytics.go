package analytics

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"office-assistant/internal/storage"
)

// Turns whose tool_used starts with this prefix asked the user a question
// instead of acting.
const clarificationPrefix = "waiting_for_"

// DailyStats summarizes one UTC day of recorded turns.
type DailyStats struct {
	Date              string                  `json:"date"`
	TotalTurns        int                     `json:"total_turns"`
	UniqueSessions    int                     `json:"unique_sessions"`
	Clarifications    int                     `json:"clarifications"`
	ClarificationRate float64                 `json:"clarification_rate"`
	TurnsByTool       map[string]int          `json:"turns_by_tool"`
	SessionStats      map[string]SessionStats `json:"session_stats"`
}

type SessionStats struct {
	SessionKey     string `json:"session_key"`
	Turns          int    `json:"turns"`
	Clarifications int    `json:"clarifications"`
}

// AnalyzeDay counts the turns recorded during targetDate's calendar day.
func AnalyzeDay(records []storage.TurnRecord, targetDate time.Time) *DailyStats {
	startOfDay := time.Date(targetDate.Year(), targetDate.Month(), targetDate.Day(), 0, 0, 0, 0, targetDate.Location())
	endOfDay := startOfDay.AddDate(0, 0, 1)

	stats := &DailyStats{
		Date:         startOfDay.Format("2006-01-02"),
		TurnsByTool:  make(map[string]int),
		SessionStats: make(map[string]SessionStats),
	}

	for _, rec := range records {
		if rec.Timestamp.Before(startOfDay) || !rec.Timestamp.Before(endOfDay) {
			continue
		}
		if rec.UserMessage == "" {
			continue
		}

		stats.TotalTurns++
		stats.TurnsByTool[rec.ToolUsed]++

		ss := stats.SessionStats[rec.SessionKey]
		ss.SessionKey = rec.SessionKey
		ss.Turns++
		if strings.HasPrefix(rec.ToolUsed, clarificationPrefix) {
			ss.Clarifications++
			stats.Clarifications++
		}
		stats.SessionStats[rec.SessionKey] = ss
	}

	stats.UniqueSessions = len(stats.SessionStats)
	if stats.TotalTurns > 0 {
		stats.ClarificationRate = float64(stats.Clarifications) / float64(stats.TotalTurns)
	}
	return stats
}

// Summary renders the stats as a short plain-text report.
func (ds *DailyStats) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Office assistant usage for %s:\n", ds.Date)
	fmt.Fprintf(&b, "- Turns: %d\n", ds.TotalTurns)
	fmt.Fprintf(&b, "- Sessions: %d\n", ds.UniqueSessions)
	fmt.Fprintf(&b, "- Clarification rate: %.0f%%\n", ds.ClarificationRate*100)

	if len(ds.TurnsByTool) > 0 {
		tools := make([]string, 0, len(ds.TurnsByTool))
		for name := range ds.TurnsByTool {
			tools = append(tools, name)
		}
		sort.Strings(tools)
		b.WriteString("Outcomes:\n")
		for _, name := range tools {
			fmt.Fprintf(&b, "- %s: %d\n", name, ds.TurnsByTool[name])
		}
	}
	return b.String()
}

func (ds *DailyStats) ToJSON() (string, error) {
	data, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
