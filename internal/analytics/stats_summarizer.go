package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"ms-canteen/internal/models"
	"ms-canteen/internal/utils"
)

// StatsSummarizer describes a batch from plain counts. It needs no network
// and gives the same text for the same batch.
type StatsSummarizer struct{}

func (StatsSummarizer) Summarize(ctx context.Context, req models.SummaryRequest) (*models.AnalysisResult, error) {
	var records []models.ConsumptionRecord
	if err := json.Unmarshal(req.Events, &records); err != nil {
		return nil, fmt.Errorf("cannot decode events: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no events to summarize")
	}

	perDay := map[string]int{}
	perHour := map[int]int{}
	perDept := map[string]int{}
	employees := map[string]struct{}{}
	for _, r := range records {
		perDay[utils.DayKey(r.Timestamp)]++
		perHour[r.Timestamp.UTC().Hour()]++
		if r.Department != "" {
			perDept[r.Department]++
		}
		employees[r.EmployeeID] = struct{}{}
	}

	days := make([]string, 0, len(perDay))
	for d := range perDay {
		days = append(days, d)
	}
	sort.Strings(days)

	return &models.AnalysisResult{
		Trends:          describeTrend(days, perDay),
		PeakHours:       describePeakHours(perHour),
		OverallAnalysis: describeOverall(len(records), len(employees), days, perDept),
	}, nil
}

func describeTrend(days []string, perDay map[string]int) string {
	if len(days) == 1 {
		return fmt.Sprintf("All %d meals were served on %s.", perDay[days[0]], days[0])
	}

	parts := make([]string, 0, len(days))
	for _, d := range days {
		parts = append(parts, fmt.Sprintf("%s: %d", d, perDay[d]))
	}

	first, last := perDay[days[0]], perDay[days[len(days)-1]]
	var direction string
	switch {
	case last > first:
		direction = fmt.Sprintf("rose by %d%%", (last-first)*100/first)
	case last < first:
		direction = fmt.Sprintf("fell by %d%%", (first-last)*100/first)
	default:
		direction = "held steady"
	}

	return fmt.Sprintf("Meals per day: %s. Daily consumption %s from %s to %s.",
		strings.Join(parts, ", "), direction, days[0], days[len(days)-1])
}

func describePeakHours(perHour map[int]int) string {
	hours := make([]int, 0, len(perHour))
	for h := range perHour {
		hours = append(hours, h)
	}
	sort.Slice(hours, func(i, j int) bool {
		if perHour[hours[i]] != perHour[hours[j]] {
			return perHour[hours[i]] > perHour[hours[j]]
		}
		return hours[i] < hours[j]
	})
	if len(hours) > 3 {
		hours = hours[:3]
	}

	parts := make([]string, 0, len(hours))
	for _, h := range hours {
		parts = append(parts, fmt.Sprintf("%02d:00-%02d:00 (%d meals)", h, (h+1)%24, perHour[h]))
	}
	return "Busiest hours (UTC): " + strings.Join(parts, ", ") + "."
}

func describeOverall(total, employees int, days []string, perDept map[string]int) string {
	avg := float64(total) / float64(len(days))
	text := fmt.Sprintf("%d meals were served to %d employees over %d day(s), an average of %.1f per day.",
		total, employees, len(days), avg)

	if len(perDept) > 0 {
		busiest, most := "", -1
		for dept, n := range perDept {
			if n > most || (n == most && dept < busiest) {
				busiest, most = dept, n
			}
		}
		text += fmt.Sprintf(" The busiest department was %s with %d meals.", busiest, most)
	}
	return text
}
