package models

import "encoding/json"

// AnalysisResult is the structured summary of a batch of feeding events.
type AnalysisResult struct {
	Trends          string `json:"trends"`
	PeakHours       string `json:"peakHours"`
	OverallAnalysis string `json:"overallAnalysis"`
}

// SummaryRequest is what gets sent to a summarization collaborator.
type SummaryRequest struct {
	Events       json.RawMessage   `json:"events"`
	EventCount   int               `json:"event_count"`
	OutputSchema map[string]string `json:"output_schema"`
}

type AnalyzeRequest struct {
	Events []ConsumptionRecord `json:"events"`
}

// AnalysisOutputSchema describes the fields a summarizer must fill in.
func AnalysisOutputSchema() map[string]string {
	return map[string]string{
		"trends":          "free text describing how meal consumption changes over the period",
		"peakHours":       "free text naming the busiest hours of the day",
		"overallAnalysis": "free text overall assessment of canteen usage",
	}
}
