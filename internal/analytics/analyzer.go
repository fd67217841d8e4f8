package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	feedingdb "ms-canteen/internal/feeding/db"
	"ms-canteen/internal/logger"
	"ms-canteen/internal/models"
)

const DefaultMaxBatch = 5000

// Summarizer turns a serialized batch into the three analysis fields.
type Summarizer interface {
	Summarize(ctx context.Context, req models.SummaryRequest) (*models.AnalysisResult, error)
}

type EventSource interface {
	ConsumptionBatch(ctx context.Context, f feedingdb.Filter) ([]models.ConsumptionRecord, error)
}

// Analyzer validates consumption batches and hands them to a Summarizer.
// It has no side effects and keeps no state between calls.
type Analyzer struct {
	Summarizer Summarizer
	Source     EventSource
	MaxBatch   int
	Logger     *logger.Logger
}

func NewAnalyzer(summarizer Summarizer, source EventSource, maxBatch int, log *logger.Logger) *Analyzer {
	if maxBatch <= 0 {
		maxBatch = DefaultMaxBatch
	}
	if log == nil {
		log = logger.NewDiscard()
	}
	return &Analyzer{Summarizer: summarizer, Source: source, MaxBatch: maxBatch, Logger: log}
}

// Analyze summarizes records. An empty batch is models.ErrInsufficientData;
// any collaborator failure is reported as models.ErrSummarizationFailed.
func (a *Analyzer) Analyze(ctx context.Context, records []models.ConsumptionRecord) (*models.AnalysisResult, error) {
	if len(records) == 0 {
		return nil, models.ErrInsufficientData
	}
	for i, r := range records {
		if r.EmployeeID == "" {
			return nil, fmt.Errorf("%w: record %d has no employee id", models.ErrInvalidBatch, i)
		}
		if r.Timestamp.IsZero() {
			return nil, fmt.Errorf("%w: record %d has no timestamp", models.ErrInvalidBatch, i)
		}
	}

	batch := make([]models.ConsumptionRecord, len(records))
	copy(batch, records)
	sort.SliceStable(batch, func(i, j int) bool {
		return batch[i].Timestamp.Before(batch[j].Timestamp)
	})
	if len(batch) > a.MaxBatch {
		a.Logger.Debug("ANALYTICS", fmt.Sprintf("batch of %d trimmed to the latest %d", len(batch), a.MaxBatch))
		batch = batch[len(batch)-a.MaxBatch:]
	}

	payload, err := json.Marshal(batch)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize batch: %w", err)
	}

	result, err := a.Summarizer.Summarize(ctx, models.SummaryRequest{
		Events:       payload,
		EventCount:   len(batch),
		OutputSchema: models.AnalysisOutputSchema(),
	})
	if err != nil {
		a.Logger.Error("ANALYTICS", fmt.Sprintf("summarizer failed: %v", err))
		return nil, models.ErrSummarizationFailed
	}
	if result == nil || result.Trends == "" || result.PeakHours == "" || result.OverallAnalysis == "" {
		a.Logger.Error("ANALYTICS", "summarizer returned an incomplete analysis")
		return nil, models.ErrSummarizationFailed
	}

	a.Logger.Info("ANALYTICS", fmt.Sprintf("analyzed %d feeding events", len(batch)))
	return result, nil
}

// AnalyzeLog analyzes the most recent MaxBatch events in the filter's window.
func (a *Analyzer) AnalyzeLog(ctx context.Context, f feedingdb.Filter) (*models.AnalysisResult, error) {
	f.Limit = a.MaxBatch
	records, err := a.Source.ConsumptionBatch(ctx, f)
	if err != nil {
		return nil, err
	}
	return a.Analyze(ctx, records)
}
