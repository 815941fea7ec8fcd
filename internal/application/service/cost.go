package service

import (
	"context"
	"fmt"

	"evalops/internal/application/common/slogger"
	"evalops/internal/domain/entity"
	domainerrors "evalops/internal/domain/errors/domain"
	"evalops/internal/domain/valueobject"
)

// BudgetStatus represents the budget state of an estimated run.
type BudgetStatus int

const (
	// BudgetHealthy indicates the estimate is comfortably under the limit.
	BudgetHealthy BudgetStatus = iota
	// BudgetWarning indicates the estimate is approaching the limit.
	BudgetWarning
	// BudgetExceeded indicates the estimate is over the limit.
	BudgetExceeded
)

// String returns a human-readable representation of the budget status.
func (s BudgetStatus) String() string {
	switch s {
	case BudgetHealthy:
		return "HEALTHY"
	case BudgetWarning:
		return "WARNING"
	case BudgetExceeded:
		return "EXCEEDED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int(s))
	}
}

// modelCost holds per-million-token prices in USD.
type modelCost struct {
	inputPerMTok  float64
	outputPerMTok float64
}

// modelCostTable lists the evaluation models the estimator knows prices for.
//
//nolint:gochecknoglobals // Immutable price table.
var modelCostTable = map[string]modelCost{
	"gpt-4o":           {inputPerMTok: 2.50, outputPerMTok: 10.00},
	"gpt-4o-mini":      {inputPerMTok: 0.15, outputPerMTok: 0.60},
	"claude-sonnet-4":  {inputPerMTok: 3.00, outputPerMTok: 15.00},
	"claude-haiku-3-5": {inputPerMTok: 0.80, outputPerMTok: 4.00},
	"gemini-2.0-flash": {inputPerMTok: 0.10, outputPerMTok: 0.40},
}

// charsPerToken is the crude character-to-token ratio used for estimates.
const charsPerToken = 4

// assumedOutputTokens is the flat per-case output allowance in the estimate.
const assumedOutputTokens = 512

// RunEstimate is the estimated cost of evaluating a set of test cases once.
type RunEstimate struct {
	Model        string
	TestCases    int
	InputTokens  int64
	OutputTokens int64
	CostUSD      float64
}

// BudgetReport is the result of comparing an estimate against a budget.
type BudgetReport struct {
	Estimate   RunEstimate
	MaxCostUSD float64
	WarnRatio  float64
	Status     BudgetStatus
}

// CostEstimator estimates evaluation run costs from a static model price
// table and compares them against a configured budget.
type CostEstimator struct {
	model      string
	maxCostUSD float64
	warnRatio  float64
}

// NewCostEstimator creates a CostEstimator for the given model. The model
// must be present in the cost table.
func NewCostEstimator(model string, maxCostUSD, warnRatio float64) (*CostEstimator, error) {
	if _, ok := modelCostTable[model]; !ok {
		return nil, fmt.Errorf("%w: %s", domainerrors.ErrUnknownCostModel, model)
	}
	if warnRatio <= 0 || warnRatio > 1 {
		warnRatio = 0.8
	}
	return &CostEstimator{model: model, maxCostUSD: maxCostUSD, warnRatio: warnRatio}, nil
}

// EstimateRun estimates the one-shot evaluation cost of the given test cases.
// Input tokens are derived from each case's prompt and code text with the
// chars-per-token heuristic; output tokens use a flat per-case allowance.
func (e *CostEstimator) EstimateRun(ctx context.Context, cases []entity.ParsedTestCase) RunEstimate {
	cost := modelCostTable[e.model]

	var inputChars int64
	for _, tc := range cases {
		if code, ok := tc.Variables["code"].(string); ok {
			inputChars += int64(len(code))
		}
		inputChars += promptChars(tc.Prompt)
		inputChars += int64(len(tc.Description))
	}

	inputTokens := inputChars / charsPerToken
	outputTokens := int64(len(cases)) * assumedOutputTokens

	estimate := RunEstimate{
		Model:        e.model,
		TestCases:    len(cases),
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		CostUSD: float64(inputTokens)/1e6*cost.inputPerMTok +
			float64(outputTokens)/1e6*cost.outputPerMTok,
	}

	slogger.Debug(ctx, "Run cost estimated", slogger.Fields{
		"model":         estimate.Model,
		"test_cases":    estimate.TestCases,
		"input_tokens":  estimate.InputTokens,
		"output_tokens": estimate.OutputTokens,
		"cost_usd":      estimate.CostUSD,
	})

	return estimate
}

// CheckBudget compares an estimate against the configured budget. A zero max
// cost disables the check and always reports HEALTHY.
func (e *CostEstimator) CheckBudget(ctx context.Context, estimate RunEstimate) BudgetReport {
	report := BudgetReport{
		Estimate:   estimate,
		MaxCostUSD: e.maxCostUSD,
		WarnRatio:  e.warnRatio,
		Status:     BudgetHealthy,
	}

	if e.maxCostUSD <= 0 {
		return report
	}

	switch {
	case estimate.CostUSD > e.maxCostUSD:
		report.Status = BudgetExceeded
		slogger.Warn(ctx, "Estimated cost exceeds budget", slogger.Fields{
			"cost_usd": estimate.CostUSD,
			"max_usd":  e.maxCostUSD,
		})
	case estimate.CostUSD > e.maxCostUSD*e.warnRatio:
		report.Status = BudgetWarning
		slogger.Warn(ctx, "Estimated cost is approaching the budget", slogger.Fields{
			"cost_usd": estimate.CostUSD,
			"max_usd":  e.maxCostUSD,
		})
	}

	return report
}

// SupportedModels lists the models present in the cost table.
func SupportedModels() []string {
	models := make([]string, 0, len(modelCostTable))
	for model := range modelCostTable {
		models = append(models, model)
	}
	return models
}

// promptChars sizes a test case's prompt in characters, handling both the
// plain-string and message-sequence forms.
func promptChars(prompt interface{}) int64 {
	switch typed := prompt.(type) {
	case string:
		return int64(len(typed))
	case []valueobject.PromptMessage:
		var total int64
		for _, m := range typed {
			total += int64(len(m.Role) + len(m.Content))
		}
		return total
	default:
		return 0
	}
}
