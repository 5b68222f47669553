package output

import (
	"fmt"
	"unicode/utf8"
)

// TokenBudgetInfo describes how much of a model's context window a tool
// response would consume.
type TokenBudgetInfo struct {
	Tokens       int     // Estimated token count
	Budget       int     // Context window size in tokens
	BudgetLabel  string  // Human-readable budget label (e.g. "8k", "128k")
	UsagePercent float64 // Percentage of budget used
	Remaining    int     // Estimated tokens remaining
}

// Common context window sizes.
const (
	Budget8K   = 8000
	Budget16K  = 16000
	Budget32K  = 32000
	Budget64K  = 64000
	Budget128K = 128000
	Budget200K = 200000
)

// DefaultBudget is used when the caller doesn't state a window size.
const DefaultBudget = Budget128K

// CharsPerToken approximates the character-to-token ratio. Code skews
// higher than prose because of syntax and long identifiers; 4.0 is a
// reasonable estimate for code-heavy output.
const CharsPerToken = 4.0

// EstimateTokens returns an approximate token count for text. It is a
// character-based heuristic, not a tokenizer.
func EstimateTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	tokens := float64(utf8.RuneCountInString(text)) / CharsPerToken
	return int(tokens + 0.5)
}

// FormatTokenCount formats a token count for display. Counts of 1000 or
// more are shown as "X.Xk".
func FormatTokenCount(tokens int) string {
	if tokens < 1000 {
		return fmt.Sprintf("%d", tokens)
	}
	return fmt.Sprintf("%.1fk", float64(tokens)/1000)
}

// GetTokenBudgetInfo sizes text against a context window.
func GetTokenBudgetInfo(text string, budget int) TokenBudgetInfo {
	if budget <= 0 {
		budget = DefaultBudget
	}

	tokens := EstimateTokens(text)
	remaining := budget - tokens
	if remaining < 0 {
		remaining = 0
	}

	return TokenBudgetInfo{
		Tokens:       tokens,
		Budget:       budget,
		BudgetLabel:  formatBudgetLabel(budget),
		UsagePercent: float64(tokens) / float64(budget) * 100,
		Remaining:    remaining,
	}
}

func formatBudgetLabel(budget int) string {
	if budget >= 1000 {
		return fmt.Sprintf("%dk", budget/1000)
	}
	return fmt.Sprintf("%d", budget)
}
