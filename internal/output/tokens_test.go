package output

import "testing"

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		name string
		text string
		min  int
		max  int
	}{
		{"empty", "", 0, 0},
		{"sentence", "Hello, world!", 2, 5},
		{"code", "func main() { fmt.Println(\"hello\") }", 8, 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EstimateTokens(tt.text)
			if got < tt.min || got > tt.max {
				t.Errorf("EstimateTokens(%q) = %d, want %d..%d", tt.text, got, tt.min, tt.max)
			}
		})
	}
}

func TestFormatTokenCount(t *testing.T) {
	tests := []struct {
		tokens int
		want   string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1.0k"},
		{1500, "1.5k"},
		{128000, "128.0k"},
	}

	for _, tt := range tests {
		if got := FormatTokenCount(tt.tokens); got != tt.want {
			t.Errorf("FormatTokenCount(%d) = %q, want %q", tt.tokens, got, tt.want)
		}
	}
}

func TestGetTokenBudgetInfo(t *testing.T) {
	info := GetTokenBudgetInfo("abcd", 0)
	if info.Budget != DefaultBudget {
		t.Errorf("Budget = %d, want default %d", info.Budget, DefaultBudget)
	}
	if info.Tokens != 1 {
		t.Errorf("Tokens = %d, want 1", info.Tokens)
	}
	if info.BudgetLabel != "128k" {
		t.Errorf("BudgetLabel = %q", info.BudgetLabel)
	}
	if info.Remaining != DefaultBudget-1 {
		t.Errorf("Remaining = %d", info.Remaining)
	}

	over := GetTokenBudgetInfo("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", 5)
	if over.Remaining != 0 {
		t.Errorf("Remaining = %d, want clamped 0", over.Remaining)
	}
	if over.UsagePercent <= 100 {
		t.Errorf("UsagePercent = %f, want over 100", over.UsagePercent)
	}
}
