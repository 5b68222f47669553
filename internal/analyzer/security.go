package analyzer

import (
	"bufio"
	"context"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/codeprism/codeprism/internal/fileproc"
)

// Severity grades a finding.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

func (s Severity) String() string { return string(s) }

// Finding is one flagged location.
type Finding struct {
	Rule     string   `json:"rule" toon:"rule"`
	Severity Severity `json:"severity" toon:"severity"`
	File     string   `json:"file" toon:"file"`
	Line     int      `json:"line" toon:"line"`
	Snippet  string   `json:"snippet" toon:"snippet"`
	Message  string   `json:"message" toon:"message"`
}

// SecurityReport aggregates findings across the project.
type SecurityReport struct {
	Findings   []Finding        `json:"findings" toon:"findings"`
	ByRule     map[string]int   `json:"by_rule" toon:"by_rule"`
	BySeverity map[Severity]int `json:"by_severity" toon:"by_severity"`
}

type securityRule struct {
	name     string
	severity Severity
	pattern  *regexp.Regexp
	message  string
}

var securityRules = []securityRule{
	{
		name:     "hardcoded-secret",
		severity: SeverityHigh,
		pattern:  regexp.MustCompile(`(?i)(password|passwd|secret|api[_-]?key|access[_-]?token|auth[_-]?token)\s*[:=]\s*["'][^"']{4,}["']`),
		message:  "credential assigned from a string literal",
	},
	{
		name:     "sql-string-concat",
		severity: SeverityHigh,
		pattern:  regexp.MustCompile(`(?i)(select|insert|update|delete)\b[^"']*["'][^"']*["']\s*(\+|%|\|\|)\s*\w|["'][^"']*\b(select|insert into|update|delete from)\b[^"']*["']\s*(\+|%)\s*`),
		message:  "SQL statement built by string concatenation",
	},
	{
		name:     "sql-format-string",
		severity: SeverityHigh,
		pattern:  regexp.MustCompile(`(?i)f["'][^"']*\b(select|insert into|update|delete from)\b[^"']*\{|\.format\([^)]*\)\s*$.*\bselect\b|Sprintf\([^)]*\b(SELECT|INSERT INTO|UPDATE|DELETE FROM)\b`),
		message:  "SQL statement built with string formatting",
	},
	{
		name:     "dynamic-eval",
		severity: SeverityHigh,
		pattern:  regexp.MustCompile(`\b(eval|exec)\s*\(`),
		message:  "dynamic code evaluation",
	},
	{
		name:     "weak-hash",
		severity: SeverityMedium,
		pattern:  regexp.MustCompile(`(?i)\b(md5|sha1)\s*(\.|\()`),
		message:  "weak hash algorithm",
	},
	{
		name:     "shell-injection",
		severity: SeverityHigh,
		pattern:  regexp.MustCompile(`shell\s*=\s*True|os\.system\s*\(|child_process\.exec\s*\(|exec\.Command\([^)]*\+`),
		message:  "shell command built from program data",
	},
	{
		name:     "insecure-random",
		severity: SeverityLow,
		pattern:  regexp.MustCompile(`math/rand|Math\.random\s*\(|random\.random\s*\(`),
		message:  "non-cryptographic randomness; unsafe for tokens or keys",
	},
	{
		name:     "insecure-transport",
		severity: SeverityMedium,
		pattern:  regexp.MustCompile(`InsecureSkipVerify\s*:\s*true|verify\s*=\s*False|rejectUnauthorized\s*:\s*false`),
		message:  "TLS verification disabled",
	},
}

// SecurityAnalyzer scans source lines for insecure constructs.
type SecurityAnalyzer struct {
	Workers int
}

// NewSecurityAnalyzer creates a scanner with the default rule set.
func NewSecurityAnalyzer() *SecurityAnalyzer { return &SecurityAnalyzer{} }

// AnalyzeFiles scans each file line by line against every rule.
func (a *SecurityAnalyzer) AnalyzeFiles(ctx context.Context, files []string, onProgress fileproc.ProgressFunc) (*SecurityReport, error) {
	results, errs := fileproc.ForEachFile(ctx, files, a.Workers, scanFileSecurity, onProgress)
	if errs != nil && len(results) == 0 {
		return nil, errs
	}

	report := &SecurityReport{
		ByRule:     make(map[string]int),
		BySeverity: make(map[Severity]int),
	}
	for _, findings := range results {
		report.Findings = append(report.Findings, findings...)
	}
	sort.Slice(report.Findings, func(i, j int) bool {
		if report.Findings[i].File != report.Findings[j].File {
			return report.Findings[i].File < report.Findings[j].File
		}
		return report.Findings[i].Line < report.Findings[j].Line
	})
	for _, f := range report.Findings {
		report.ByRule[f.Rule]++
		report.BySeverity[f.Severity]++
	}
	return report, nil
}

func scanFileSecurity(path string) ([]Finding, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var findings []Finding
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || isCommentLine(trimmed) {
			continue
		}
		for _, rule := range securityRules {
			if rule.pattern.MatchString(line) {
				findings = append(findings, Finding{
					Rule:     rule.name,
					Severity: rule.severity,
					File:     path,
					Line:     lineNo,
					Snippet:  truncate(trimmed, 120),
					Message:  rule.message,
				})
			}
		}
	}
	return findings, sc.Err()
}

func isCommentLine(line string) bool {
	return strings.HasPrefix(line, "//") || strings.HasPrefix(line, "#") ||
		strings.HasPrefix(line, "*") || strings.HasPrefix(line, "/*")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
