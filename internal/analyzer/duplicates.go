package analyzer

import (
	"context"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/codeprism/codeprism/internal/fileproc"
)

// CloneInstance is one occurrence of a duplicated block.
type CloneInstance struct {
	File      string `json:"file" toon:"file"`
	StartLine int    `json:"start_line" toon:"start_line"`
	EndLine   int    `json:"end_line" toon:"end_line"`
}

// CloneGroup is a set of near-identical blocks.
type CloneGroup struct {
	Instances  []CloneInstance `json:"instances" toon:"instances"`
	Lines      int             `json:"lines" toon:"lines"`
	Similarity float64         `json:"similarity" toon:"similarity"`
}

// DuplicateReport is the project-wide duplication result.
type DuplicateReport struct {
	Groups          []CloneGroup `json:"groups" toon:"groups"`
	DuplicatedLines int          `json:"duplicated_lines" toon:"duplicated_lines"`
	TotalLines      int          `json:"total_lines" toon:"total_lines"`
	Ratio           float64      `json:"ratio" toon:"ratio"`
}

// DuplicateAnalyzer finds copy-pasted blocks by fingerprinting windows of
// normalized lines.
type DuplicateAnalyzer struct {
	// MinLines is the smallest block reported.
	MinLines int
	// Similarity is the minimum Jaccard similarity for fuzzy grouping.
	Similarity float64
	Workers    int
}

// NewDuplicateAnalyzer creates an analyzer with the given thresholds.
func NewDuplicateAnalyzer(minLines int, similarity float64) *DuplicateAnalyzer {
	if minLines <= 0 {
		minLines = 6
	}
	if similarity <= 0 || similarity > 1 {
		similarity = 0.8
	}
	return &DuplicateAnalyzer{MinLines: minLines, Similarity: similarity}
}

type fragment struct {
	file      string
	startLine int
	endLine   int
	hash      uint64
	lineCount int
}

type fileFragments struct {
	fragments  []fragment
	totalLines int
}

// AnalyzeFiles fingerprints every file and groups identical windows.
func (a *DuplicateAnalyzer) AnalyzeFiles(ctx context.Context, files []string, onProgress fileproc.ProgressFunc) (*DuplicateReport, error) {
	results, errs := fileproc.ForEachFile(ctx, files, a.Workers, a.fragmentFile, onProgress)
	if errs != nil && len(results) == 0 {
		return nil, errs
	}

	report := &DuplicateReport{}
	byHash := make(map[uint64][]fragment)
	for _, fr := range results {
		report.TotalLines += fr.totalLines
		for _, f := range fr.fragments {
			byHash[f.hash] = append(byHash[f.hash], f)
		}
	}

	seen := make(map[string]bool)
	for _, group := range byHash {
		if len(group) < 2 {
			continue
		}
		sort.Slice(group, func(i, j int) bool {
			if group[i].file != group[j].file {
				return group[i].file < group[j].file
			}
			return group[i].startLine < group[j].startLine
		})

		cg := CloneGroup{Lines: group[0].lineCount, Similarity: 1.0}
		for _, f := range group {
			key := f.file + ":" + strconv.Itoa(f.startLine)
			if seen[key] {
				continue
			}
			seen[key] = true
			cg.Instances = append(cg.Instances, CloneInstance{
				File:      f.file,
				StartLine: f.startLine,
				EndLine:   f.endLine,
			})
		}
		if len(cg.Instances) < 2 {
			continue
		}
		report.Groups = append(report.Groups, cg)
		report.DuplicatedLines += cg.Lines * (len(cg.Instances) - 1)
	}

	sort.Slice(report.Groups, func(i, j int) bool {
		if report.Groups[i].Lines != report.Groups[j].Lines {
			return report.Groups[i].Lines > report.Groups[j].Lines
		}
		return report.Groups[i].Instances[0].File < report.Groups[j].Instances[0].File
	})
	if report.TotalLines > 0 {
		report.Ratio = float64(report.DuplicatedLines) / float64(report.TotalLines)
	}
	return report, nil
}

// fragmentFile produces sliding-window fingerprints over normalized lines.
func (a *DuplicateAnalyzer) fragmentFile(path string) (fileFragments, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return fileFragments{}, err
	}
	rawLines := strings.Split(string(data), "\n")

	type srcLine struct {
		number int
		text   string
	}
	var lines []srcLine
	for i, raw := range rawLines {
		norm := normalizeLine(raw)
		if norm == "" {
			continue
		}
		lines = append(lines, srcLine{number: i + 1, text: norm})
	}

	fr := fileFragments{totalLines: len(rawLines)}
	if len(lines) < a.MinLines {
		return fr, nil
	}

	// Step by window size so overlapping windows don't report the same
	// duplication twice.
	for start := 0; start+a.MinLines <= len(lines); start += a.MinLines {
		window := lines[start : start+a.MinLines]
		h := xxhash.New()
		for _, l := range window {
			_, _ = h.WriteString(l.text)
			_, _ = h.WriteString("\n")
		}
		fr.fragments = append(fr.fragments, fragment{
			file:      path,
			startLine: window[0].number,
			endLine:   window[len(window)-1].number,
			hash:      h.Sum64(),
			lineCount: a.MinLines,
		})
	}
	return fr, nil
}

var (
	commentPattern    = regexp.MustCompile(`^\s*(//|#|/\*|\*|--)`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// normalizeLine strips comments, collapses whitespace, and lowercases so
// cosmetic differences don't defeat matching.
func normalizeLine(line string) string {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || commentPattern.MatchString(trimmed) {
		return ""
	}
	if isTrivialLine(trimmed) {
		return ""
	}
	return strings.ToLower(whitespacePattern.ReplaceAllString(trimmed, " "))
}

// isTrivialLine drops lines with no duplication signal (braces, lone
// keywords).
func isTrivialLine(line string) bool {
	switch line {
	case "{", "}", "};", ")", "(", "end", "pass", "else", "else:", "else {", "} else {":
		return true
	}
	return false
}

