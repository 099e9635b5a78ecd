package runner

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// WriteArtifacts renders the run verdict to the output directory: a
// machine-readable verdict.json and a human-readable report.md.
func WriteArtifacts(outputDir string, result *RunResult) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	jsonData, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal verdict: %w", err)
	}
	jsonFile := filepath.Join(outputDir, "verdict.json")
	if err := os.WriteFile(jsonFile, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write verdict: %w", err)
	}

	mdFile := filepath.Join(outputDir, "report.md")
	if err := os.WriteFile(mdFile, []byte(markdownReport(result)), 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func markdownReport(result *RunResult) string {
	var sb strings.Builder

	status := "PASS"
	if !result.Summary.OverallPass {
		status = "FAIL"
	}

	sb.WriteString("# Assessment Report\n\n")
	sb.WriteString(fmt.Sprintf("**Run**: %s\n", result.RunID))
	sb.WriteString(fmt.Sprintf("**Generated**: %s\n", result.FinishedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("**Duration**: %.1fs\n", result.FinishedAt.Sub(result.StartedAt).Seconds()))
	if result.DateReason != "" {
		sb.WriteString(fmt.Sprintf("**Requested date selection**: %s\n", result.DateReason))
	}
	sb.WriteString(fmt.Sprintf("\n**Overall**: %s (%d/%d cases passed)\n\n", status,
		result.Summary.Passed, result.Summary.Total))

	sb.WriteString("## Cases\n\n")
	sb.WriteString("| Case | Dataset | Result |\n")
	sb.WriteString("|---|---|---|\n")
	for _, c := range result.Cases {
		caseStatus := "pass"
		if !c.Passed {
			caseStatus = "fail"
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %s |\n", c.CaseID, c.Dataset, caseStatus))
	}
	sb.WriteString("\n")

	failed := 0
	for _, c := range result.Cases {
		if !c.Passed {
			failed++
		}
	}
	if failed > 0 {
		sb.WriteString("## Failure Reasons\n\n")
		for _, c := range result.Cases {
			if c.Passed {
				continue
			}
			sb.WriteString(fmt.Sprintf("### %s\n", c.CaseID))
			for _, reason := range c.FailureReasons {
				sb.WriteString(fmt.Sprintf("- %s\n", reason))
			}
			sb.WriteString("\n")
		}
	}

	return sb.String()
}
