package main

import (
	"fmt"
	"sort"

	"github.com/mostafa-hamdan/StegDetector-Project/pkg/config"
	"github.com/mostafa-hamdan/StegDetector-Project/pkg/models"
)

func displayAnalysisResult(result *models.AnalysisResult, verbose bool) {
	fmt.Println("\n--- Analysis Results ---")

	fmt.Printf("File: %s\n", result.Filename)
	fmt.Printf("Media: %s (%s)\n", result.MediaType, result.Format)

	for _, m := range result.Methods {
		if m.Score == nil {
			printWarning("%s: %s (%s)", m.Method, m.Verdict, m.Error)
			continue
		}
		fmt.Printf("  %-20s %.3f  %s\n", m.Method, *m.Score, m.Verdict)
		if verbose && len(m.Details) > 0 {
			keys := make([]string, 0, len(m.Details))
			for k := range m.Details {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Printf("      %s: %v\n", k, m.Details[k])
			}
		}
	}

	// Detection results
	switch {
	case result.BestMethod == "":
		printWarning("No method produced a score")
	case result.DetectionScore > 0.8:
		printAlert("HIGH probability of steganography detected (%.2f, %s)", result.DetectionScore, result.BestMethod)
	case result.DetectionScore > 0.5:
		printWarning("MEDIUM probability of steganography detected (%.2f, %s)", result.DetectionScore, result.BestMethod)
	case result.DetectionScore > 0.2:
		printInfo("LOW probability of steganography detected (%.2f, %s)", result.DetectionScore, result.BestMethod)
	default:
		printSuccess("No steganography detected (%.2f)", result.DetectionScore)
	}
	fmt.Printf("Detection confidence: %.2f\n", result.Confidence)

	if len(result.Findings) > 0 {
		fmt.Println("\nFindings:")
		for i, finding := range result.Findings {
			fmt.Printf("%d. %s (Confidence: %.2f)\n", i+1, finding.Description, finding.Confidence)
			if verbose && finding.Details != "" {
				fmt.Printf("   Details: %s\n", finding.Details)
			}
		}
	}

	if len(result.Recommendations) > 0 {
		fmt.Println("\nRecommendations:")
		for i, rec := range result.Recommendations {
			fmt.Printf("%d. %s\n", i+1, rec)
		}
	}

	fmt.Printf("Analysis took %v\n", result.AnalysisDuration)
	fmt.Println("-------------------------")
}

func printSummary(results []*models.AnalysisResult, t config.Thresholds) {
	var clean, suspicious, confirmed int
	var flagged []*models.AnalysisResult

	for _, result := range results {
		band := t.Audio
		if result.MediaType == "video" {
			band = t.Video
		}
		switch {
		case result.DetectionScore < band.Low:
			clean++
		case result.DetectionScore < band.High:
			suspicious++
		default:
			confirmed++
			flagged = append(flagged, result)
		}
	}

	fmt.Println("\n=== Analysis Summary ===")
	fmt.Printf("Total files analyzed: %d\n", len(results))
	fmt.Printf("%s Clean files: %d\n", successColor("[+]"), clean)

	if suspicious > 0 {
		fmt.Printf("%s Suspicious files: %d\n", warningColor("[!]"), suspicious)
	}

	if confirmed > 0 {
		fmt.Printf("%s Likely steganography: %d\n", alertColor("[!!!]"), confirmed)

		fmt.Println("\nFiles with high probability of steganography:")
		for _, result := range flagged {
			fmt.Printf("- %s (Score: %.2f, %s)\n", result.Filename, result.DetectionScore, result.BestMethod)
		}
	}
}
