package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// cmdSequence shows the next adaptive exercise sequence for a student
func cmdSequence(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: apprentio sequence <student-id> [--concept <concept>] [--count <n>]")
	}
	if !isRunning() {
		return fmt.Errorf("daemon not running (run 'apprentio start' first)")
	}

	studentID := args[0]
	query := url.Values{}
	for i := 1; i < len(args); i++ {
		switch args[i] {
		case "--concept":
			if i+1 < len(args) {
				i++
				query.Set("concept", args[i])
			}
		case "--count":
			if i+1 < len(args) {
				i++
				query.Set("count", args[i])
			}
		}
	}

	endpoint := fmt.Sprintf("%s/v1/students/%s/sequence", daemonAddr, studentID)
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	resp, err := http.Get(endpoint)
	if err != nil {
		return fmt.Errorf("get sequence: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("get sequence: unexpected status %d", resp.StatusCode)
	}

	var result struct {
		Sequence []struct {
			ID      string `json:"id"`
			Title   string `json:"title"`
			Concept string `json:"concept"`
			Tier    string `json:"tier"`
		} `json:"sequence"`
		Concept string `json:"concept"`
		Total   int    `json:"total"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}

	if result.Total == 0 {
		fmt.Println("No exercises available.")
		return nil
	}

	if result.Concept != "" {
		fmt.Printf("Next exercises toward %s:\n", result.Concept)
	} else {
		fmt.Println("Next exercises:")
	}
	for i, ex := range result.Sequence {
		fmt.Printf("  %d. %-40s %-20s %s\n", i+1, ex.ID, ex.Concept, ex.Tier)
	}

	return nil
}

// cmdRevisions shows due revisions for a student
func cmdRevisions(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: apprentio revisions <student-id>")
	}
	if !isRunning() {
		return fmt.Errorf("daemon not running (run 'apprentio start' first)")
	}

	resp, err := http.Get(fmt.Sprintf("%s/v1/students/%s/revisions/due", daemonAddr, args[0]))
	if err != nil {
		return fmt.Errorf("get revisions: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("get revisions: unexpected status %d", resp.StatusCode)
	}

	var result struct {
		Revisions []struct {
			ExerciseID   string `json:"exercise_id"`
			NextReview   string `json:"next_review"`
			IntervalDays int    `json:"interval_days"`
		} `json:"revisions"`
		Total int `json:"total"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}

	if result.Total == 0 {
		fmt.Println("Nothing due for revision. ✓")
		return nil
	}

	fmt.Printf("Due for revision (%d):\n", result.Total)
	for _, rev := range result.Revisions {
		fmt.Printf("  %-40s due %s (interval %dd)\n", rev.ExerciseID, rev.NextReview, rev.IntervalDays)
	}

	return nil
}

// cmdStats shows catalog statistics
func cmdStats() error {
	if !isRunning() {
		return fmt.Errorf("daemon not running (run 'apprentio start' first)")
	}

	resp, err := http.Get(daemonAddr + "/v1/catalog/stats")
	if err != nil {
		return fmt.Errorf("get stats: %w", err)
	}
	defer resp.Body.Close()

	var stats struct {
		PackCount     int            `json:"pack_count"`
		ExerciseCount int            `json:"exercise_count"`
		ByTier        map[string]int `json:"by_tier"`
		ByConcept     map[string]int `json:"by_concept"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}

	fmt.Println("Catalog Statistics")
	fmt.Println("==================")
	fmt.Printf("Packs:     %d\n", stats.PackCount)
	fmt.Printf("Exercises: %d\n\n", stats.ExerciseCount)

	if len(stats.ByTier) > 0 {
		fmt.Println("By tier:")
		for tier, count := range stats.ByTier {
			fmt.Printf("  %-10s %d\n", tier, count)
		}
		fmt.Println()
	}

	if len(stats.ByConcept) > 0 {
		fmt.Println("By concept:")
		for concept, count := range stats.ByConcept {
			fmt.Printf("  %-25s %d\n", concept, count)
		}
	}

	return nil
}
