package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// cmdExercise manages catalog commands
func cmdExercise(args []string) error {
	if len(args) < 1 {
		fmt.Println(`Exercise commands:

  apprentio exercise list              List exercise packs and exercises
  apprentio exercise info <pack/slug>  Show exercise details`)
		return nil
	}

	switch args[0] {
	case "list":
		return cmdExerciseList()
	case "info":
		if len(args) < 2 {
			return fmt.Errorf("exercise ID required (e.g., maths-ce1/addition-simple-1)")
		}
		return cmdExerciseInfo(args[1])
	default:
		return fmt.Errorf("unknown exercise command: %s", args[0])
	}
}

func cmdExerciseList() error {
	if !isRunning() {
		return fmt.Errorf("daemon not running (run 'apprentio start' first)")
	}

	resp, err := http.Get(daemonAddr + "/v1/packs")
	if err != nil {
		return fmt.Errorf("get packs: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		Packs []struct {
			ID          string `json:"id"`
			Name        string `json:"name"`
			Description string `json:"description"`
			Subject     string `json:"subject"`
			Level       string `json:"level"`
		} `json:"packs"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}

	fmt.Println("Available Exercise Packs:")
	for _, pack := range result.Packs {
		fmt.Printf("  %s (%s)\n", pack.Name, pack.ID)
		fmt.Printf("    %s\n", pack.Description)
		fmt.Printf("    Subject: %s | Level: %s\n\n", pack.Subject, pack.Level)
	}

	fmt.Println("Use 'apprentio exercise info <pack>/<slug>' for details")
	return nil
}

func cmdExerciseInfo(id string) error {
	if !isRunning() {
		return fmt.Errorf("daemon not running (run 'apprentio start' first)")
	}

	parts := strings.Split(id, "/")
	if len(parts) != 2 {
		return fmt.Errorf("exercise ID must be in format: pack/slug (e.g., maths-ce1/addition-simple-1)")
	}

	url := fmt.Sprintf("%s/v1/exercises/%s", daemonAddr, id)
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("get exercise: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("exercise not found: %s", id)
	}

	var exercise struct {
		ID               string `json:"id"`
		Title            string `json:"title"`
		Concept          string `json:"concept"`
		Subject          string `json:"subject"`
		Level            string `json:"level"`
		Tier             string `json:"tier"`
		Type             string `json:"type"`
		EstimatedSeconds int    `json:"estimated_seconds"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&exercise); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}

	fmt.Printf("Exercise: %s\n\n", exercise.Title)
	fmt.Printf("ID:      %s\n", exercise.ID)
	fmt.Printf("Concept: %s\n", exercise.Concept)
	fmt.Printf("Subject: %s | Level: %s\n", exercise.Subject, exercise.Level)
	fmt.Printf("Tier:    %s | Type: %s\n", exercise.Tier, exercise.Type)
	fmt.Printf("Estimated time: %ds\n", exercise.EstimatedSeconds)

	return nil
}
