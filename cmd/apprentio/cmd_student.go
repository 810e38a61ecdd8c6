package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
)

// cmdStudent manages student registration and progress
func cmdStudent(args []string) error {
	if len(args) < 1 {
		fmt.Println(`Student commands:

  apprentio student create --name <name> --level <level>
  apprentio student show <student-id>`)
		return nil
	}

	switch args[0] {
	case "create":
		return cmdStudentCreate(args[1:])
	case "show":
		if len(args) < 2 {
			return fmt.Errorf("student ID required")
		}
		return cmdStudentShow(args[1])
	default:
		return fmt.Errorf("unknown student command: %s", args[0])
	}
}

func cmdStudentCreate(args []string) error {
	if !isRunning() {
		return fmt.Errorf("daemon not running (run 'apprentio start' first)")
	}

	var name, level string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--name":
			if i+1 < len(args) {
				i++
				name = args[i]
			}
		case "--level":
			if i+1 < len(args) {
				i++
				level = args[i]
			}
		}
	}
	if name == "" || level == "" {
		return fmt.Errorf("usage: apprentio student create --name <name> --level <cp|ce1|ce2>")
	}

	body, err := json.Marshal(map[string]string{"name": name, "level": level})
	if err != nil {
		return err
	}

	resp, err := http.Post(daemonAddr+"/v1/students", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("create student: unexpected status %d", resp.StatusCode)
	}

	var student struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Level string `json:"level"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&student); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}

	fmt.Printf("Student created: %s (%s)\n", student.Name, student.Level)
	fmt.Printf("ID: %s\n", student.ID)
	return nil
}

func cmdStudentShow(id string) error {
	if !isRunning() {
		return fmt.Errorf("daemon not running (run 'apprentio start' first)")
	}

	resp, err := http.Get(daemonAddr + "/v1/students/" + id)
	if err != nil {
		return fmt.Errorf("get student: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("student not found: %s", id)
	}

	var student struct {
		Name  string `json:"name"`
		Level string `json:"level"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&student); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}

	fmt.Printf("Student: %s (level %s)\n\n", student.Name, student.Level)

	progResp, err := http.Get(daemonAddr + "/v1/students/" + id + "/progress")
	if err != nil {
		return fmt.Errorf("get progress: %w", err)
	}
	defer progResp.Body.Close()

	var progress struct {
		Progress []struct {
			ExerciseID  string  `json:"exercise_id"`
			Concept     string  `json:"concept"`
			Attempts    int     `json:"attempts"`
			SuccessRate float64 `json:"success_rate"`
			Status      string  `json:"status"`
		} `json:"progress"`
		Total int `json:"total"`
	}
	if err := json.NewDecoder(progResp.Body).Decode(&progress); err != nil {
		return fmt.Errorf("parse progress: %w", err)
	}

	if progress.Total == 0 {
		fmt.Println("No attempts recorded yet.")
		return nil
	}

	fmt.Println("Progress:")
	for _, p := range progress.Progress {
		bar := renderScoreBar(int(p.SuccessRate*100), 20)
		fmt.Printf("  %-40s %s %3.0f%% (%d attempts, %s)\n",
			p.ExerciseID, bar, p.SuccessRate*100, p.Attempts, p.Status)
	}

	return nil
}
