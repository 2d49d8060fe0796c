package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/studiosim/studio-engine/internal/worker"
	"github.com/studiosim/studio-engine/pkg/sim"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func testConnection(client *http.Client, baseURL string) bool {
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()
	return resp.StatusCode == http.StatusOK
}

// advanceWeek runs one week on the API. A 202 means the week paused on an
// interactive event; the report carries the pending token and choices.
func advanceWeek(client *http.Client, baseURL string) (*worker.WeekReport, error) {
	resp, err := client.Post(baseURL+"/v1/week/advance", "application/json", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	return decodeReport(resp)
}

type resolveEventRequest struct {
	Token    string `json:"token"`
	ChoiceID string `json:"choice_id"`
}

// resolveEvent submits the player's choice for a pending event and returns
// the report for the rest of the week, which may pause again.
func resolveEvent(client *http.Client, baseURL string, token uuid.UUID, choiceID string) (*worker.WeekReport, error) {
	jsonData, err := json.Marshal(resolveEventRequest{
		Token:    token.String(),
		ChoiceID: choiceID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := client.Post(
		baseURL+"/v1/event/resolve",
		"application/json",
		bytes.NewBuffer(jsonData),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	return decodeReport(resp)
}

func decodeReport(resp *http.Response) (*worker.WeekReport, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		var errorResp ErrorResponse
		if err := json.Unmarshal(body, &errorResp); err != nil {
			return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
		}
		return nil, fmt.Errorf("week advance failed: %s", errorResp.Error)
	}

	var report worker.WeekReport
	if err := json.Unmarshal(body, &report); err != nil {
		return nil, fmt.Errorf("failed to parse report response: %w", err)
	}
	return &report, nil
}

func listScenes(client *http.Client, baseURL string) ([]sim.Scene, error) {
	resp, err := client.Get(baseURL + "/v1/scenes")
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errorResp ErrorResponse
		if err := json.Unmarshal(body, &errorResp); err != nil {
			return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
		}
		return nil, fmt.Errorf("failed to list scenes: %s", errorResp.Error)
	}

	var scenes []sim.Scene
	if err := json.Unmarshal(body, &scenes); err != nil {
		return nil, fmt.Errorf("failed to parse scenes response: %w", err)
	}
	return scenes, nil
}
