package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/aretw0/gamemaster/pkg/combat"
)

// printJSON pretty prints v.
func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// parseObject decodes a JSON object flag. An empty string is an empty object.
func parseObject(raw string) (map[string]any, error) {
	out := map[string]any{}
	if raw == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("invalid JSON object: %w", err)
	}
	return out, nil
}

// parseTargets decodes a JSON array of participant objects.
func parseTargets(raw string) ([]combat.Participant, error) {
	if raw == "" {
		return nil, nil
	}
	var list []map[string]any
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, fmt.Errorf("invalid targets: %w", err)
	}
	return combat.DecodeParticipants(list)
}
