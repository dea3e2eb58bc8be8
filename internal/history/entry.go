package history

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

type jsonEntry struct {
	Action       Action          `json:"action"`
	Data         json.RawMessage `json:"data"`
	UndoExecuted bool            `json:"undoExecuted"`
}

func (e Entry) MarshalJSON() ([]byte, error) {
	if e.Command == nil {
		return nil, fmt.Errorf("entry has no command")
	}
	data, err := json.Marshal(e.Command)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", e.Action(), err)
	}
	return json.Marshal(jsonEntry{Action: e.Action(), Data: data, UndoExecuted: e.UndoExecuted})
}

func (e *Entry) UnmarshalJSON(b []byte) error {
	var raw jsonEntry
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	cmd, err := newCommand(raw.Action)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw.Data, cmd); err != nil {
		return fmt.Errorf("failed to decode %s: %w", raw.Action, err)
	}
	e.Command = cmd
	e.UndoExecuted = raw.UndoExecuted
	return nil
}

type yamlEntry struct {
	Action       Action    `yaml:"action"`
	Data         yaml.Node `yaml:"data"`
	UndoExecuted bool      `yaml:"undoExecuted"`
}

func (e Entry) MarshalYAML() (interface{}, error) {
	if e.Command == nil {
		return nil, fmt.Errorf("entry has no command")
	}
	var data yaml.Node
	if err := data.Encode(e.Command); err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", e.Action(), err)
	}
	return yamlEntry{Action: e.Action(), Data: data, UndoExecuted: e.UndoExecuted}, nil
}

func (e *Entry) UnmarshalYAML(value *yaml.Node) error {
	var raw yamlEntry
	if err := value.Decode(&raw); err != nil {
		return err
	}
	cmd, err := newCommand(raw.Action)
	if err != nil {
		return err
	}
	if err := raw.Data.Decode(cmd); err != nil {
		return fmt.Errorf("failed to decode %s: %w", raw.Action, err)
	}
	e.Command = cmd
	e.UndoExecuted = raw.UndoExecuted
	return nil
}
