package detection

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"sync"
)

// Model is a local inference backend used when the remote endpoint is
// unavailable.
type Model interface {
	Detect(ctx context.Context, imagePath string) ([]Detection, error)
}

// ScriptModel runs a local inference command (typically a thin wrapper around
// the model runtime) and reads a detection payload from stdout. The payload
// uses the same shape as the remote endpoint and goes through the same
// normalization.
type ScriptModel struct {
	Command   string
	ModelPath string
}

// Detect invokes the inference command for one image.
func (m *ScriptModel) Detect(ctx context.Context, imagePath string) ([]Detection, error) {
	cmd := exec.CommandContext(ctx, m.Command, m.ModelPath, imagePath)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("local inference failed: %w (stderr: %s)", err, stderr.String())
	}

	var payload map[string]any
	if err := json.Unmarshal(stdout.Bytes(), &payload); err != nil {
		return nil, fmt.Errorf("failed to decode local payload: %w", err)
	}

	return parsePayload(payload), nil
}

// lazyModel defers backend initialization until the first detection and
// performs it exactly once, so a missing model is discovered at use time
// without failing startup.
type lazyModel struct {
	once  sync.Once
	build func() (Model, error)
	model Model
	err   error
}

// NewLazyModel wraps a model constructor with thread-safe one-time
// initialization.
func NewLazyModel(build func() (Model, error)) Model {
	return &lazyModel{build: build}
}

func (l *lazyModel) Detect(ctx context.Context, imagePath string) ([]Detection, error) {
	l.once.Do(func() {
		l.model, l.err = l.build()
	})
	if l.err != nil {
		return nil, fmt.Errorf("local model unavailable: %w", l.err)
	}
	return l.model.Detect(ctx, imagePath)
}

// NewScriptModel validates that the inference command and weights exist and
// returns the script-backed model. Intended for use behind NewLazyModel.
func NewScriptModel(command, modelPath string) (Model, error) {
	if command == "" {
		return nil, fmt.Errorf("no local inference command configured")
	}
	if modelPath != "" {
		if _, err := os.Stat(modelPath); err != nil {
			return nil, fmt.Errorf("model weights not found: %w", err)
		}
	}
	return &ScriptModel{Command: command, ModelPath: modelPath}, nil
}
