package command

import (
	"strings"

	"sense-adaptive-core/internal/models"
	"sense-adaptive-core/internal/service/wakeword"
)

// Interpreter applies the wake-word protocol in front of a Classifier.
type Interpreter struct {
	gate       *wakeword.Gate
	classifier *Classifier
}

// NewInterpreter wires a gate to a classifier. Nil arguments get defaults.
func NewInterpreter(gate *wakeword.Gate, classifier *Classifier) *Interpreter {
	if gate == nil {
		gate = wakeword.New(wakeword.DefaultName)
	}
	if classifier == nil {
		classifier = New()
	}
	return &Interpreter{gate: gate, classifier: classifier}
}

// Gate returns the wake-word gate.
func (i *Interpreter) Gate() *wakeword.Gate { return i.gate }

// Classifier returns the underlying classifier.
func (i *Interpreter) Classifier() *Classifier { return i.classifier }

// Process classifies text without page context.
func (i *Interpreter) Process(text string, commandMode bool) models.Command {
	return i.ProcessInContext(text, commandMode, Context{})
}

// ProcessInContext returns wake_word_needed when text carries no wake phrase
// outside command mode. Otherwise the wake phrase is stripped and the rest is
// classified; a wake phrase on its own is classified as spoken.
func (i *Interpreter) ProcessInContext(text string, commandMode bool, cctx Context) models.Command {
	if !commandMode && !i.gate.Detect(text) {
		return WakeWordNeeded(text, i.gate.Name())
	}
	stripped := i.gate.Strip(text)
	if stripped == "" {
		stripped = strings.TrimSpace(text)
	}
	cmd := i.classifier.Classify(stripped, cctx)
	cmd.Raw = text
	return cmd
}

// WakeWordNeeded is the result for undirected speech.
func WakeWordNeeded(text, name string) models.Command {
	msg := `Say "Hey ` + titleCase(name) + `" first, then your command.`
	return models.Command{
		Type:    models.CommandWakeWordNeeded,
		Message: msg,
		Raw:     text,
	}
}
