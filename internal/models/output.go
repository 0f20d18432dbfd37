package models

import "strings"

// Location returns the output link, falling back to its url.
func (o Output) Location() string {
	if l := strings.TrimSpace(o.Link); l != "" {
		return l
	}
	return strings.TrimSpace(o.URL)
}

func (o Output) isJSONFormat() bool {
	return o.Format == "json" || o.Format == "JSON"
}

// CollectOutputs merges the task-level outputs with each target's output list, top-level first.
func (t *Task) CollectOutputs() []Output {
	if t == nil {
		return nil
	}
	outputs := append([]Output(nil), t.Outputs...)
	for _, target := range t.Targets {
		outputs = append(outputs, target.Output...)
	}
	return outputs
}

var outputPredicates = []func(Output) bool{
	func(o Output) bool {
		return (o.Name == "alignment" || o.Name == "Alignment") && o.isJSONFormat()
	},
	Output.isJSONFormat,
	func(o Output) bool {
		return strings.Contains(strings.ToLower(o.Type), "json")
	},
}

// FindAlignmentOutput locates the alignment JSON artifact.
//
// When outputs is nil they are gathered with [Task.CollectOutputs]. The first item matching the first
// predicate that matches anything is returned: a json output named alignment, then any json output, then any
// output whose type mentions json. Returns nil when nothing qualifies.
func FindAlignmentOutput(task *Task, outputs []Output) *Output {
	if outputs == nil {
		outputs = task.CollectOutputs()
	}
	for _, match := range outputPredicates {
		for i := range outputs {
			if match(outputs[i]) {
				o := outputs[i]
				return &o
			}
		}
	}
	return nil
}
