// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"os"
	"sort"
)

// ActivityRegistry describes the service tasks this module implements, for
// process modellers and for validating worker configuration.
type ActivityRegistry struct {
	Version    string     `json:"version"`
	Activities []Activity `json:"activities"`
}

type Activity struct {
	TaskType    string   `json:"taskType"`
	DisplayName string   `json:"displayName"`
	Description string   `json:"description"`
	Inputs      []string `json:"inputs"`
	Outputs     []string `json:"outputs"`
	ErrorCodes  []string `json:"errorCodes"`
	Timeout     string   `json:"timeout"`
	Retries     int      `json:"retries"`
}

var activities = []Activity{
	{
		TaskType:    "rfq-next-step",
		DisplayName: "Decide Next Step",
		Description: "Asks the next question or hands over the final document",
		Inputs:      []string{"history", "category", "credentials", "questionBudget"},
		Outputs:     []string{"step", "stepType", "terminal", "questionCount"},
		ErrorCodes:  []string{"NO_CREDENTIAL", "SERVICE_ERROR", "INVALID_INPUT"},
		Timeout:     "90s",
		Retries:     2,
	},
	{
		TaskType:    "rfq-generate-audited",
		DisplayName: "Generate Audited Document",
		Description: "Synthesizes the document, audits it and refines it once on failure",
		Inputs:      []string{"history", "category", "credentials"},
		Outputs:     []string{"document", "summary", "outcome", "audited", "refined", "fallback", "cached", "issues"},
		ErrorCodes:  []string{"NO_CREDENTIAL", "SERVICE_ERROR", "INVALID_INPUT"},
		Timeout:     "180s",
		Retries:     2,
	},
	{
		TaskType:    "rfq-refine-document",
		DisplayName: "Refine Document",
		Description: "Applies free-text feedback to a finished document",
		Inputs:      []string{"document", "feedback", "credentials"},
		Outputs:     []string{"document", "summary"},
		ErrorCodes:  []string{"NO_CREDENTIAL", "SERVICE_ERROR", "INVALID_INPUT"},
		Timeout:     "90s",
		Retries:     2,
	},
	{
		TaskType:    "rfq-archive-document",
		DisplayName: "Archive Document",
		Description: "Stores the document in PostgreSQL and indexes it for search",
		Inputs:      []string{"document", "category", "verdict", "audited", "refined"},
		Outputs:     []string{"documentId", "indexed", "archivedAt"},
		ErrorCodes:  []string{"ARCHIVE_FAILED", "INVALID_INPUT"},
		Timeout:     "30s",
		Retries:     3,
	},
	{
		TaskType:    "rfq-notify-document",
		DisplayName: "Notify Document",
		Description: "Emails the rendered document and texts a summary for high priority requests",
		Inputs:      []string{"document", "documentId", "recipientEmail", "recipientPhone", "priority"},
		Outputs:     []string{"notificationId", "status", "sentAt"},
		ErrorCodes:  []string{"INVALID_INPUT"},
		Timeout:     "30s",
		Retries:     3,
	},
}

// Default returns the built-in registry.
func Default() *ActivityRegistry {
	out := make([]Activity, len(activities))
	copy(out, activities)
	return &ActivityRegistry{Version: "1.0.0", Activities: out}
}

func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg ActivityRegistry
	err = json.Unmarshal(data, &reg)
	return &reg, err
}

// Lookup finds an activity by task type.
func (r *ActivityRegistry) Lookup(taskType string) (Activity, bool) {
	for _, a := range r.Activities {
		if a.TaskType == taskType {
			return a, true
		}
	}
	return Activity{}, false
}

// Unknown returns the sorted task types in names that the registry does not
// define, e.g. stale keys in a workers config section.
func (r *ActivityRegistry) Unknown(names []string) []string {
	var out []string
	for _, n := range names {
		if _, ok := r.Lookup(n); !ok {
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}
