// pkg/registry/schema.go
package registry

type TaskRegistry struct {
	Version string `json:"version"`
	Tasks   []Task `json:"tasks"`
}

// Task describes one job type for process modelers: what variables it
// reads and writes and which BPMN errors it may throw.
type Task struct {
	ID              string   `json:"id"`
	DisplayName     string   `json:"displayName"`
	Description     string   `json:"description"`
	Category        string   `json:"category"`
	TaskType        string   `json:"taskType"`
	InputVariables  []string `json:"inputVariables"`
	OutputVariables []string `json:"outputVariables"`
	ErrorCodes      []string `json:"errorCodes"`
	Retries         int      `json:"retries"`
}
