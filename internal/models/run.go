package models

import "time"

// RunStatus é o estado de uma execução simulada.
type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// RunRecord é uma entrada do histórico de execuções.
type RunRecord struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	Username  string     `json:"username"`
	ModelType ModelType  `json:"modelType"`
	ModeType  ModeType   `json:"modeType"`
	FileName  string     `json:"fileName"`
	Status    RunStatus  `json:"status"`
	StartTime time.Time  `json:"startTime"`
	EndTime   *time.Time `json:"endTime,omitempty"`
	Logs      []string   `json:"logs"`
}

// Clone devolve uma cópia profunda do registro.
func (r RunRecord) Clone() RunRecord {
	out := r
	out.Logs = append([]string(nil), r.Logs...)
	if r.EndTime != nil {
		t := *r.EndTime
		out.EndTime = &t
	}
	return out
}
