package monitor

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Conveyor/internal/domain"
)

// WorkflowReport — сводка по одному workflow.
type WorkflowReport struct {
	WorkflowID   uuid.UUID
	Name         string
	Status       domain.WorkflowStatus
	Total        int
	ByState      map[domain.JobState]int
	DoneByExit   int // SUCCEEDED по exit-коду сервиса
	DoneByOutput int // SUCCEEDED по существующим выходам
	Unknown      int // задачи с ошибкой опроса в этом цикле
}

// Report — сводка по всем отслеживаемым workflow.
type Report struct {
	GeneratedAt time.Time
	Workflows   []WorkflowReport
}

// BuildReport строит сводку по набору workflow.
func BuildReport(wfs []*domain.Workflow) *Report {
	r := &Report{
		GeneratedAt: time.Now(),
		Workflows:   make([]WorkflowReport, 0, len(wfs)),
	}

	for _, wf := range wfs {
		wr := WorkflowReport{
			WorkflowID: wf.ID,
			Name:       wf.Name,
			Status:     wf.CurrentStatus(),
			ByState:    make(map[domain.JobState]int),
		}

		// Снимок под read-lock: монитор может мутировать задачи
		// параллельно с построением сводки
		for _, job := range wf.SnapshotJobs() {
			wr.Total++
			wr.ByState[job.State]++

			if job.State == domain.JobStateSucceeded {
				switch job.CompletedBy {
				case domain.CompletedByOutput:
					wr.DoneByOutput++
				default:
					wr.DoneByExit++
				}
			}
			if !job.IsTerminal() && job.Error != "" {
				wr.Unknown++
			}
		}

		r.Workflows = append(r.Workflows, wr)
	}

	sort.Slice(r.Workflows, func(i, j int) bool {
		return r.Workflows[i].Name < r.Workflows[j].Name
	})

	return r
}

// Render выводит сводку таблицей.
func (r *Report) Render(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "WORKFLOW\tSTATUS\tTOTAL\tRUNNING\tDONE (exit/output)\tFAILED\tUNKNOWN")
	for _, wr := range r.Workflows {
		running := wr.ByState[domain.JobStateSubmitted] +
			wr.ByState[domain.JobStateRunnable] +
			wr.ByState[domain.JobStateRunning]

		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d/%d\t%d\t%d\n",
			wr.Name,
			wr.Status,
			wr.Total,
			running,
			wr.DoneByExit,
			wr.DoneByOutput,
			wr.ByState[domain.JobStateFailed],
			wr.Unknown,
		)
	}

	return tw.Flush()
}
