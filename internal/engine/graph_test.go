package engine

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shaiso/Conveyor/internal/domain"
)

func testTemplate() *domain.WorkflowTemplate {
	return &domain.WorkflowTemplate{
		Name: "wgs_2024",
		Stages: []domain.StageDef{
			{
				ID:         "align",
				Definition: "align:3",
				Queue:      "highmem",
				Parameters: map[string]string{"input": "{{ .Sample.file }}"},
				Outputs:    []string{"s3://results/{{ .Sample._sample }}/aligned.bam"},
			},
			{
				ID:         "call",
				Definition: "varcall:1",
				Queue:      "highmem",
				DependsOn:  []string{"align"},
				Parameters: map[string]string{"bam": "s3://results/{{ .Sample._sample }}/aligned.bam"},
				Outputs:    []string{"s3://results/{{ .Sample._sample }}/calls.vcf.gz"},
			},
		},
	}
}

func testSamples() []domain.Sample {
	return []domain.Sample{
		{Name: "s1", Metadata: map[string]string{"file": "s3://raw/s1.fastq.gz"}},
		{Name: "s2", Metadata: map[string]string{"file": "s3://raw/s2.fastq.gz"}},
	}
}

// --- BuildStageGraph ---

func TestBuildStageGraph_Valid(t *testing.T) {
	g, err := BuildStageGraph(testTemplate())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(g.Nodes) != 2 {
		t.Errorf("expected 2 nodes, got %d", len(g.Nodes))
	}
	if len(g.Order) != 2 {
		t.Fatalf("expected 2 nodes in order, got %d", len(g.Order))
	}
	if g.Order[0].Stage.ID != "align" || g.Order[1].Stage.ID != "call" {
		t.Errorf("wrong topological order: %s, %s", g.Order[0].Stage.ID, g.Order[1].Stage.ID)
	}
}

func TestBuildStageGraph_EmptyTemplate(t *testing.T) {
	_, err := BuildStageGraph(&domain.WorkflowTemplate{Name: "x"})
	if !errors.Is(err, ErrEmptyStages) {
		t.Errorf("expected ErrEmptyStages, got %v", err)
	}
}

func TestBuildStageGraph_DuplicateStageID(t *testing.T) {
	tmpl := testTemplate()
	tmpl.Stages = append(tmpl.Stages, tmpl.Stages[0])

	_, err := BuildStageGraph(tmpl)
	if !errors.Is(err, ErrDuplicateStageID) {
		t.Errorf("expected ErrDuplicateStageID, got %v", err)
	}
}

func TestBuildStageGraph_MissingDependency(t *testing.T) {
	tmpl := testTemplate()
	tmpl.Stages[1].DependsOn = []string{"nonexistent"}

	_, err := BuildStageGraph(tmpl)
	if !errors.Is(err, ErrMissingDependency) {
		t.Errorf("expected ErrMissingDependency, got %v", err)
	}
}

func TestBuildStageGraph_SelfDependency(t *testing.T) {
	tmpl := testTemplate()
	tmpl.Stages[0].DependsOn = []string{"align"}

	_, err := BuildStageGraph(tmpl)
	if !errors.Is(err, ErrSelfDependency) {
		t.Errorf("expected ErrSelfDependency, got %v", err)
	}
}

func TestBuildStageGraph_Cycle(t *testing.T) {
	tmpl := testTemplate()
	tmpl.Stages[0].DependsOn = []string{"call"}

	_, err := BuildStageGraph(tmpl)
	if !errors.Is(err, ErrCyclicDependency) {
		t.Errorf("expected ErrCyclicDependency, got %v", err)
	}
}

func TestBuildStageGraph_NoOutputs(t *testing.T) {
	tmpl := testTemplate()
	tmpl.Stages[0].Outputs = nil

	_, err := BuildStageGraph(tmpl)
	if !errors.Is(err, ErrEmptyOutputs) {
		t.Errorf("expected ErrEmptyOutputs, got %v", err)
	}
}

func TestBuildStageGraph_FolderOutput(t *testing.T) {
	tmpl := testTemplate()
	tmpl.Stages[0].Outputs = []string{"s3://results/folder/"}

	_, err := BuildStageGraph(tmpl)
	if !errors.Is(err, ErrInvalidOutput) {
		t.Errorf("expected ErrInvalidOutput, got %v", err)
	}
}

func TestBuildStageGraph_DiamondDAG(t *testing.T) {
	tmpl := &domain.WorkflowTemplate{
		Name: "diamond",
		Stages: []domain.StageDef{
			{ID: "merge", Definition: "d:1", Queue: "q", DependsOn: []string{"left", "right"},
				Outputs: []string{"s3://b/merge.out"}},
			{ID: "root", Definition: "d:1", Queue: "q", Outputs: []string{"s3://b/root.out"}},
			{ID: "left", Definition: "d:1", Queue: "q", DependsOn: []string{"root"},
				Outputs: []string{"s3://b/left.out"}},
			{ID: "right", Definition: "d:1", Queue: "q", DependsOn: []string{"root"},
				Outputs: []string{"s3://b/right.out"}},
		},
	}

	g, err := BuildStageGraph(tmpl)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pos := make(map[string]int)
	for i, n := range g.Order {
		pos[n.Stage.ID] = i
	}
	if pos["root"] > pos["left"] || pos["root"] > pos["right"] {
		t.Error("root must come before branches")
	}
	if pos["merge"] < pos["left"] || pos["merge"] < pos["right"] {
		t.Error("merge must come after both branches")
	}
}

// --- BuildWorkflow ---

func TestBuildWorkflow(t *testing.T) {
	project := &domain.Project{ID: uuid.New(), Name: "proj1"}

	wf, err := BuildWorkflow(project, testSamples(), testTemplate())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 2 samples × 2 stages
	jobs := wf.Jobs()
	if len(jobs) != 4 {
		t.Fatalf("expected 4 jobs, got %d", len(jobs))
	}

	// First sample's align job: rendered parameters and outputs
	align := jobs[0]
	if align.Stage != "align" || align.Sample != "s1" {
		t.Fatalf("unexpected first job: %s/%s", align.Sample, align.Stage)
	}
	if align.Parameters["input"] != "s3://raw/s1.fastq.gz" {
		t.Errorf("parameter not rendered: %s", align.Parameters["input"])
	}
	if align.Outputs[0] != "s3://results/s1/aligned.bam" {
		t.Errorf("output not rendered: %s", align.Outputs[0])
	}
	if align.State != domain.JobStateNotSubmitted {
		t.Errorf("new job must be NOT_SUBMITTED, got %s", align.State)
	}

	// Downstream links to upstream within the same sample
	call := jobs[1]
	if call.Stage != "call" {
		t.Fatalf("expected call stage second, got %s", call.Stage)
	}
	if len(call.Upstreams) != 1 || call.Upstreams[0] != align.ID {
		t.Error("call job must depend on the same sample's align job")
	}
}

func TestBuildWorkflow_DistinctIdentities(t *testing.T) {
	project := &domain.Project{ID: uuid.New(), Name: "proj1"}

	wf, err := BuildWorkflow(project, testSamples(), testTemplate())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	seen := make(map[string]bool)
	for _, j := range wf.Jobs() {
		if seen[j.Identity] {
			t.Errorf("duplicate identity for %s/%s", j.Sample, j.Stage)
		}
		seen[j.Identity] = true
	}
}

func TestBuildWorkflow_Reproducible(t *testing.T) {
	// Building twice from the same inputs must yield the same identities,
	// otherwise dedup against already-running work breaks.
	project := &domain.Project{ID: uuid.New(), Name: "proj1"}

	wf1, _ := BuildWorkflow(project, testSamples(), testTemplate())
	wf2, _ := BuildWorkflow(project, testSamples(), testTemplate())

	jobs1, jobs2 := wf1.Jobs(), wf2.Jobs()
	for i := range jobs1 {
		if jobs1[i].Identity != jobs2[i].Identity {
			t.Errorf("identity for %s/%s not reproducible", jobs1[i].Sample, jobs1[i].Stage)
		}
	}
}
