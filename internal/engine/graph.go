package engine

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Conveyor/internal/domain"
)

// StageNode — узел в графе стадий шаблона.
type StageNode struct {
	// Stage — определение стадии из шаблона.
	Stage *domain.StageDef

	// InDegree — количество входящих рёбер (зависимостей).
	InDegree int

	// DependsOn — узлы, от которых зависит этот узел.
	DependsOn []*StageNode

	// Dependents — узлы, которые зависят от этого узла.
	Dependents []*StageNode
}

// StageGraph — направленный ациклический граф стадий шаблона.
type StageGraph struct {
	// Nodes — все узлы графа (stageID → StageNode).
	Nodes map[string]*StageNode

	// Order — топологически отсортированный список узлов.
	// Именно в этом порядке строятся и отправляются задачи:
	// upstream всегда раньше зависимых.
	Order []*StageNode
}

var nameRe = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// BuildStageGraph валидирует шаблон и строит граф стадий.
//
// Проверяет уникальность ID, наличие definition/queue/outputs,
// валидность depends_on и отсутствие циклов.
func BuildStageGraph(tmpl *domain.WorkflowTemplate) (*StageGraph, error) {
	if tmpl == nil || len(tmpl.Stages) == 0 {
		return nil, ErrEmptyStages
	}
	if !nameRe.MatchString(tmpl.Name) {
		return nil, NewValidationError("", "workflow_name",
			fmt.Sprintf("workflow name %q must be alphanumeric with underscores", tmpl.Name), nil)
	}

	g := &StageGraph{Nodes: make(map[string]*StageNode, len(tmpl.Stages))}

	// Первый проход: создаём узлы и валидируем стадии
	for i := range tmpl.Stages {
		stage := &tmpl.Stages[i]
		if err := validateStage(stage); err != nil {
			return nil, err
		}
		if _, exists := g.Nodes[stage.ID]; exists {
			return nil, NewValidationError(stage.ID, "id",
				fmt.Sprintf("duplicate stage ID: %s", stage.ID), ErrDuplicateStageID)
		}
		g.Nodes[stage.ID] = &StageNode{Stage: stage}
	}

	// Второй проход: связываем по зависимостям
	for _, node := range g.Nodes {
		for _, depID := range node.Stage.DependsOn {
			if depID == node.Stage.ID {
				return nil, NewValidationError(node.Stage.ID, "depends_on",
					"stage depends on itself", ErrSelfDependency)
			}
			dep, exists := g.Nodes[depID]
			if !exists {
				return nil, NewValidationError(node.Stage.ID, "depends_on",
					fmt.Sprintf("depends on unknown stage: %s", depID), ErrMissingDependency)
			}
			node.DependsOn = append(node.DependsOn, dep)
			dep.Dependents = append(dep.Dependents, node)
			node.InDegree++
		}
	}

	order, err := g.topologicalSort()
	if err != nil {
		return nil, err
	}
	g.Order = order

	return g, nil
}

// validateStage проверяет одну стадию.
func validateStage(stage *domain.StageDef) error {
	if stage.ID == "" {
		return NewValidationError("", "id", "stage has empty ID", ErrEmptyStageID)
	}
	if stage.Definition == "" {
		return NewValidationError(stage.ID, "job_definition", "stage has empty job definition", ErrEmptyDefinition)
	}
	if stage.Queue == "" {
		return NewValidationError(stage.ID, "queue", "stage has empty queue", ErrEmptyQueue)
	}
	if len(stage.Outputs) == 0 {
		return NewValidationError(stage.ID, "outputs", "stage has no outputs", ErrEmptyOutputs)
	}
	for _, out := range stage.Outputs {
		if !strings.HasPrefix(out, "s3://") {
			return NewValidationError(stage.ID, "outputs",
				fmt.Sprintf("output %q must start with s3://", out), ErrInvalidOutput)
		}
		if strings.HasSuffix(out, "/") {
			return NewValidationError(stage.ID, "outputs",
				fmt.Sprintf("output %q targets a folder, not a file", out), ErrInvalidOutput)
		}
	}
	return nil
}

// topologicalSort выполняет топологическую сортировку (алгоритм Кана).
// Возвращает ошибку, если обнаружен цикл.
func (g *StageGraph) topologicalSort() ([]*StageNode, error) {
	inDegree := make(map[string]int, len(g.Nodes))
	var queue []*StageNode
	for id, node := range g.Nodes {
		inDegree[id] = node.InDegree
		if node.InDegree == 0 {
			queue = append(queue, node)
		}
	}

	order := make([]*StageNode, 0, len(g.Nodes))
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		order = append(order, node)

		for _, dependent := range node.Dependents {
			inDegree[dependent.Stage.ID]--
			if inDegree[dependent.Stage.ID] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	if len(order) != len(g.Nodes) {
		return nil, ErrCyclicDependency
	}
	return order, nil
}

// BuildWorkflow строит workflow-граф из шаблона для всех образцов проекта.
//
// Для каждого образца создаются задачи по стадиям в топологическом
// порядке: плейсхолдеры параметров и путей выводов разрешаются из
// метаданных образца, identity вычисляется из уже разрешённых значений,
// upstream-задачи подключаются по ссылке внутри того же образца.
func BuildWorkflow(project *domain.Project, samples []domain.Sample, tmpl *domain.WorkflowTemplate) (*domain.Workflow, error) {
	graph, err := BuildStageGraph(tmpl)
	if err != nil {
		return nil, err
	}

	name := tmpl.Name
	wf := domain.NewWorkflow(project.ID, name)

	for i := range samples {
		sample := &samples[i]
		ctx := NewContext(project.Name, name, sample.Name, sample.Metadata)

		// jobs этого образца по stageID — для подключения upstream
		stageJobs := make(map[string]*domain.Job, len(graph.Order))

		for _, node := range graph.Order {
			stage := node.Stage

			params, err := RenderMap(stage.Parameters, ctx)
			if err != nil {
				return nil, fmt.Errorf("sample %s, stage %s: %w", sample.Name, stage.ID, err)
			}
			outputs, err := RenderList(stage.Outputs, ctx)
			if err != nil {
				return nil, fmt.Errorf("sample %s, stage %s: %w", sample.Name, stage.ID, err)
			}
			identity, err := Identity(stage.Definition, stage.Queue, params)
			if err != nil {
				return nil, fmt.Errorf("sample %s, stage %s: %w", sample.Name, stage.ID, err)
			}

			job := &domain.Job{
				ID:         uuid.New(),
				WorkflowID: wf.ID,
				Sample:     sample.Name,
				Stage:      stage.ID,
				Name:       JobName(name, sample.Name, stage.Definition),
				Definition: stage.Definition,
				Queue:      stage.Queue,
				Parameters: params,
				Outputs:    outputs,
				TimeoutSec: int32(stage.TimeoutSec),
				Identity:   identity,
				State:      domain.JobStateNotSubmitted,
				CreatedAt:  time.Now(),
			}
			for _, dep := range node.DependsOn {
				up := stageJobs[dep.Stage.ID]
				job.Upstreams = append(job.Upstreams, up.ID)
			}

			if err := wf.AddJob(job); err != nil {
				return nil, fmt.Errorf("sample %s, stage %s: %w", sample.Name, stage.ID, err)
			}
			stageJobs[stage.ID] = job
		}
	}

	return wf, nil
}
