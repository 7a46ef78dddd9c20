package cli

import (
	"encoding/csv"
	"fmt"
	"os"
	"regexp"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/shaiso/Conveyor/internal/domain"
)

// Имя проекта попадает в имена задач на внешнем сервисе,
// который принимает только буквы, цифры и подчёркивания.
var projectNameRe = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// NewProjectCmd создаёт группу команд для управления проектами.
func NewProjectCmd(env *Env, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects and their samples",
	}

	cmd.AddCommand(
		newProjectListCmd(env, outputFn),
		newProjectCreateCmd(env, outputFn),
		newProjectImportSamplesCmd(env, outputFn),
		newProjectSamplesCmd(env, outputFn),
	)

	return cmd
}

func newProjectListCmd(env *Env, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			store, err := env.Store(cmd.Context())
			if err != nil {
				return err
			}

			projects, err := store.Projects.List(cmd.Context())
			if err != nil {
				return err
			}

			headers := []string{"ID", "NAME", "CREATED"}
			rows := make([][]string, len(projects))
			for i, p := range projects {
				rows[i] = []string{p.ID.String(), p.Name, p.CreatedAt.Format("2006-01-02 15:04")}
			}

			out.Print(headers, rows, projects)
			return nil
		},
	}
}

func newProjectCreateCmd(env *Env, outputFn func() *Output) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new project",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			if !projectNameRe.MatchString(name) {
				return fmt.Errorf("invalid project name %q: only letters, digits and underscores are allowed", name)
			}

			store, err := env.Store(cmd.Context())
			if err != nil {
				return err
			}

			project := &domain.Project{
				ID:   uuid.New(),
				Name: name,
			}

			if err := store.Projects.Create(cmd.Context(), project); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Project created: %s", project.ID))
			out.Print(
				[]string{"ID", "NAME"},
				[][]string{{project.ID.String(), project.Name}},
				project,
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Project name (required)")
	cmd.MarkFlagRequired("name")

	return cmd
}

func newProjectImportSamplesCmd(env *Env, outputFn func() *Output) *cobra.Command {
	var nameColumn string

	cmd := &cobra.Command{
		Use:   "import-samples PROJECT CSV_FILE",
		Short: "Import samples from a CSV file",
		Long: `Import samples from a CSV file. The first row must be a header;
one column (--name-column, default "sample") holds the sample name,
all columns are stored as metadata and are available as placeholders
in workflow templates.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			store, err := env.Store(cmd.Context())
			if err != nil {
				return err
			}

			project, err := store.Projects.GetByName(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			samples, err := readSamplesCSV(args[1], nameColumn, project.ID)
			if err != nil {
				return err
			}

			for _, sample := range samples {
				if err := store.Projects.AddSample(cmd.Context(), sample); err != nil {
					return fmt.Errorf("import sample %q: %w", sample.Name, err)
				}
			}

			out.Success(fmt.Sprintf("Imported %d samples into project %s", len(samples), project.Name))
			return nil
		},
	}

	cmd.Flags().StringVar(&nameColumn, "name-column", "sample", "CSV column holding the sample name")

	return cmd
}

func newProjectSamplesCmd(env *Env, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "samples PROJECT",
		Short: "List samples of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			store, err := env.Store(cmd.Context())
			if err != nil {
				return err
			}

			project, err := store.Projects.GetByName(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			samples, err := store.Projects.ListSamples(cmd.Context(), project.ID)
			if err != nil {
				return err
			}

			headers := []string{"ID", "NAME", "METADATA_KEYS"}
			rows := make([][]string, len(samples))
			for i, s := range samples {
				rows[i] = []string{s.ID.String(), s.Name, strconv.Itoa(len(s.Metadata))}
			}

			out.Print(headers, rows, samples)
			return nil
		},
	}
}

// readSamplesCSV читает образцы из CSV-файла с заголовком.
func readSamplesCSV(path, nameColumn string, projectID uuid.UUID) ([]*domain.Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("csv %s: expected a header row and at least one sample", path)
	}

	header := records[0]
	nameIdx := -1
	for i, col := range header {
		if col == nameColumn {
			nameIdx = i
			break
		}
	}
	if nameIdx < 0 {
		return nil, fmt.Errorf("csv %s: column %q not found in header", path, nameColumn)
	}

	samples := make([]*domain.Sample, 0, len(records)-1)
	seen := make(map[string]bool)
	for _, record := range records[1:] {
		name := record[nameIdx]
		if name == "" {
			return nil, fmt.Errorf("csv %s: empty value in column %q", path, nameColumn)
		}
		if seen[name] {
			return nil, fmt.Errorf("csv %s: duplicate sample %q", path, name)
		}
		seen[name] = true

		metadata := make(map[string]string, len(header))
		for i, col := range header {
			metadata[col] = record[i]
		}

		samples = append(samples, &domain.Sample{
			ID:        uuid.New(),
			ProjectID: projectID,
			Name:      name,
			Metadata:  metadata,
		})
	}

	return samples, nil
}
