// Conveyor CLI — инструмент командной строки для управления
// проектами, workflow, очередями и schedules.
//
// Использование:
//
//	conveyor [--api-url URL] [--json] <command> <subcommand> [flags]
//
// Команды:
//
//	project   Управление проектами и образцами
//	workflow  Отправка и инспекция workflows
//	queue     Работа с очередями вычислительного сервиса
//	schedule  Управление периодическими отправками
//	dashboard Живая сводка по отслеживаемым workflow
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaiso/Conveyor/internal/cli"
	"github.com/shaiso/Conveyor/internal/telemetry"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var apiURL string
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "conveyor",
		Short:         "Conveyor CLI — batch workflow orchestration tool",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "http://localhost:8080", "Monitor API URL")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	env := cli.NewEnv(telemetry.SetupLogger())
	defer env.Close()

	clientFn := func() *cli.Client { return cli.NewClient(apiURL) }
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewProjectCmd(env, outputFn),
		cli.NewWorkflowCmd(env, clientFn, outputFn),
		cli.NewQueueCmd(env, outputFn),
		cli.NewScheduleCmd(env, outputFn),
		cli.NewDashboardCmd(clientFn, outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
