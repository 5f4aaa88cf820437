// cmd/tools/form-check/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"quote-workers/internal/common/logger"
	"quote-workers/internal/common/metrics"
	"quote-workers/internal/models"
	"quote-workers/internal/quote"
	"quote-workers/pkg/registry"
)

func main() {
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	evaluateCmd := flag.NewFlagSet("evaluate", flag.ExitOnError)
	tasksCmd := flag.NewFlagSet("tasks", flag.ExitOnError)

	// Validate command flags
	validatePath := validateCmd.String("path", "", "Path to form definition JSON ({\"fields\": [...], \"formula\": \"...\"})")

	// Evaluate command flags
	evaluatePath := evaluateCmd.String("path", "", "Path to form definition JSON")
	valuesPath := evaluateCmd.String("values", "", "Path to answers JSON (object keyed by field id)")
	currency := evaluateCmd.String("currency", "USD", "Currency reported with the price")

	// Tasks command flags
	tasksPath := tasksCmd.String("path", "", "Registry file to check against the built-in task types (prints the built-in catalogue when empty)")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "validate":
		validateCmd.Parse(os.Args[2:])
		if *validatePath == "" {
			fmt.Println("Error: path is required for validate.")
			validateCmd.Usage()
			os.Exit(1)
		}
		ok, err := validateForm(*validatePath)
		if err != nil {
			fmt.Printf("Error validating form: %v\n", err)
			os.Exit(1)
		}
		if !ok {
			os.Exit(2)
		}

	case "evaluate":
		evaluateCmd.Parse(os.Args[2:])
		if *evaluatePath == "" {
			fmt.Println("Error: path is required for evaluate.")
			evaluateCmd.Usage()
			os.Exit(1)
		}
		if err := evaluateForm(*evaluatePath, *valuesPath, *currency); err != nil {
			fmt.Printf("Error evaluating form: %v\n", err)
			os.Exit(1)
		}

	case "tasks":
		tasksCmd.Parse(os.Args[2:])
		if err := checkTasks(*tasksPath); err != nil {
			fmt.Printf("Task registry check failed: %v\n", err)
			os.Exit(1)
		}

	case "help":
		fallthrough
	default:
		help()
	}
}

func validateForm(path string) (bool, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	report, err := quote.Lint(raw)
	if err != nil {
		return false, err
	}
	if err := printJSON(report); err != nil {
		return false, err
	}
	return report.Valid, nil
}

func evaluateForm(path, valuesPath, currency string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var def models.FormDefinition
	if err := json.Unmarshal(raw, &def); err != nil {
		return fmt.Errorf("parse form definition: %w", err)
	}

	values := map[string]interface{}{}
	if valuesPath != "" {
		rawValues, err := os.ReadFile(valuesPath)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(rawValues, &values); err != nil {
			return fmt.Errorf("parse values: %w", err)
		}
	}

	service := quote.NewService(nil, currency, nil, logger.NewNoOpLogger())
	eval, err := service.Evaluate(context.Background(), quote.Request{
		Fields:  def.Fields,
		Formula: def.Formula,
		Values:  values,
	}, metrics.SourceCLI)
	if eval != nil {
		if perr := printJSON(eval); perr != nil {
			return perr
		}
	}
	return err
}

func checkTasks(path string) error {
	builtin := registry.Builtin()
	if path == "" {
		return printJSON(builtin)
	}

	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	if err := reg.Validate(); err != nil {
		return err
	}
	for _, task := range builtin.Tasks {
		if _, ok := reg.Find(task.TaskType); !ok {
			return fmt.Errorf("task type %s is served by the workers but missing from %s", task.TaskType, path)
		}
	}
	fmt.Println("Task registry check passed.")
	return nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func help() {
	fmt.Println("Usage: form-check <command> [arguments]")
	fmt.Println("Commands:")
	fmt.Println("  validate  Lint a form definition (schema, field order, rules, formula)")
	fmt.Println("  evaluate  Show visibility, completion and price for a set of answers")
	fmt.Println("  tasks     Print or check the job type catalogue")
	fmt.Println("  help      Show this help message")
}
