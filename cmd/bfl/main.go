package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/cenkalti/backoff.v1"

	"bfl-cli/internal/config"
	"bfl-cli/internal/domain"
	"bfl-cli/internal/provider"
	"bfl-cli/internal/service"
)

// printUsage prints the top level usage instructions.
func printUsage() {
	program := os.Args[0]
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [options]\n", program)
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  generate   Submit a new image generation task")
	fmt.Fprintln(os.Stderr, "  result     Fetch the current status of a task")
	fmt.Fprintf(os.Stderr, "Use \"%s <command> -h\" for more information about a command.\n", program)
}

// newLogger builds a console logger writing to stderr so that command output
// on stdout stays parseable.
func newLogger(verbose bool) *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.OutputPaths = []string{"stderr"}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// generateOptions collects the flag values of the generate command.
type generateOptions struct {
	model            string
	prompt           string
	width            int
	height           int
	seed             int
	steps            int
	guidance         float64
	interval         float64
	safetyTolerance  int
	promptUpsampling bool
}

// buildGenerateParams turns the flag values into the open parameter map sent
// to the service. Only flags the user actually set end up in the payload, so
// the service applies its own defaults for the rest.
func buildGenerateParams(opts generateOptions) map[string]any {
	params := map[string]any{"prompt": opts.prompt}
	if opts.width > 0 {
		params["width"] = opts.width
	}
	if opts.height > 0 {
		params["height"] = opts.height
	}
	if opts.seed > 0 {
		params["seed"] = opts.seed
	}
	if opts.steps > 0 {
		params["steps"] = opts.steps
	}
	if opts.guidance > 0 {
		params["guidance"] = opts.guidance
	}
	if opts.interval > 0 {
		params["interval"] = opts.interval
	}
	if opts.safetyTolerance > 0 {
		params["safety_tolerance"] = opts.safetyTolerance
	}
	if opts.promptUpsampling {
		params["prompt_upsampling"] = true
	}
	return params
}

// waitForTask polls until the task reaches a terminal state, backing off
// exponentially between polls. The loop lives here rather than in the
// client: poll cadence and the overall deadline are application policy.
func waitForTask(ctx context.Context, svc *service.GenerationService, id string, timeout time.Duration) (domain.Task, error) {
	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = 500 * time.Millisecond
	expBackoff.MaxInterval = 5 * time.Second
	expBackoff.MaxElapsedTime = timeout

	var task domain.Task
	operation := func() error {
		var err error
		task, err = svc.Poll(ctx, id)
		if err != nil {
			// Transport and service errors are not retried here; the task
			// may still be running remotely, but this invocation is over.
			return backoff.Permanent(err)
		}
		if !task.Done() {
			return fmt.Errorf("task %s still %s", id, task.Status)
		}
		return nil
	}
	// Retry unwraps permanent errors, so poll failures come back unmodified
	// and errors.As on the domain taxonomy still works for the caller.
	if err := backoff.Retry(operation, backoff.WithContext(expBackoff, ctx)); err != nil {
		return task, err
	}
	return task, nil
}

// printTask writes the task snapshot to stdout as indented JSON.
func printTask(task domain.Task) {
	out, err := json.MarshalIndent(task, "", "  ")
	if err != nil {
		fmt.Printf("%+v\n", task)
		return
	}
	fmt.Println(string(out))
}

func runGenerate(ctx context.Context, svc *service.GenerationService, opts generateOptions, wait bool, timeout time.Duration) error {
	task, err := svc.Submit(ctx, opts.model, buildGenerateParams(opts))
	if err != nil {
		return err
	}
	fmt.Println("Task ID:", task.ID)
	if !wait {
		printTask(task)
		return nil
	}
	task, err = waitForTask(ctx, svc, task.ID, timeout)
	if err != nil {
		return err
	}
	printTask(task)
	if !task.Status.Succeeded() {
		return fmt.Errorf("generation finished with status %q", task.Status)
	}
	return nil
}

func runResult(ctx context.Context, svc *service.GenerationService, id string) error {
	task, err := svc.Poll(ctx, id)
	if err != nil {
		return err
	}
	printTask(task)
	return nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// A .env file is optional; real environment variables win either way.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cmd := os.Args[1]; cmd {
	case "generate":
		generateCmd := flag.NewFlagSet("generate", flag.ExitOnError)
		opts := generateOptions{}
		generateCmd.StringVar(&opts.model, "model", domain.ModelFluxPro11, "Model to use (flux-pro-1.1, flux-pro, flux-dev)")
		generateCmd.StringVar(&opts.prompt, "prompt", "", "Text prompt for image generation (required)")
		generateCmd.IntVar(&opts.width, "width", 0, "Width of the generated image in pixels (multiple of 32)")
		generateCmd.IntVar(&opts.height, "height", 0, "Height of the generated image in pixels (multiple of 32)")
		generateCmd.IntVar(&opts.seed, "seed", 0, "Seed for reproducibility")
		generateCmd.IntVar(&opts.steps, "steps", 0, "Number of generation steps (flux-pro, flux-dev)")
		generateCmd.Float64Var(&opts.guidance, "guidance", 0, "Guidance scale (flux-pro, flux-dev)")
		generateCmd.Float64Var(&opts.interval, "interval", 0, "Guidance interval (flux-pro)")
		generateCmd.IntVar(&opts.safetyTolerance, "safety-tolerance", 0, "Moderation tolerance, 0 (strict) to 6 (relaxed)")
		generateCmd.BoolVar(&opts.promptUpsampling, "prompt-upsampling", false, "Let the service upsample the prompt")
		wait := generateCmd.Bool("wait", false, "Poll until the task reaches a terminal state")
		timeout := generateCmd.Duration("timeout", 5*time.Minute, "Overall deadline when --wait is set")
		verbose := generateCmd.Bool("verbose", false, "Enable debug logging")
		generateCmd.Parse(os.Args[2:])
		if strings.TrimSpace(opts.prompt) == "" {
			fmt.Fprintln(os.Stderr, "Error: --prompt is required")
			generateCmd.Usage()
			os.Exit(1)
		}
		logger := newLogger(*verbose)
		defer logger.Sync()
		svc := service.NewGenerationService(provider.NewAPIClient(config.FromEnv(), nil, logger))
		if err := runGenerate(ctx, svc, opts, *wait, *timeout); err != nil {
			fmt.Fprintln(os.Stderr, "Error creating generation:", err)
			os.Exit(1)
		}
	case "result":
		resultCmd := flag.NewFlagSet("result", flag.ExitOnError)
		id := resultCmd.String("id", "", "Task ID to check (required)")
		verbose := resultCmd.Bool("verbose", false, "Enable debug logging")
		resultCmd.Parse(os.Args[2:])
		if strings.TrimSpace(*id) == "" {
			fmt.Fprintln(os.Stderr, "Error: --id is required")
			resultCmd.Usage()
			os.Exit(1)
		}
		logger := newLogger(*verbose)
		defer logger.Sync()
		svc := service.NewGenerationService(provider.NewAPIClient(config.FromEnv(), nil, logger))
		if err := runResult(ctx, svc, *id); err != nil {
			fmt.Fprintln(os.Stderr, "Error checking result:", err)
			os.Exit(1)
		}
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}
}
