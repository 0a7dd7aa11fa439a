package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"fmusim"
	"fmusim/config"
	"fmusim/ctxlog"
	"fmusim/input"
	"fmusim/models"
	"fmusim/recorder"
	"fmusim/types"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))
	if err := run(os.Stdout, os.Args[1:]); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// job 一次运行及其输出
type job struct {
	run    *fmusim.Run
	output string
}

func run(out io.Writer, args []string) error {
	opts, exit, err := parse(args, out)
	if err != nil || exit {
		return err
	}
	if opts.list {
		for _, name := range models.Names() {
			d, _ := models.Lookup(name)
			fmt.Fprintf(out, "%-12s %s\n", name, d.Description)
		}
		return nil
	}

	logger := newLogger(opts.logLevel, opts.logFormat)
	ctx := ctxlog.WithLogger(context.Background(), logger)

	experiments, err := load(ctx, opts)
	if err != nil {
		return &ExitError{Code: 2, Message: err.Error()}
	}
	jobs := make([]job, 0, len(experiments))
	for i, exp := range experiments {
		j, err := prepare(exp, opts.traceCalls, len(experiments) > 1)
		if err != nil {
			return &ExitError{Code: 2, Message: err.Error()}
		}
		if j.run.Name == "" {
			j.run.Name = fmt.Sprintf("%s-%d", exp.Model, i)
		}
		jobs = append(jobs, j)
	}

	runs := make([]*fmusim.Run, len(jobs))
	for i, j := range jobs {
		runs[i] = j.run
	}
	batchErr := fmusim.RunBatch(ctx, runs, opts.workers)

	for _, j := range jobs {
		if j.run.Recorder.Len() == 0 {
			continue
		}
		if err := writeOutput(ctx, out, j.output, j.run); err != nil {
			return err
		}
	}
	if batchErr != nil {
		return &ExitError{Code: 1, Message: batchErr.Error()}
	}
	return nil
}

// load 读取配置文件并应用命令行覆盖
func load(ctx context.Context, opts *options) ([]*config.Experiment, error) {
	if len(opts.configs) == 0 {
		exp := &config.Experiment{}
		opts.override(exp)
		if err := exp.Validate(); err != nil {
			return nil, err
		}
		exp.ApplyEpsilon()
		return []*config.Experiment{exp}, nil
	}
	experiments := make([]*config.Experiment, 0, len(opts.configs))
	for _, path := range opts.configs {
		exp, err := config.Load(ctx, path)
		if err != nil {
			return nil, err
		}
		opts.override(exp)
		if err := exp.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		experiments = append(experiments, exp)
	}
	// 容差只能在所有运行开始前覆盖一次
	for _, exp := range experiments[1:] {
		if exp.Epsilon != experiments[0].Epsilon {
			return nil, errors.New("并发运行的 epsilon 必须一致")
		}
	}
	experiments[0].ApplyEpsilon()
	return experiments, nil
}

// prepare 解析模型、设置、输入和记录器
func prepare(exp *config.Experiment, traceCalls, batch bool) (job, error) {
	d, err := models.Lookup(exp.Model)
	if err != nil {
		return job{}, err
	}
	version := exp.Version()
	b, err := d.Binding(version)
	if err != nil {
		return job{}, err
	}
	md := d.ModelDescription(version)
	settings, err := exp.Settings(md)
	if err != nil {
		return job{}, err
	}
	variables, err := exp.Recorded(md)
	if err != nil {
		return job{}, err
	}
	var in *input.Input
	if exp.Input != "" {
		f, err := os.Open(exp.Input)
		if err != nil {
			return job{}, fmt.Errorf("打开输入文件失败: %w", err)
		}
		defer f.Close()
		if in, err = input.ReadCSV(f, md); err != nil {
			return job{}, fmt.Errorf("%s: %w", exp.Input, err)
		}
	}
	if batch && exp.Output == "" {
		return job{}, fmt.Errorf("%s: 并发运行时必须指定输出文件", exp.Model)
	}
	return job{
		run: &fmusim.Run{
			Binding:     b,
			Description: md,
			Recorder:    recorder.New(variables),
			Input:       in,
			Settings:    settings,
			TraceCalls:  traceCalls,
		},
		output: exp.Output,
	}, nil
}

func newLogger(level, format string) *slog.Logger {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "info":
		l = slog.LevelInfo
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelWarn
	}
	opts := &slog.HandlerOptions{Level: l}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// statusText 运行状态说明
func statusText(r *fmusim.Run) string {
	if r.Status <= types.StatusWarning {
		return "完成"
	}
	return r.Status.String()
}
