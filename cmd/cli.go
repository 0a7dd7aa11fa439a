package main

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"fmusim/config"
)

// ExitError 带退出码的错误
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string { return e.Message }

// options 命令行参数
type options struct {
	configs    []string                 // 实验配置文件，多个时并发运行
	override   func(*config.Experiment) // 命令行覆盖配置文件
	logLevel   string                   // 日志级别
	logFormat  string                   // 日志格式
	traceCalls bool                     // 记录原生调用
	workers    int                      // 并发数
	list       bool                     // 列出参考模型
}

// pairs 可重复的 name=value 参数
type pairs map[string]string

func (p pairs) String() string { return fmt.Sprint(map[string]string(p)) }

func (p pairs) Set(s string) error {
	name, value, ok := strings.Cut(s, "=")
	if !ok || name == "" {
		return fmt.Errorf("应为 name=value: %q", s)
	}
	p[name] = value
	return nil
}

// names 可重复的变量名参数
type names []string

func (n *names) String() string { return strings.Join(*n, ",") }

func (n *names) Set(s string) error {
	*n = append(*n, strings.Split(s, ",")...)
	return nil
}

// parse 解析命令行，返回是否直接退出
func parse(args []string, output io.Writer) (*options, bool, error) {
	fs := flag.NewFlagSet("fmusim", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {
		fmt.Fprint(output, `
fmusim - 运行参考模型的联合仿真与模型交换

用法:
  fmusim [选项] [实验配置.hcl|.toml ...]

多个配置文件并发运行，命令行选项覆盖配置文件中的同名设置。

选项:
`)
		fs.PrintDefaults()
	}

	model := fs.String("model", "", "参考模型名称")
	version := fs.Int("fmi-version", 3, "FMI 主版本 1/2/3")
	interfaceType := fs.String("interface", "", "接口类型 cs 或 me")
	startTime := fs.Float64("start-time", 0, "开始时间")
	stopTime := fs.Float64("stop-time", 0, "停止时间")
	outputInterval := fs.Float64("output-interval", 0, "输出间隔")
	tolerance := fs.Float64("tolerance", 0, "相对容差")
	solverName := fs.String("solver", "", "模型交换求解器 euler 或 bdf")
	epsilon := fs.Float64("epsilon", 0, "时间比较容差")
	loggingOn := fs.Bool("logging-on", false, "开启模型调试日志")
	eventModeUsed := fs.Bool("event-mode-used", false, "联合仿真使用事件模式（FMI 3）")
	earlyReturnAllowed := fs.Bool("early-return-allowed", false, "允许提前返回（FMI 3）")
	intermediate := fs.Bool("record-intermediate-values", false, "记录中间值（FMI 3）")
	initialState := fs.String("initial-fmu-state", "", "初始状态文件")
	finalState := fs.String("final-fmu-state", "", "结束状态文件")
	inputFile := fs.String("input", "", "输入 CSV 文件")
	outputFile := fs.String("output", "", "输出文件 .csv/.html/.png/.svg/.db，为空时输出 CSV 到标准输出")
	starts := pairs{}
	fs.Var(starts, "start", "起始值 name=value，可重复")
	var record names
	fs.Var(&record, "record", "记录的变量，可重复或以逗号分隔")

	opts := &options{}
	fs.StringVar(&opts.logLevel, "log-level", "warn", "日志级别 debug/info/warn/error")
	fs.StringVar(&opts.logFormat, "log-format", "text", "日志格式 text 或 json")
	fs.BoolVar(&opts.traceCalls, "log-fmi-calls", false, "记录每次原生调用")
	fs.IntVar(&opts.workers, "workers", 4, "并发运行数")
	fs.BoolVar(&opts.list, "list", false, "列出参考模型")

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	if opts.list {
		return opts, false, nil
	}
	opts.configs = fs.Args()
	if len(opts.configs) == 0 && *model == "" {
		fs.Usage()
		return nil, true, nil
	}

	switch opts.logLevel = strings.ToLower(opts.logLevel); opts.logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, false, &ExitError{Code: 2, Message: "log-level 只能为 debug、info、warn 或 error"}
	}
	switch opts.logFormat = strings.ToLower(opts.logFormat); opts.logFormat {
	case "text", "json":
	default:
		return nil, false, &ExitError{Code: 2, Message: "log-format 只能为 text 或 json"}
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	opts.override = func(e *config.Experiment) {
		if set["model"] {
			e.Model = *model
		}
		if set["fmi-version"] || e.FMIVersion == 0 {
			e.FMIVersion = *version
		}
		if set["interface"] {
			e.Interface = *interfaceType
		}
		if set["start-time"] {
			e.StartTime = startTime
		}
		if set["stop-time"] {
			e.StopTime = stopTime
		}
		if set["output-interval"] {
			e.OutputInterval = *outputInterval
		}
		if set["tolerance"] {
			e.Tolerance = tolerance
		}
		if set["solver"] {
			e.Solver = *solverName
		}
		if set["epsilon"] {
			e.Epsilon = *epsilon
		}
		e.LoggingOn = e.LoggingOn || *loggingOn
		e.EventModeUsed = e.EventModeUsed || *eventModeUsed
		e.EarlyReturnAllowed = e.EarlyReturnAllowed || *earlyReturnAllowed
		e.RecordIntermediateValues = e.RecordIntermediateValues || *intermediate
		if set["initial-fmu-state"] {
			e.InitialFMUState = *initialState
		}
		if set["final-fmu-state"] {
			e.FinalFMUState = *finalState
		}
		if set["input"] {
			e.Input = *inputFile
		}
		if set["output"] {
			e.Output = *outputFile
		}
		if len(record) > 0 {
			e.Record = record
		}
		if len(starts) > 0 && e.StartValues == nil {
			e.StartValues = make(map[string]string, len(starts))
		}
		for name, value := range starts {
			e.StartValues[name] = value
		}
	}
	return opts, false, nil
}
