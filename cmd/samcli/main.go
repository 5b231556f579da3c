package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/danmuck/samwise/internal/logging"
	"github.com/danmuck/samwise/internal/protocol"
	"github.com/danmuck/samwise/internal/protocol/control"
	"github.com/danmuck/samwise/internal/protocol/rabbitmq"
	"github.com/danmuck/samwise/internal/protocol/session"
)

const usage = `usage: samcli [-config path] [-endpoint ep] [-q] CMD [args]

CMD:
  ping                           check samd is reachable
  status                         ask samd for its status
  stop                           ask samd to shut down
  restart                        ask samd to restart its backends
  publish [-n N] [-t roundrobin|redundant] [-d D] [-e exchange] [-k key] [-m payload]
  declare NAME KIND              declare an exchange
  delete NAME                    delete an exchange
`

func main() {
	logging.ConfigureRuntime("samcli")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run returns the process exit code: 0 ok, 1 request failed, 2 usage.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("samcli", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usage) }
	configPath := fs.String("config", "", "samcli TOML config path")
	endpoint := fs.String("endpoint", "", "samd endpoint (overrides config)")
	quiet := fs.Bool("q", false, "suppress output")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return 2
	}

	cfg, err := loadCLIConfig(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "samcli: %v\n", err)
		return 2
	}
	if *endpoint != "" {
		cfg.Endpoint = strings.TrimSpace(*endpoint)
	}

	out := stdout
	if *quiet {
		out = io.Discard
	}

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	pub, err := parseCommand(cmd, rest, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "samcli: %v\n", err)
		fs.Usage()
		return 2
	}

	sess := session.New(cfg.Session)
	defer sess.Close()
	if err := sess.Connect(ctx, cfg.Endpoint); err != nil {
		fmt.Fprintf(stderr, "samcli: %v\n", err)
		return 1
	}

	switch cmd {
	case "ping":
		err = control.Ping(ctx, sess)
	case "status":
		err = control.Status(ctx, sess)
	case "stop":
		err = control.Stop(ctx, sess)
	case "restart":
		err = control.Restart(ctx, sess)
	case "publish":
		err = publish(ctx, sess, pub, out)
	case "declare":
		err = rabbitmq.NewClient(sess).ExchangeDeclare(ctx, rest[0], rest[1])
	case "delete":
		err = rabbitmq.NewClient(sess).ExchangeDelete(ctx, rest[0])
	}
	if err != nil {
		fmt.Fprintf(stderr, "samcli: %s: %v\n", cmd, err)
		return 1
	}
	if cmd != "publish" {
		fmt.Fprintf(out, "%s: ok\n", cmd)
	}
	return 0
}

type publishCmd struct {
	count    int
	dist     rabbitmq.Distribution
	args     rabbitmq.PublishArgs
	payload  string
	numbered bool
}

func parseCommand(cmd string, rest []string, stderr io.Writer) (publishCmd, error) {
	switch cmd {
	case "ping", "status", "stop", "restart":
		if len(rest) != 0 {
			return publishCmd{}, fmt.Errorf("%s takes no arguments", cmd)
		}
	case "declare":
		if len(rest) != 2 {
			return publishCmd{}, errors.New("declare needs NAME KIND")
		}
	case "delete":
		if len(rest) != 1 {
			return publishCmd{}, errors.New("delete needs NAME")
		}
	case "publish":
		return parsePublish(rest, stderr)
	default:
		return publishCmd{}, fmt.Errorf("unknown command %q", cmd)
	}
	return publishCmd{}, nil
}

func parsePublish(args []string, stderr io.Writer) (publishCmd, error) {
	fs := flag.NewFlagSet("publish", flag.ContinueOnError)
	fs.SetOutput(stderr)
	n := fs.Int("n", 1, "number of messages to publish")
	kind := fs.String("t", "roundrobin", "distribution type: roundrobin|redundant")
	d := fs.Int("d", 0, "broker count for -t redundant")
	exchange := fs.String("e", "amq.direct", "exchange")
	key := fs.String("k", "", "routing key")
	payload := fs.String("m", "", "payload (default \"message no N\")")
	if err := fs.Parse(args); err != nil {
		return publishCmd{}, err
	}
	if *n < 1 {
		return publishCmd{}, errors.New("-n must be positive")
	}

	var dset bool
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "d" {
			dset = true
		}
	})

	cmd := publishCmd{
		count:    *n,
		args:     rabbitmq.PublishArgs{Exchange: *exchange, RoutingKey: *key},
		payload:  *payload,
		numbered: *payload == "",
	}
	switch *kind {
	case "roundrobin", "round robin":
		if dset {
			return publishCmd{}, errors.New("-d requires -t redundant")
		}
		cmd.dist = rabbitmq.RoundRobin()
	case "redundant":
		if !dset {
			return publishCmd{}, errors.New("-t redundant requires -d")
		}
		cmd.dist = rabbitmq.Redundant(*d)
	default:
		return publishCmd{}, fmt.Errorf("unknown distribution %q", *kind)
	}
	if err := cmd.dist.Validate(); err != nil {
		return publishCmd{}, err
	}
	return cmd, nil
}

func publish(ctx context.Context, sess *session.Session, cmd publishCmd, out io.Writer) error {
	client := rabbitmq.NewClient(sess)
	fmt.Fprintf(out, "publishing %d messages (%s)\n", cmd.count, cmd.dist.Strategy)
	start := time.Now()
	for i := 1; i <= cmd.count; i++ {
		payload := cmd.payload
		if cmd.numbered {
			payload = fmt.Sprintf("message no %d", i)
		}
		if err := client.Publish(ctx, cmd.dist, cmd.args, rabbitmq.PublishOptions{}, []byte(payload)); err != nil {
			if errors.Is(err, protocol.ErrResponseError) {
				return fmt.Errorf("message %d rejected: %w", i, err)
			}
			return fmt.Errorf("message %d: %w", i, err)
		}
	}
	fmt.Fprintf(out, "done in %s\n", time.Since(start).Round(time.Millisecond))
	return nil
}
