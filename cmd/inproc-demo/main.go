package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/procnet/inproc/common/concurrent"
	"github.com/procnet/inproc/common/logging"
	"github.com/procnet/inproc/rpc"
	"github.com/procnet/inproc/rpc/inproc"
	"github.com/spf13/cobra"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type clockService struct {
	started time.Time
}

type statusResult struct {
	Name   string        `json:"name"`
	Uptime time.Duration `json:"uptime"`
}

func (s *clockService) Now() time.Time { return time.Now() }

func (s *clockService) Status(name string) statusResult {
	return statusResult{Name: name, Uptime: time.Since(s.started)}
}

func (s *clockService) Tick(ctx context.Context, stream *rpc.Stream, n int) error {
	for i := 0; i < n; i++ {
		if err := stream.Send(fmt.Sprintf("tick %d @ %s", i, time.Now().Format(time.RFC3339Nano))); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	var (
		name     string
		direct   bool
		logLevel string
		ticks    int
	)

	cmd := &cobra.Command{
		Use:   "inproc-demo",
		Short: "Starts a named in-process RPC server and calls it",
		RunE: func(cmd *cobra.Command, args []string) error {
			logging.SetupGlobalLogger(logLevel)
			return run(name, direct, ticks)
		},
		SilenceUsage: true,
	}
	cmd.Flags().StringVar(&name, "name", inproc.GenerateName(), "name the server binds under")
	cmd.Flags().BoolVar(&direct, "direct", false, "dispatch handlers on the calling goroutine")
	cmd.Flags().IntVar(&ticks, "ticks", 3, "number of stream messages to request")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(name string, direct bool, ticks int) error {
	logger := logging.NewLogger("demo")

	builder := inproc.ForName(name)
	if direct {
		builder.DirectExecutor()
	}
	srv, err := builder.Build()
	if err != nil {
		return err
	}
	if err := srv.Core().Handlers().RegisterName("clock", &clockService{started: time.Now()}); err != nil {
		return err
	}
	if err := srv.Start(); err != nil {
		return err
	}
	defer srv.Shutdown()

	client := inproc.Dial(name)
	defer client.Close()

	return concurrent.RunWithTimeout(context.Background(), 10*time.Second,
		func(ctx context.Context) error {
			var status statusResult
			if err := client.CallContext(ctx, &status, "clock_status", name); err != nil {
				return err
			}
			out, err := json.MarshalIndent(status, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
		func(ctx context.Context) error {
			stream, err := client.StreamContext(ctx, "clock_tick", ticks)
			if err != nil {
				return err
			}
			for {
				v, err := stream.Recv()
				if errors.Is(err, io.EOF) {
					return nil
				}
				if err != nil {
					return err
				}
				logger.Info().Msgf("%v", v)
			}
		},
	)
}
