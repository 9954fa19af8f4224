package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-datagrid/pkg/memsource"
)

type serveOptions struct {
	Addr     string
	Users    int
	Grouping string
	Latency  time.Duration
}

func (o serveOptions) sourceOptions() ([]memsource.Option, error) {
	opts := []memsource.Option{
		memsource.WithBasePath("/api/users"),
		memsource.WithLatency(o.Latency),
		memsource.WithSearchFields("name", "email"),
	}
	switch o.Grouping {
	case "", "supported":
	case "unsupported":
		opts = append(opts, memsource.WithGrouping(memsource.GroupingNotImplemented))
	case "ignored":
		opts = append(opts, memsource.WithGrouping(memsource.GroupingIgnored))
	default:
		return nil, fmt.Errorf("unknown grouping mode %q", o.Grouping)
	}
	return opts, nil
}

func addServeDemo(topLevel *cobra.Command) {
	so := &serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve-demo",
		Short: "Serve an in-memory users endpoint for trying gridctl.",
		Example: `
gridctl serve-demo --users 120 --latency 200ms
gridctl serve-demo --grouping unsupported
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := so.sourceOptions()
			if err != nil {
				return err
			}
			src := memsource.New("id", memsource.SampleUsers(so.Users), opts...)
			mux := http.NewServeMux()
			mux.Handle("/api/users", src)
			mux.Handle("/api/users/", src)
			srv := &http.Server{Addr: so.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

			ctx := commandContext(cmd)
			go func() {
				<-ctx.Done()
				shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdown)
			}()

			_, _ = fmt.Fprintln(color.Output, color.New(color.FgHiGreen).Sprintf("serving %d users on http://%s/api/users", so.Users, so.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&so.Addr, "addr", "localhost:8080", "Listen address.")
	cmd.Flags().IntVar(&so.Users, "users", 60, "Number of sample users.")
	cmd.Flags().StringVar(&so.Grouping, "grouping", "supported", "Grouped request handling: supported, unsupported or ignored.")
	cmd.Flags().DurationVar(&so.Latency, "latency", 0, "Delay added to every list response.")
	topLevel.AddCommand(cmd)
}
