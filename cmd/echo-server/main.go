package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/netforge-go/netforge/pkg/netlog"
	"github.com/netforge-go/netforge/pkg/reactor"
	"github.com/netforge-go/netforge/pkg/revent"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	v := viper.New()
	cmd := &cobra.Command{
		Use:   "echo-server",
		Short: "TCP echo server example",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(v.GetString("listen"))
		},
	}
	cmd.Flags().String("listen", "tcp://0.0.0.0:1700", "address to listen on")
	_ = v.BindPFlag("listen", cmd.Flags().Lookup("listen"))
	return cmd
}

func run(addr string) error {
	zl, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer zl.Sync()

	m, err := reactor.New(reactor.Config{Logger: netlog.NewZap(zl)})
	if err != nil {
		return err
	}
	defer m.Free()

	_, err = m.Listen(addr, func(c *reactor.Conn, ev revent.Code, data any) {
		switch ev {
		case revent.Read:
			c.Send().Append(c.Recv().Bytes())
			c.Recv().Reset()
		case revent.Error:
			fmt.Fprintf(os.Stderr, "conn %d: %v\n", c.ID(), data)
		}
	}, reactor.ListenOptions{})
	if err != nil {
		return err
	}

	fmt.Printf("echo-server listening on %s\n", addr)
	for {
		if err := m.Poll(1000); err != nil {
			return err
		}
	}
}
