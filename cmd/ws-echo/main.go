package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/netforge-go/netforge/pkg/httpproto"
	"github.com/netforge-go/netforge/pkg/netlog"
	"github.com/netforge-go/netforge/pkg/reactor"
	"github.com/netforge-go/netforge/pkg/revent"
	"github.com/netforge-go/netforge/pkg/websocket"
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
		Use:   "ws-echo",
		Short: "WebSocket echo server example",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(v.GetString("listen"))
		},
	}
	cmd.Flags().String("listen", "tcp://0.0.0.0:1701", "address to listen on")
	_ = v.BindPFlag("listen", cmd.Flags().Lookup("listen"))
	return cmd
}

// run starts a listener that speaks HTTP/1.x until a request carrying a
// Sec-WebSocket-Key arrives, upgrades that one connection to WS framing,
// and echoes every text/binary message back to its sender.
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
		case revent.Accept:
			httpproto.Wrap(c, false)
		case revent.HTTPMsg:
			req := data.(*httpproto.Message)
			if key := req.Header("Sec-WebSocket-Key"); key != "" {
				websocket.UpgradeServer(c, key, nil)
				return
			}
			httpproto.Reply(c.Send(), 400, nil, "websocket upgrade required\n")
			c.Drain()
		case revent.WSMsg:
			frame := data.(websocket.Frame)
			websocket.Send(c, frame.Data, frame.Opcode, false)
		case revent.Error:
			fmt.Fprintf(os.Stderr, "conn %d: %v\n", c.ID(), data)
		}
	}, reactor.ListenOptions{})
	if err != nil {
		return err
	}

	fmt.Printf("ws-echo listening on %s\n", addr)
	for {
		if err := m.Poll(1000); err != nil {
			return err
		}
	}
}
