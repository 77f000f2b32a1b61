package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/netforge-go/netforge/pkg/mqttproto"
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
		Use:   "mqtt-client",
		Short: "MQTT 3.1.1 publish/subscribe example",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(v.GetString("broker"), v.GetString("topic"), v.GetString("client-id"))
		},
	}
	cmd.Flags().String("broker", "tcp://127.0.0.1:1883", "broker address")
	cmd.Flags().String("topic", "netforge/demo", "topic to subscribe and publish on")
	cmd.Flags().String("client-id", "netforge-mqtt-client", "MQTT client id")
	_ = v.BindPFlag("broker", cmd.Flags().Lookup("broker"))
	_ = v.BindPFlag("topic", cmd.Flags().Lookup("topic"))
	_ = v.BindPFlag("client-id", cmd.Flags().Lookup("client-id"))
	return cmd
}

// run connects to broker, logs in, subscribes to topic once the broker
// acknowledges the connection, and republishes every message it receives
// back onto the same topic with QoS 1.
func run(broker, topic, clientID string) error {
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

	cl := mqttproto.NewClient()
	opts := mqttproto.LoginOptions{
		ClientID:     clientID,
		CleanSession: true,
		KeepAlive:    30,
	}

	_, err = m.Connect(broker, func(c *reactor.Conn, ev revent.Code, data any) {
		switch ev {
		case revent.Connect:
			cl.Login(c, opts, "", "")
		case revent.MQTTOpen:
			code := data.(byte)
			if code != 0 {
				fmt.Fprintf(os.Stderr, "broker refused connection: code %d\n", code)
				c.Close()
				return
			}
			cl.Subscribe(c, []mqttproto.TopicFilter{{Topic: topic, QoS: 1}})
		case revent.MQTTMsg:
			p := data.(*mqttproto.Packet)
			fmt.Printf("%s: %s\n", p.Topic, p.Payload)
			cl.Publish(c, topic, p.Payload, 1, false)
		case revent.Error:
			fmt.Fprintf(os.Stderr, "conn %d: %v\n", c.ID(), data)
		}
	}, reactor.ConnectOptions{})
	if err != nil {
		return err
	}

	fmt.Printf("mqtt-client connecting to %s, topic %q\n", broker, topic)
	for {
		if err := m.Poll(1000); err != nil {
			return err
		}
	}
}
