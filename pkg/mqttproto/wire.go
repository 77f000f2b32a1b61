package mqttproto

import (
	"github.com/netforge-go/netforge/pkg/errs"
	"github.com/netforge-go/netforge/pkg/reactor"
	"github.com/netforge-go/netforge/pkg/revent"
)

// Client wraps the per-connection bookkeeping an MQTT client or broker
// side needs beyond the stateless packet codec: a monotonic message_id
// allocator.
type Client struct {
	IDs *IDGenerator
}

// NewClient returns a Client with a fresh IDGenerator.
func NewClient() *Client { return &Client{IDs: &IDGenerator{}} }

// Login sends CONNECT over c and installs the MQTT protocol handler.
// credUser/credPass, if non-empty, come from the connection URL and
// override opts.Username/Password.
func (cl *Client) Login(c *reactor.Conn, opts LoginOptions, credUser, credPass string) {
	if credUser != "" {
		opts.Username = credUser
	}
	if credPass != "" {
		opts.Password = credPass
	}
	c.Send().Append(BuildConnect(opts))
	c.SetProtoHandler(handler, cl)
}

// handler is the protocol-stage Handler installed by Login (client side)
// or Attach (broker side). Every fully-received packet is delivered first
// as a raw command event, then as the packet-specific event.
func handler(c *reactor.Conn, ev revent.Code, data any) {
	if ev != revent.Read {
		return
	}
	cl, _ := c.ProtoData().(*Client)
	if cl == nil {
		return
	}
	for {
		recv := c.Recv()
		buf := recv.Bytes()
		p, err := Parse(buf)
		if err == ErrIncomplete {
			return
		}
		if err != nil {
			c.Dispatch(revent.Error, errs.NewProtocolError("mqtt", err.Error()))
			c.Close()
			return
		}
		recv.Delete(0, p.Length)
		c.Dispatch(revent.MQTTCmd, p)

		switch p.Type {
		case TypeConnAck:
			c.Dispatch(revent.MQTTOpen, p.ConnAck)
		case TypePublish:
			switch p.QoS {
			case 1:
				c.Send().Append(BuildPubAck(p.MessageID))
			case 2:
				c.Send().Append(BuildPubRec(p.MessageID))
			}
			c.Dispatch(revent.MQTTMsg, p)
		case TypePubRec:
			c.Send().Append(BuildPubRel(p.MessageID))
		case TypePubRel:
			c.Send().Append(BuildPubComp(p.MessageID))
		}
	}
}

// Attach installs the MQTT protocol handler on the server (broker) side of
// an already-accepted connection, symmetric to Login's client-side
// install.
func Attach(c *reactor.Conn, cl *Client) {
	c.SetProtoHandler(handler, cl)
}

// Publish queues a PUBLISH packet on c, allocating a fresh message_id when
// qos > 0.
func (cl *Client) Publish(c *reactor.Conn, topic, payload string, qos byte, retain bool) uint16 {
	var id uint16
	if qos > 0 {
		id = cl.IDs.Next()
	}
	c.Send().Append(BuildPublish(topic, payload, qos, retain, false, id))
	return id
}

// Subscribe queues a SUBSCRIBE packet and returns its message_id.
func (cl *Client) Subscribe(c *reactor.Conn, filters []TopicFilter) uint16 {
	id := cl.IDs.Next()
	c.Send().Append(BuildSubscribe(filters, id))
	return id
}

// Unsubscribe queues an UNSUBSCRIBE packet and returns its message_id.
func (cl *Client) Unsubscribe(c *reactor.Conn, topics []string) uint16 {
	id := cl.IDs.Next()
	c.Send().Append(BuildUnsubscribe(topics, id))
	return id
}
