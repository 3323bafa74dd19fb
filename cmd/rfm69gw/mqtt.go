// Copyright (c) 2016 by Thorsten von Eicken, see LICENSE file for details

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/tve/plainrfm69/gateway"
)

// mq is a handle onto a MQTT broker connection. It publishes received packets to
// <prefix>/rx and forwards JSON packets published to <prefix>/tx to the gateway.
type mq struct {
	conn   mqtt.Client
	prefix string
	mu     sync.Mutex
	send   func(*gateway.TxPacket) error // set by subscribeTx
}

// newMQ connects to a broker and returns a new mq object. The connection is persistent,
// i.e., re-establishes itself if there is a disconnect. The tx subscription also gets
// renewed after a reconnect.
func newMQ(conf MqttConfig, debug LogPrintf) (*mq, error) {
	hostname, _ := os.Hostname()
	id := "rfm69gw-" + hostname
	if debug != nil {
		debug("Configuring MQTT with client id %s: %s:%d prefix=%s", id, conf.Host, conf.Port,
			conf.Prefix)
	}
	mqtt.ERROR = log.New(os.Stderr, "mqtt: ", 0)
	mq := &mq{prefix: conf.Prefix}

	opts := mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("tcp://%s:%d", conf.Host, conf.Port)).
		SetClientID(id).
		SetUsername(conf.User).
		SetPassword(conf.Password).
		SetAutoReconnect(true).
		SetWill(mq.prefix+"/status", `{"online":false}`, 1, true).
		SetOnConnectHandler(mq.onConnect).
		SetConnectionLostHandler(func(c mqtt.Client, err error) {
			log.Printf("MQTT connection lost: %s", err)
		})

	mq.conn = mqtt.NewClient(opts)
	token := mq.conn.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, errors.New("timeout connecting to MQTT broker")
	}
	if err := token.Error(); err != nil {
		return nil, err
	}
	log.Printf("MQTT connected")
	return mq, nil
}

// onConnect (re-)subscribes to the tx topic, unless no gateway is attached yet.
func (mq *mq) onConnect(c mqtt.Client) {
	c.Publish(mq.prefix+"/status", 1, true, `{"online":true}`)
	mq.mu.Lock()
	send := mq.send
	mq.mu.Unlock()
	if send == nil {
		return
	}
	topic := mq.prefix + "/tx"
	token := c.Subscribe(topic, 1, func(c mqtt.Client, m mqtt.Message) {
		pkt, err := decodeTx(m.Payload())
		if err != nil {
			log.Printf("%s: %s", m.Topic(), err)
			return
		}
		if err := send(pkt); err != nil {
			log.Printf("%s: %s", m.Topic(), err)
		}
	})
	if !token.WaitTimeout(2*time.Second) || token.Error() != nil {
		log.Printf("cannot subscribe to %s: %v", topic, token.Error())
	}
}

// subscribeTx forwards packets published to the tx topic to the send function.
func (mq *mq) subscribeTx(send func(*gateway.TxPacket) error) {
	mq.mu.Lock()
	mq.send = send
	mq.mu.Unlock()
	mq.onConnect(mq.conn)
}

// Publish publishes a received packet, it implements gateway.Publisher.
func (mq *mq) Publish(p *gateway.RxPacket) error {
	return mq.publish("rx", false, p)
}

// PublishStatus publishes the gateway's counters as a retained message.
func (mq *mq) PublishStatus(s gateway.Stats) error {
	return mq.publish("status", true, struct {
		Online bool `json:"online"`
		gateway.Stats
	}{true, s})
}

func (mq *mq) publish(suffix string, retain bool, v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	token := mq.conn.Publish(mq.prefix+"/"+suffix, 1, retain, payload)
	if !token.WaitTimeout(2 * time.Second) {
		return errors.New("timeout publishing to " + mq.prefix + "/" + suffix)
	}
	return token.Error()
}

// Close disconnects from the broker.
func (mq *mq) Close() {
	mq.conn.Publish(mq.prefix+"/status", 1, true, `{"online":false}`).WaitTimeout(time.Second)
	mq.conn.Disconnect(250)
}

// decodeTx parses a JSON packet to transmit. The payload is either base64 encoded in
// "payload", a plain string in "text", or a list of integers in "values" to be varint
// encoded.
func decodeTx(b []byte) (*gateway.TxPacket, error) {
	var m struct {
		gateway.TxPacket
		Text string `json:"text"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("cannot json decode packet: %s", err)
	}
	if len(m.Payload) == 0 && m.Text != "" {
		m.Payload = []byte(m.Text)
	}
	if len(m.Payload) == 0 && len(m.Values) == 0 {
		return nil, errors.New("packet has no payload")
	}
	return &m.TxPacket, nil
}
