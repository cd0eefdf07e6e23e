/*
Copyright 2026 The KubeEdge Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package mqtt

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"time"

	MQTT "github.com/eclipse/paho.mqtt.golang"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/klog/v2"
)

var (
	// TokenWaitTime bounds how long a publish or subscribe may wait for the broker
	TokenWaitTime = 10 * time.Second
	// ConnectRetryInterval is the wait between connection attempts
	ConnectRetryInterval = 5 * time.Second
)

// TLSConfig configures a TLS connection to the broker.
type TLSConfig struct {
	Enable   bool
	CAFile   string
	CertFile string
	KeyFile  string
}

// CheckClientToken checks token is right
func CheckClientToken(token MQTT.Token) (bool, error) {
	if !token.WaitTimeout(TokenWaitTime) {
		return false, fmt.Errorf("timed out after %v waiting for broker", TokenWaitTime)
	}
	if token.Error() != nil {
		return false, token.Error()
	}
	return true, nil
}

// HubClientInit create mqtt client config
func HubClientInit(server, clientID, username, password string, tlsCfg TLSConfig) (*MQTT.ClientOptions, error) {
	opts := MQTT.NewClientOptions().AddBroker(server).SetClientID(clientID).SetCleanSession(true)
	if username != "" {
		opts.SetUsername(username)
		if password != "" {
			opts.SetPassword(password)
		}
	}

	if !tlsCfg.Enable {
		return opts, nil
	}
	klog.V(4).Infof("Start to set TLS configuration for MQTT client")
	tlsConfig := &tls.Config{MinVersion: tls.VersionTLS12}
	if tlsCfg.CertFile != "" || tlsCfg.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(tlsCfg.CertFile, tlsCfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load x509 key pair: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}
	if tlsCfg.CAFile != "" {
		caCert, err := os.ReadFile(tlsCfg.CAFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA file: %w", err)
		}
		pool := x509.NewCertPool()
		if ok := pool.AppendCertsFromPEM(caCert); !ok {
			return nil, fmt.Errorf("cannot parse the certificates in %s", tlsCfg.CAFile)
		}
		tlsConfig.RootCAs = pool
	}
	opts.SetTLSConfig(tlsConfig)
	klog.V(4).Infof("set TLS configuration for MQTT client successfully")
	return opts, nil
}

// LoopConnect connects client to the broker, retrying until it succeeds or
// ctx is done.
func LoopConnect(ctx context.Context, clientID string, client MQTT.Client) error {
	return wait.PollImmediateUntilWithContext(ctx, ConnectRetryInterval, func(ctx context.Context) (bool, error) {
		klog.Infof("start connect to mqtt server with client id: %s", clientID)
		token := client.Connect()
		if rs, err := CheckClientToken(token); !rs {
			klog.Errorf("connect error: %v", err)
			return false, nil
		}
		klog.Infof("client %s isconnected: %v", clientID, client.IsConnected())
		return true, nil
	})
}
