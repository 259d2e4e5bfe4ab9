package ingestor

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	config "gitlab.com/geotrk1/trk.location_server/src/production/TRK.Config"
	"gitlab.com/geotrk1/trk.location_server/src/production/TRK.IngestorService/client"
	logger "gitlab.com/geotrk1/trk.location_server/src/production/TRK.Logger"
)

// locationReport is one queued fix awaiting submission to the API.
type locationReport struct {
	Source string
	Report map[string]interface{}
}

// Ingestor bridges MQTT location topics to the Location API.
type Ingestor struct {
	cfg        *config.IngestorConfig
	apiClient  *client.APIClient
	mqttClient mqtt.Client
	msgCh      chan locationReport
	wg         sync.WaitGroup
	logger     *logger.Logger
}

func New(cfg *config.IngestorConfig, apiClient *client.APIClient, logger *logger.Logger) *Ingestor {
	return &Ingestor{
		cfg:       cfg,
		apiClient: apiClient,
		msgCh:     make(chan locationReport, 4096),
		logger:    logger,
	}
}

func (i *Ingestor) Start(ctx context.Context) error {
	opts := mqtt.NewClientOptions().
		AddBroker(i.cfg.GetMQTTBrokerURL()).
		SetClientID(i.cfg.MQTT.ClientID).
		SetOrderMatters(false).
		SetKeepAlive(i.cfg.MQTT.KeepAlive).
		SetPingTimeout(i.cfg.MQTT.PingTimeout).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetCleanSession(false)

	if i.cfg.MQTT.BrokerUser != "" {
		opts.SetUsername(i.cfg.MQTT.BrokerUser)
		opts.SetPassword(i.cfg.MQTT.BrokerPass)
	}

	if i.cfg.MQTT.UseTLS {
		tlsCfg, err := i.tlsConfig(i.cfg.MQTT.CACertPath)
		if err != nil {
			return err
		}
		opts.SetTLSConfig(tlsCfg)
	}

	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		i.logger.Logger.Error().Err(err).Msg("MQTT connection lost")
	}
	opts.OnConnect = func(c mqtt.Client) {
		topic := i.cfg.MQTT.Topic
		if i.cfg.MQTT.SharedGroup != "" {
			topic = fmt.Sprintf("$share/%s/%s", i.cfg.MQTT.SharedGroup, i.cfg.MQTT.Topic)
		}
		i.logger.Logger.Info().Str("topic", topic).Msg("MQTT connected, subscribing to topic")
		if token := c.Subscribe(topic, 1, i.onMessage); token.Wait() && token.Error() != nil {
			i.logger.Logger.Error().Err(token.Error()).Str("topic", topic).Msg("Failed to subscribe to MQTT topic")
		}
	}

	i.mqttClient = mqtt.NewClient(opts)
	if tk := i.mqttClient.Connect(); tk.Wait() && tk.Error() != nil {
		return tk.Error()
	}

	// batch writer
	i.wg.Add(1)
	go func() {
		defer i.wg.Done()
		i.batchWriter(ctx)
	}()

	return nil
}

func (i *Ingestor) Stop() {
	if i.mqttClient != nil && i.mqttClient.IsConnected() {
		i.mqttClient.Disconnect(500)
	}
	close(i.msgCh)
	i.wg.Wait()
}

func (i *Ingestor) IsConnected() bool {
	return i.mqttClient != nil && i.mqttClient.IsConnected()
}

func (i *Ingestor) onMessage(_ mqtt.Client, m mqtt.Message) {
	i.logger.Logger.Debug().Str("topic", m.Topic()).Msg("Received MQTT message")

	// Expected format: tracker/<source>/location
	parts := strings.Split(m.Topic(), "/")
	if len(parts) != 3 {
		i.logger.Logger.Warn().Str("topic", m.Topic()).Str("expected", "tracker/<source>/location").Msg("Invalid topic format")
		return
	}
	source := parts[1]

	report, err := decodePayload(source, m.Payload())
	if err != nil {
		i.logger.Logger.Error().Err(err).Str("source", source).Msg("Failed to decode location payload")
		return
	}

	i.msgCh <- locationReport{Source: source, Report: report}
}

// decodePayload accepts either a JSON report body or a raw NMEA GGA
// sentence published by trackers without a JSON encoder.
func decodePayload(source string, payload []byte) (map[string]interface{}, error) {
	trimmed := strings.TrimSpace(string(payload))
	if strings.HasPrefix(trimmed, "$") {
		return TranslateGGA(trimmed, source, time.Now())
	}

	var report map[string]interface{}
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal location report: %w", err)
	}
	return report, nil
}

func (i *Ingestor) batchWriter(ctx context.Context) {
	batch := make([]locationReport, 0, i.cfg.Batch.Size)
	timer := time.NewTimer(i.cfg.Batch.Window)
	defer timer.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		i.logger.Logger.Info().Int("batch_size", len(batch)).Msg("Flushing batch to Location API")

		for _, report := range batch {
			if err := i.apiClient.PostLocation(ctx, report.Source, report.Report); err != nil {
				i.logger.Logger.Error().Err(err).Str("source", report.Source).Msg("Error posting location via API")
			}
		}

		batch = batch[:0]
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return
		case report, ok := <-i.msgCh:
			if !ok {
				flush()
				return
			}
			batch = append(batch, report)
			if len(batch) >= i.cfg.Batch.Size {
				flush()
				if !timer.Stop() {
					<-timer.C
				}
				timer.Reset(i.cfg.Batch.Window)
			}
		case <-timer.C:
			flush()
			timer.Reset(i.cfg.Batch.Window)
		}
	}
}

func (i *Ingestor) tlsConfig(caFile string) (*tls.Config, error) {
	cfg := &tls.Config{MinVersion: tls.VersionTLS12}
	if caFile == "" {
		return cfg, nil
	}
	ca, err := os.ReadFile(caFile)
	if err != nil {
		return nil, err
	}
	cp := x509.NewCertPool()
	if !cp.AppendCertsFromPEM(ca) {
		return nil, fmt.Errorf("bad CA file")
	}
	cfg.RootCAs = cp
	return cfg, nil
}
