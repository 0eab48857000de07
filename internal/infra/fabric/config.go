package fabric

import "time"

// Config holds the connection profile for the gateway peer.
type Config struct {
	MSPID        string `yaml:"msp_id"`
	CertPath     string `yaml:"cert_path"`      // signing certificate (file or MSP signcerts dir)
	KeyPath      string `yaml:"key_path"`       // private key (file or MSP keystore dir)
	TLSCertPath  string `yaml:"tls_cert_path"`  // peer TLS CA certificate
	PeerEndpoint string `yaml:"peer_endpoint"`  // host:port of the gateway peer
	GatewayPeer  string `yaml:"gateway_peer"`   // TLS server name override
	Channel      string `yaml:"channel"`
	Chaincode    string `yaml:"chaincode"`

	EvaluateTimeoutMS int64 `yaml:"evaluate_timeout_ms"`
	EndorseTimeoutMS  int64 `yaml:"endorse_timeout_ms"`
	SubmitTimeoutMS   int64 `yaml:"submit_timeout_ms"`
}

func (c Config) EvaluateTimeout() time.Duration {
	return time.Duration(c.EvaluateTimeoutMS) * time.Millisecond
}

func (c Config) EndorseTimeout() time.Duration {
	return time.Duration(c.EndorseTimeoutMS) * time.Millisecond
}

func (c Config) SubmitTimeout() time.Duration {
	return time.Duration(c.SubmitTimeoutMS) * time.Millisecond
}
