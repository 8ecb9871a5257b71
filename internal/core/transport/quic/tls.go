package quic

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"fmt"
	"math/big"
	"time"

	"github.com/dep2p/go-dep2p-swarm/pkg/types"
)

// alpn QUIC 应用层协议标识
const alpn = "dep2p-swarm"

// newTLSConfig 使用节点私钥生成自签名证书
//
// 证书主题携带 PeerID 便于调试，身份以证书公钥为准。
func newTLSConfig(priv ed25519.PrivateKey) (*tls.Config, error) {
	pub, ok := priv.Public().(ed25519.PublicKey)
	if !ok {
		return nil, fmt.Errorf("unexpected public key type %T", priv.Public())
	}
	id, err := types.IDFromPublicKey(pub)
	if err != nil {
		return nil, err
	}

	template := &x509.Certificate{
		SerialNumber: big.NewInt(time.Now().UnixNano()),
		Subject: pkix.Name{
			Organization: []string{"DeP2P"},
			CommonName:   id.String(),
		},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(180 * 24 * time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
		BasicConstraintsValid: true,
	}

	certDER, err := x509.CreateCertificate(rand.Reader, template, template, pub, priv)
	if err != nil {
		return nil, fmt.Errorf("创建证书失败: %w", err)
	}

	// 自签名证书没有 CA，标准校验关闭，由 verifyPeerCertificate 校验公钥与有效期
	return &tls.Config{
		Certificates:          []tls.Certificate{{Certificate: [][]byte{certDER}, PrivateKey: priv}},
		NextProtos:            []string{alpn},
		InsecureSkipVerify:    true,
		ClientAuth:            tls.RequireAnyClientCert,
		VerifyPeerCertificate: verifyPeerCertificate,
		MinVersion:            tls.VersionTLS13,
	}, nil
}

// verifyPeerCertificate 对端证书必须是有效期内的 Ed25519 证书
func verifyPeerCertificate(rawCerts [][]byte, _ [][]*x509.Certificate) error {
	if len(rawCerts) == 0 {
		return fmt.Errorf("%w: 对端未提供证书", ErrInvalidPeerCert)
	}

	cert, err := x509.ParseCertificate(rawCerts[0])
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPeerCert, err)
	}

	pub, ok := cert.PublicKey.(ed25519.PublicKey)
	if !ok {
		return fmt.Errorf("%w: 不支持的公钥类型 %T", ErrInvalidPeerCert, cert.PublicKey)
	}
	if _, err := types.IDFromPublicKey(pub); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPeerCert, err)
	}

	now := time.Now()
	if now.Before(cert.NotBefore) || now.After(cert.NotAfter) {
		return fmt.Errorf("%w: 证书不在有效期内", ErrInvalidPeerCert)
	}
	return nil
}
