package identify

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"

	ma "github.com/multiformats/go-multiaddr"
	"github.com/multiformats/go-varint"

	"github.com/dep2p/go-dep2p-swarm/pkg/types"
)

// MaxMessageSize 单条消息的最大长度
const MaxMessageSize = 64 << 10

// Message 节点身份信息
type Message struct {
	// PeerID 节点 ID
	PeerID string `json:"peer_id"`

	// PublicKey 公钥（base64 编码的 ed25519 公钥）
	PublicKey string `json:"public_key"`

	// ListenAddrs 监听地址列表
	ListenAddrs []string `json:"listen_addrs"`

	// Protocols 支持的协议列表
	Protocols []string `json:"protocols"`

	// AgentVersion 代理版本
	AgentVersion string `json:"agent_version"`

	// ProtocolVersion 协议版本
	ProtocolVersion string `json:"protocol_version"`
}

// request 发起方的请求，携带其观察到的对端地址
type request struct {
	ObservedAddr string `json:"observed_addr,omitempty"`
}

// Verify 校验 PeerID 由公钥派生
func (m *Message) Verify() (types.PeerID, ed25519.PublicKey, error) {
	raw, err := base64.StdEncoding.DecodeString(m.PublicKey)
	if err != nil {
		return types.EmptyPeerID, nil, fmt.Errorf("decode public key: %w", err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return types.EmptyPeerID, nil, fmt.Errorf("%w: size %d", types.ErrInvalidPublicKey, len(raw))
	}
	id, err := types.ParsePeerID(m.PeerID)
	if err != nil {
		return types.EmptyPeerID, nil, err
	}
	pub := ed25519.PublicKey(raw)
	if !id.MatchesPublicKey(pub) {
		return types.EmptyPeerID, nil, fmt.Errorf("%w: %s", ErrPeerIDMismatch, id.ShortString())
	}
	return id, pub, nil
}

// Addrs 解析监听地址，忽略无效条目
func (m *Message) Addrs() []ma.Multiaddr {
	out := make([]ma.Multiaddr, 0, len(m.ListenAddrs))
	for _, s := range m.ListenAddrs {
		a, err := ma.NewMultiaddr(s)
		if err != nil {
			logger.Debug("忽略无效监听地址", "addr", s, "error", err)
			continue
		}
		out = append(out, a)
	}
	return out
}

// ============================================================================
//                              帧编解码
// ============================================================================

// writeFrame 写入 uvarint 长度前缀 + JSON
func writeFrame(w io.Writer, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if len(body) > MaxMessageSize {
		return fmt.Errorf("%w: %d bytes", ErrMessageTooLarge, len(body))
	}

	buf := make([]byte, 0, varint.UvarintSize(uint64(len(body)))+len(body))
	buf = append(buf, varint.ToUvarint(uint64(len(body)))...)
	buf = append(buf, body...)
	_, err = w.Write(buf)
	return err
}

// readFrame 读取一帧并解码到 v
//
// r 未实现 io.ByteReader 时逐字节读取长度前缀，不越过帧边界。
func readFrame(r io.Reader, v any) error {
	br, ok := r.(io.ByteReader)
	if !ok {
		br = byteReader{r}
	}

	n, err := varint.ReadUvarint(br)
	if err != nil {
		return err
	}
	if n > MaxMessageSize {
		return fmt.Errorf("%w: %d bytes", ErrMessageTooLarge, n)
	}

	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return err
	}
	return json.Unmarshal(body, v)
}

// byteReader 逐字节读取
type byteReader struct {
	io.Reader
}

func (b byteReader) ReadByte() (byte, error) {
	var one [1]byte
	if _, err := io.ReadFull(b.Reader, one[:]); err != nil {
		return 0, err
	}
	return one[0], nil
}
