package transport

import (
	"bytes"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNetConnPeerAddr(t *testing.T) {
	client, srv := net.Pipe()
	defer client.Close()
	defer srv.Close()

	nc := NewNetConn(srv)
	require.NotEmpty(t, nc.PeerAddr())
	require.NotEqual(t, UnknownPeer, nc.PeerAddr())
}

func TestNetConnRoundTrip(t *testing.T) {
	client, srv := net.Pipe()
	defer client.Close()

	nc := NewNetConn(srv)
	go func() {
		_, _ = client.Write([]byte("ping"))
	}()

	require.NoError(t, nc.SetReadDeadline(time.Now().Add(time.Second)))
	buf := make([]byte, 8)
	n, err := nc.Read(buf)
	require.NoError(t, err)
	require.Equal(t, "ping", string(buf[:n]))

	go func() {
		out := make([]byte, 8)
		_, _ = client.Read(out)
	}()
	require.NoError(t, nc.SetWriteDeadline(time.Now().Add(time.Second)))
	_, err = nc.Write([]byte("pong"))
	require.NoError(t, err)
	require.NoError(t, nc.Close())
}

func TestPlainChannelDelegates(t *testing.T) {
	client, srv := net.Pipe()
	defer client.Close()
	defer srv.Close()

	ch := NewPlainChannel(NewNetConn(srv))
	go func() {
		_, _ = client.Write([]byte("abc"))
	}()
	buf := make([]byte, 8)
	n, err := ch.Read(buf)
	require.NoError(t, err)
	require.Equal(t, "abc", string(buf[:n]))
}

type rwBuffer struct {
	in  bytes.Buffer
	out bytes.Buffer
}

func (b *rwBuffer) Read(p []byte) (int, error)  { return b.in.Read(p) }
func (b *rwBuffer) Write(p []byte) (int, error) { return b.out.Write(p) }

func TestSecureChannelOpaqueStream(t *testing.T) {
	rw := &rwBuffer{}
	rw.in.WriteString("ciphertext-free")

	ch := NewSecureChannel(rw)
	buf := make([]byte, 32)
	n, err := ch.Read(buf)
	require.NoError(t, err)
	require.Equal(t, "ciphertext-free", string(buf[:n]))

	_, err = ch.Write([]byte("reply"))
	require.NoError(t, err)
	require.Equal(t, "reply", rw.out.String())
}
