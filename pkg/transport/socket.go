package transport

import (
	"errors"
	"k8s.io/apimachinery/pkg/util/validation/field"
	"k8s.io/klog/v2"
	"net"
	"os"
	"time"
)

// NewSocketChannel validates o and returns a disconnected channel for host:port.
func NewSocketChannel(o SocketOptions) (Channel, error) {
	if err := newConfigurationError(o.Validate(field.NewPath("socket"))); err != nil {
		return nil, err
	}
	address := o.address()
	sendTimeout := orDefault(o.SendTimeout, defaultSocketTimeout)
	dialer := &net.Dialer{Timeout: orDefault(o.ConnectTimeout, defaultSocketTimeout)}
	dial := func() (link, error) {
		conn, err := dialer.Dial("tcp", address)
		if err != nil {
			return nil, err
		}
		klog.V(4).InfoS("Succeed to dial server", "address", address)
		return &socketLink{conn: conn, sendTimeout: sendTimeout}, nil
	}
	return newChannel(address, dial, orDefault(o.ReceiveTimeout, defaultSocketTimeout), o.ReconnectInterval, o.Handshake), nil
}

type socketLink struct {
	conn        net.Conn
	sendTimeout time.Duration
}

func (s *socketLink) read(p []byte) (int, error) {
	if err := s.conn.SetReadDeadline(time.Now().Add(defaultPollInterval)); err != nil {
		return 0, err
	}
	n, err := s.conn.Read(p)
	if isTimeout(err) {
		return n, nil
	}
	return n, err
}

func (s *socketLink) write(p []byte) (int, error) {
	if err := s.conn.SetWriteDeadline(time.Now().Add(s.sendTimeout)); err != nil {
		return 0, err
	}
	return s.conn.Write(p)
}

// discard drains whatever a previous, abandoned exchange left in the receive buffer.
func (s *socketLink) discard() error {
	buf := make([]byte, readBufferSize)
	for i := 0; i < discardLimit; i++ {
		if err := s.conn.SetReadDeadline(time.Now().Add(time.Millisecond)); err != nil {
			return err
		}
		n, err := s.conn.Read(buf)
		if isTimeout(err) {
			return nil
		}
		if err != nil {
			return err
		}
		if n > 0 {
			klog.V(4).InfoS("Discarded stale bytes", "address", s.conn.RemoteAddr(), "length", n)
		}
	}
	return nil
}

func (s *socketLink) close() error {
	return s.conn.Close()
}

func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
