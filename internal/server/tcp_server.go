// Package server expone el enlace por TCP para hosts sin radio. Cada línea
// saliente es un sobre NDJSON con el canal y el mensaje; cada línea
// entrante es un comando.
package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"sentry-link/internal/codec"
	"sentry-link/internal/radio"
)

const writeTimeout = 2 * time.Second

// Envelope es el formato de cada línea saliente.
type Envelope struct {
	Channel string `json:"channel"`
	Data    string `json:"data"`
}

// TcpServer implementa radio.Transport sobre un listener TCP. Como un
// periférico BLE, deja de aceptar clientes mientras hay uno conectado y
// hasta que se llame a Advertise tras la desconexión.
type TcpServer struct {
	addr string
	mtu  int
	lg   *slog.Logger

	mu          sync.Mutex
	listener    net.Listener
	conn        net.Conn
	advertising bool
	ev          radio.Events
}

// New crea el servidor. mtu es el valor que se informa al conectar; no hay
// MTU real en TCP, sólo se usa para el presupuesto de frame.
func New(addr string, mtu int, lg *slog.Logger) *TcpServer {
	if mtu <= 0 {
		mtu = codec.RequestedMTU
	}
	return &TcpServer{addr: addr, mtu: mtu, lg: lg.With("component", "tcp-bridge")}
}

func (srv *TcpServer) Start(ctx context.Context, ev radio.Events) error {
	listener, err := net.Listen("tcp", srv.addr)
	if err != nil {
		return fmt.Errorf("error starting TCP server: %w", err)
	}
	srv.mu.Lock()
	srv.listener = listener
	srv.ev = ev
	srv.advertising = true
	srv.mu.Unlock()

	srv.lg.Info("TCP bridge listening", "addr", listener.Addr().String())

	go func() {
		<-ctx.Done()
		_ = listener.Close()
		if c := srv.getConn(); c != nil {
			_ = c.Close()
		}
	}()
	go srv.acceptLoop(ctx, listener)
	return nil
}

// Addr devuelve la dirección real del listener (útil con puerto 0).
func (srv *TcpServer) Addr() net.Addr {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	if srv.listener == nil {
		return nil
	}
	return srv.listener.Addr()
}

func (srv *TcpServer) acceptLoop(ctx context.Context, listener net.Listener) {
	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			srv.lg.Error("accept error", "err", err)
			continue
		}
		if !srv.claim(conn) {
			srv.lg.Warn("connection refused, not advertising", "remote", conn.RemoteAddr().String())
			_ = conn.Close()
			continue
		}
		go srv.HandleConnection(conn)
	}
}

// claim toma el único lugar de cliente si el servidor está anunciándose.
func (srv *TcpServer) claim(c net.Conn) bool {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	if !srv.advertising || srv.conn != nil {
		return false
	}
	srv.conn = c
	srv.advertising = false
	return true
}

func (srv *TcpServer) getConn() net.Conn {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	return srv.conn
}

func (srv *TcpServer) clearConn(c net.Conn) {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	if srv.conn == c {
		_ = srv.conn.Close()
		srv.conn = nil
	}
}

// -------------------------------------------------------------------
//                           LECTURA
// -------------------------------------------------------------------

func (srv *TcpServer) HandleConnection(conn net.Conn) {
	if tcpConn, ok := conn.(*net.TCPConn); ok {
		_ = tcpConn.SetNoDelay(true)
		_ = tcpConn.SetKeepAlive(true)
		_ = tcpConn.SetKeepAlivePeriod(60 * time.Second)
	}

	srv.lg.Info("client connected", "remote", conn.RemoteAddr().String())
	srv.ev.OnConnect(srv.mtu)
	defer func() {
		srv.clearConn(conn)
		srv.ev.OnDisconnect()
		srv.lg.Info("client disconnected", "remote", conn.RemoteAddr().String())
	}()

	r := bufio.NewReaderSize(conn, codec.MaxPacketSize)
	for {
		line, err := readLine(r)
		if len(line) > 0 {
			srv.ev.OnWrite(line)
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				srv.lg.Warn("read error", "err", err)
			}
			return
		}
	}
}

// readLine devuelve la siguiente línea sin el fin de línea. Una línea más
// larga que el buffer se entrega cortada y el resto se descarta, igual que
// una escritura BLE que no cabe en el atributo.
func readLine(r *bufio.Reader) ([]byte, error) {
	line, err := r.ReadSlice('\n')
	out := append([]byte(nil), bytes.TrimRight(line, "\r\n")...)
	for errors.Is(err, bufio.ErrBufferFull) {
		_, err = r.ReadSlice('\n')
	}
	return out, err
}

// -------------------------------------------------------------------
//                          ENVÍO NDJSON
// -------------------------------------------------------------------

func (srv *TcpServer) HasChannel(ch radio.Channel) bool {
	return int(ch) < len(radio.Channels)
}

func (srv *TcpServer) Notify(ch radio.Channel, data []byte) error {
	if !srv.HasChannel(ch) {
		return radio.ErrUnknownChannel
	}
	c := srv.getConn()
	if c == nil {
		return radio.ErrNotConnected
	}
	b, err := json.Marshal(Envelope{Channel: ch.String(), Data: string(data)})
	if err != nil {
		return err
	}
	_ = c.SetWriteDeadline(time.Now().Add(writeTimeout))
	_, err = c.Write(append(b, '\n'))
	return err
}

func (srv *TcpServer) Advertise() error {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	if srv.listener == nil {
		return errors.New("tcp bridge not started")
	}
	srv.advertising = true
	return nil
}
