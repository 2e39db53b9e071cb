package telemetry

import (
	"fmt"
	"net"
)

// UDPSink writes influx line protocol points to a telegraf socket listener.
type UDPSink struct {
	udpConn *net.UDPConn
}

func NewUDPSink(addr string) (*UDPSink, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", addr, err)
	}

	udpConn, err := net.DialUDP("udp", nil, udpAddr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	return &UDPSink{udpConn: udpConn}, nil
}

func (s *UDPSink) Name() string {
	return "udp:" + s.udpConn.RemoteAddr().String()
}

func (s *UDPSink) Send(record Record) error {
	line := []byte(FormatInflux(record))

	totalWritten := 0
	for totalWritten < len(line) {
		n, err := s.udpConn.Write(line[totalWritten:])
		if err != nil {
			return err
		}
		totalWritten += n
	}

	return nil
}

func (s *UDPSink) Close() error {
	return s.udpConn.Close()
}
