package pcapsrc

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"pdcp-tx/pkg/types"
)

// Sink writes every PDU handed to it as a synthetic Ethernet/IP/UDP
// frame to a pcap file, grounded on
// test/testdata/generate_pcap.go's layer-serialization shape, for
// offline inspection with the PDCP dissector in Wireshark.
type Sink struct {
	w          *pcapgo.Writer
	f          *os.File
	sourcePort int
	srcIP      net.IP
	dstIP      net.IP
	srcMAC     net.HardwareAddr
	dstMAC     net.HardwareAddr
}

// NewSink opens filename for writing and emits the pcap file header.
// sourcePort is used as both source and destination UDP port, since
// the sink has no notion of a remote peer — it exists purely to make
// captured PDUs visible to a dissector.
func NewSink(filename string, sourcePort int) (*Sink, error) {
	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create pcap file %s: %w", filename, err)
	}

	w := pcapgo.NewWriter(f)
	if err := w.WriteFileHeader(65535, layers.LinkTypeEthernet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write pcap header: %w", err)
	}

	srcMAC, _ := net.ParseMAC("02:00:00:00:00:01")
	dstMAC, _ := net.ParseMAC("02:00:00:00:00:02")

	return &Sink{
		w:          w,
		f:          f,
		sourcePort: sourcePort,
		srcIP:      net.ParseIP("127.0.0.1"),
		dstIP:      net.ParseIP("127.0.0.2"),
		srcMAC:     srcMAC,
		dstMAC:     dstMAC,
	}, nil
}

// Close flushes and closes the underlying pcap file.
func (s *Sink) Close() error {
	return s.f.Close()
}

// WritePDU serializes pdu.Buf as a UDP datagram on sourcePort and
// appends it to the capture with the current wall-clock time.
func (s *Sink) WritePDU(pdu types.TXPDU) error {
	return s.writeAt(pdu, time.Now())
}

func (s *Sink) writeAt(pdu types.TXPDU, ts time.Time) error {
	eth := &layers.Ethernet{
		SrcMAC:       s.srcMAC,
		DstMAC:       s.dstMAC,
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{
		Version:  4,
		TTL:      64,
		Protocol: layers.IPProtocolUDP,
		SrcIP:    s.srcIP,
		DstIP:    s.dstIP,
	}
	udp := &layers.UDP{
		SrcPort: layers.UDPPort(s.sourcePort),
		DstPort: layers.UDPPort(s.sourcePort),
	}
	udp.SetNetworkLayerForChecksum(ip)

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	payload := gopacket.Payload(pdu.Buf)
	if err := gopacket.SerializeLayers(buf, opts, eth, ip, udp, payload); err != nil {
		return fmt.Errorf("failed to serialize PDU: %w", err)
	}

	ci := gopacket.CaptureInfo{
		Timestamp:     ts,
		CaptureLength: len(buf.Bytes()),
		Length:        len(buf.Bytes()),
	}
	return s.w.WritePacket(ci, buf.Bytes())
}
