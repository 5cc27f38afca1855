// Package pcapsrc feeds a PDCP TX entity from a recorded capture and
// records every protected PDU it emits back out to one, grounded on
// the teacher's internal/pcap.Parser (offline PFCP extraction)
// repurposed for SDAP/RRC SDU extraction and PDCP PDU capture.
package pcapsrc

import (
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
	log "github.com/sirupsen/logrus"
)

// Source reads a pcap file and yields one SDU per UDP datagram seen
// on the configured source port, in capture order — the same
// "pcap → ordered byte sequence" shape the teacher's parser uses for
// PFCP requests.
type Source struct {
	sourcePort uint16
	logger     *log.Entry
}

// NewSource builds a Source that extracts UDP payloads to/from
// sourcePort as SDUs.
func NewSource(sourcePort int, logger *log.Entry) *Source {
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	return &Source{sourcePort: uint16(sourcePort), logger: logger}
}

// ReadSDUs opens filename and returns every matching UDP payload, in
// capture order, as a distinct SDU.
func (s *Source) ReadSDUs(filename string) ([][]byte, error) {
	handle, err := pcap.OpenOffline(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open pcap file %s: %w", filename, err)
	}
	defer handle.Close()

	packetSource := gopacket.NewPacketSource(handle, handle.LinkType())
	packetSource.DecodeOptions.Lazy = true
	packetSource.DecodeOptions.NoCopy = true

	var sdus [][]byte
	total, matched := 0, 0

	for packet := range packetSource.Packets() {
		total++

		udpLayer := packet.Layer(layers.LayerTypeUDP)
		if udpLayer == nil {
			continue
		}
		udp, ok := udpLayer.(*layers.UDP)
		if !ok {
			continue
		}
		if udp.DstPort != layers.UDPPort(s.sourcePort) && udp.SrcPort != layers.UDPPort(s.sourcePort) {
			continue
		}
		if len(udp.Payload) == 0 {
			continue
		}

		matched++
		sdu := make([]byte, len(udp.Payload))
		copy(sdu, udp.Payload)
		sdus = append(sdus, sdu)
	}

	s.logger.WithFields(log.Fields{
		"total_packets":   total,
		"matched_packets": matched,
		"file":            filename,
	}).Info("pcap SDU extraction complete")

	return sdus, nil
}

// FeedAll reads filename and hands every extracted SDU to handleSDU
// in capture order.
func (s *Source) FeedAll(filename string, handleSDU func(sdu []byte)) error {
	sdus, err := s.ReadSDUs(filename)
	if err != nil {
		return err
	}
	for _, sdu := range sdus {
		handleSDU(sdu)
	}
	return nil
}
