// +build ignore

// This program generates a sample pcap of UDP-framed PDCP SDUs for
// feeding internal/pcapsrc.Source in manual testing.
package main

import (
	"fmt"
	"os"

	"pdcp-tx/internal/pcapsrc"
	"pdcp-tx/pkg/types"
)

func main() {
	filename := "test/testdata/sample.pcap"
	if len(os.Args) > 1 {
		filename = os.Args[1]
	}

	const sourcePort = 5555

	sink, err := pcapsrc.NewSink(filename, sourcePort)
	if err != nil {
		panic(err)
	}
	defer sink.Close()

	// Five SDUs of increasing size, standing in for a run of RRC/SDAP
	// PDUs handed down to PDCP in sequence.
	for i := 0; i < 5; i++ {
		sdu := make([]byte, 20+i*4)
		for j := range sdu {
			sdu[j] = byte(i*16 + j)
		}
		if err := sink.WritePDU(types.TXPDU{Buf: sdu}); err != nil {
			panic(err)
		}
	}

	fmt.Printf("Generated %s with 5 sample SDUs on UDP port %d\n", filename, sourcePort)
}
