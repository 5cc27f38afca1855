package pcapsrc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"pdcp-tx/pkg/types"
)

func TestSinkThenSourceRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "capture.pcap")

	sink, err := NewSink(path, 5555)
	require.NoError(t, err)

	pdus := [][]byte{
		{0x80, 0x00, 0xDE, 0xAD, 0xBE, 0xEF},
		{0x80, 0x01, 0xCA, 0xFE},
		{0x00, 0x02, 0x01, 0x02, 0x03},
	}
	for _, buf := range pdus {
		require.NoError(t, sink.WritePDU(types.TXPDU{Buf: buf}))
	}
	require.NoError(t, sink.Close())

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(0))

	src := NewSource(5555, nil)
	sdus, err := src.ReadSDUs(path)
	require.NoError(t, err)
	require.Len(t, sdus, len(pdus))
	for i, want := range pdus {
		require.Equal(t, want, sdus[i])
	}
}

func TestSource_IgnoresNonMatchingPort(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "capture.pcap")

	sink, err := NewSink(path, 7777)
	require.NoError(t, err)
	require.NoError(t, sink.WritePDU(types.TXPDU{Buf: []byte{0x01, 0x02}}))
	require.NoError(t, sink.Close())

	src := NewSource(9999, nil)
	sdus, err := src.ReadSDUs(path)
	require.NoError(t, err)
	require.Empty(t, sdus)
}

func TestFeedAll_CallsHandlerInOrder(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "capture.pcap")

	sink, err := NewSink(path, 4444)
	require.NoError(t, err)
	require.NoError(t, sink.WritePDU(types.TXPDU{Buf: []byte{0x01}}))
	require.NoError(t, sink.WritePDU(types.TXPDU{Buf: []byte{0x02}}))
	require.NoError(t, sink.Close())

	src := NewSource(4444, nil)
	var got [][]byte
	err = src.FeedAll(path, func(sdu []byte) {
		got = append(got, append([]byte{}, sdu...))
	})
	require.NoError(t, err)
	require.Equal(t, [][]byte{{0x01}, {0x02}}, got)
}
