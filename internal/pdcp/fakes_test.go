package pdcp

import (
	"errors"

	"pdcp-tx/pkg/types"
)

type fakeUpperCN struct {
	protocolFailures  int
	maxCountNotifies  int
}

func (f *fakeUpperCN) OnProtocolFailure()  { f.protocolFailures++ }
func (f *fakeUpperCN) OnMaxCountReached()  { f.maxCountNotifies++ }

type fakeLowerDN struct {
	pdus     []types.TXPDU
	discards []uint32
}

func (f *fakeLowerDN) OnNewPDU(pdu types.TXPDU)  { f.pdus = append(f.pdus, pdu) }
func (f *fakeLowerDN) OnDiscardPDU(count uint32) { f.discards = append(f.discards, count) }

type fakeStatusProvider struct {
	report []byte
	err    error
	calls  int
}

func (f *fakeStatusProvider) CompileStatusReport() ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.report, nil
}

var errNoStatus = errors.New("no status report configured")
