package telemetry

import (
	"github.com/fxamacker/cbor/v2"
	"github.com/markusressel/thermal2go/internal/thermal"
)

var encMode cbor.EncMode

func init() {
	var err error
	options := cbor.CoreDetEncOptions()
	options.Time = cbor.TimeRFC3339Nano
	encMode, err = options.EncMode()
	if err != nil {
		panic(err)
	}
}

// EncodeTraces encodes trace records as a CBOR array
func EncodeTraces(records []thermal.TraceRecord) ([]byte, error) {
	return encMode.Marshal(records)
}

func DecodeTraces(data []byte) ([]thermal.TraceRecord, error) {
	var records []thermal.TraceRecord
	err := cbor.Unmarshal(data, &records)
	return records, err
}
