package domain

// ScanStatus labels the outcome of a scan for logging and metrics.
type ScanStatus string

const (
	ScanStatusOK          ScanStatus = "ok"
	ScanStatusEmpty       ScanStatus = "empty"       // scan ran, nothing qualified
	ScanStatusUnavailable ScanStatus = "unavailable" // ticker universe could not be fetched
)

// KlineFetchOutcome labels how a candidate's candle fetch ended.
type KlineFetchOutcome string

const (
	KlineFetchOK           KlineFetchOutcome = "ok"
	KlineFetchError        KlineFetchOutcome = "error"
	KlineFetchInsufficient KlineFetchOutcome = "insufficient"
)
