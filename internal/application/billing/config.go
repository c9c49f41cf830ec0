package billing

// Config carries the billing policy knobs the services need. It is mapped
// from the infrastructure configuration at startup.
type Config struct {
	// DueDayOffset is how many days after the billed month an invoice is due.
	DueDayOffset int
	// DefaultMaxMeterValue is the rollover ceiling used when a reading does
	// not specify its own.
	DefaultMaxMeterValue int64
	// MandatoryServices names metered services that must have a confirmed
	// reading before an invoice can be generated.
	MandatoryServices []string
}

// DefaultConfig returns the billing policy defaults
func DefaultConfig() Config {
	return Config{
		DueDayOffset:         5,
		DefaultMaxMeterValue: 9999,
		MandatoryServices:    []string{},
	}
}
