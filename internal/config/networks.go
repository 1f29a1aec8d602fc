package config

// NetworkParams carries the fixed epoch boundary used to convert between
// Unix time and absolute slot number for a given Cardano network. These are
// the values a conforming node publishes in its shelley-genesis file; they
// are wired in directly here so the builder's *_ex calls (spec §4.7) work
// offline without a provider round-trip.
type NetworkParams struct {
	// ShelleyOffsetSlot is the absolute slot number of the first Shelley
	// block (the epoch at which 1-second slots begin).
	ShelleyOffsetSlot uint64
	// ShelleyOffsetTime is the Unix time (seconds) of ShelleyOffsetSlot.
	ShelleyOffsetTime int64
}

// Networks maps a network name to its slot/time origin.
var Networks = map[string]NetworkParams{
	"mainnet": {
		ShelleyOffsetSlot: 4492800,
		ShelleyOffsetTime: 1596059091,
	},
	"preprod": {
		ShelleyOffsetSlot: 86400,
		ShelleyOffsetTime: 1655769600,
	},
	"preview": {
		ShelleyOffsetSlot: 0,
		ShelleyOffsetTime: 1666656000,
	},
}

// SlotFromUnixTime converts a Unix timestamp to an absolute slot number
// for the configured network, assuming a constant 1-second slot length
// since the Shelley hard fork. Era boundaries after Shelley are not taken
// into account.
func (c *Config) SlotFromUnixTime(unixTime int64) uint64 {
	netCfg, ok := Networks[c.Network]
	if !ok {
		netCfg = Networks["mainnet"]
	}
	if unixTime <= netCfg.ShelleyOffsetTime {
		return netCfg.ShelleyOffsetSlot
	}
	return netCfg.ShelleyOffsetSlot + uint64(unixTime-netCfg.ShelleyOffsetTime)
}
