package config

import "sort"

// Presets builds a fresh copy of each named scenario on every call.
var Presets = map[string]func() *Config{
	"baseline": baseline,
	"cryopump": cryopump,
	"loop":     loop,
}

// baseline is the DEMO-like reference plant: the blanket feeds the fueling
// system through the tritium extraction system, the plasma exhaust is split
// between direct internal recycling and the tritium recycling unit.
func baseline() *Config {
	const (
		nBurn = 9.3e-7 * 0.7
		tes   = 0.9
		dir   = 0.3
	)
	sim := DefaultSimulation()
	sim.IReserve = 1

	return &Config{
		Name:       "baseline",
		Simulation: sim,
		Components: []ComponentConfig{
			{Name: "Fueling System", Kind: KindFueling, NBurn: nBurn, TBE: 0.1, InitialInventory: 1},
			{Name: "BB", Kind: KindBlanket, ResidenceTime: 3600, NBurn: nBurn, TBR: 1.1},
			{Name: "Plasma", Kind: KindPlasma, NBurn: nBurn},
			{Name: "TRU", Kind: KindComponent, ResidenceTime: 12 * 3600},
		},
		Connections: []ConnectionConfig{
			{From: "BB", To: "Fueling System", Fraction: Float(tes)},
			{From: "Fueling System", To: "Plasma"},
			{From: "Plasma", FromPort: "DIR", To: "Fueling System", Fraction: Float(dir)},
			{From: "Plasma", To: "TRU", Fraction: Float(1 - dir)},
			{From: "TRU", To: "Fueling System"},
		},
	}
}

// cryopump routes the non-DIR exhaust through a cryopump bank before TRU.
func cryopump() *Config {
	cfg := baseline()
	cfg.Name = "cryopump"
	cfg.Components = append(cfg.Components, ComponentConfig{
		Name: "Cryopumps",
		Kind: KindCryopump,
		Pump: &PumpConfig{
			MaxCapacity:      0.01,
			Throughput:       1e-5,
			RegenerationTime: 3600,
			InitialUnits:     2,
		},
	})
	cfg.Connections[3] = ConnectionConfig{From: "Plasma", To: "Cryopumps", Fraction: Float(0.7)}
	cfg.Connections = append(cfg.Connections, ConnectionConfig{From: "Cryopumps", To: "TRU"})
	return cfg
}

// loop is a two-component closed loop without decay or losses.
func loop() *Config {
	sim := DefaultSimulation()
	sim.Dt = 1
	sim.FinalTime = 100
	sim.Adaptive = false
	sim.MaxSimulations = 1
	sim.Fueling = "A"

	return &Config{
		Name:       "loop",
		Simulation: sim,
		Components: []ComponentConfig{
			{Name: "A", Kind: KindComponent, ResidenceTime: 10, InitialInventory: 100, Lambda: Float(0)},
			{Name: "B", Kind: KindComponent, ResidenceTime: 20, Lambda: Float(0)},
		},
		Connections: []ConnectionConfig{
			{From: "A", To: "B"},
			{From: "B", To: "A"},
		},
	}
}

func GetPreset(name string) *Config {
	build, ok := Presets[name]
	if !ok {
		return nil
	}
	return build()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
