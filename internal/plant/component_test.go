package plant_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/fuelcycle/internal/plant"
)

var _ = Describe("Component", func() {
	It("should combine inflow, losses and decay", func() {
		m := plant.NewComponentMap()
		src := plant.NewComponent("src", 1, 4)
		src.Lambda = 0
		c := plant.NewComponent("c", 10, 50)
		c.NonRadioactiveLoss = 0.1
		c.Lambda = 0.01
		out := src.AddOutputPort("out")
		in := c.AddInputPort("in", 1)
		Expect(m.AddComponent(src)).To(Succeed())
		Expect(m.AddComponent(c)).To(Succeed())
		Expect(m.ConnectPorts(src, out, c, in)).To(Succeed())
		m.UpdateFlowRates()

		// 4 − 5×1.1 − 50×0.01
		Expect(c.Derivative()).To(BeNumerically("~", -2.0, 1e-12))
	})

	It("should decay by default", func() {
		c := plant.NewComponent("c", 1e12, 1)
		Expect(c.Lambda).To(Equal(plant.TritiumDecayConstant))
		Expect(c.Derivative()).To(BeNumerically("<", 0))
	})
})

var _ = Describe("PulsedSource", func() {
	It("should report the duty cycle", func() {
		p := plant.NewPulsedSource(1, 0.7, 1000)
		Expect(p.PulseDuration).To(BeNumerically("~", 700, 1e-9))
		Expect(p.DutyCycle()).To(BeNumerically("~", 0.7, 1e-12))
	})

	It("should treat a missing source as always on", func() {
		var p *plant.PulsedSource
		Expect(p.DutyCycle()).To(Equal(1.0))
	})

	It("should clamp the duty cycle", func() {
		p := &plant.PulsedSource{PulseDuration: 20, PulsePeriod: 10}
		Expect(p.DutyCycle()).To(Equal(1.0))
	})
})

var _ = Describe("BreedingBlanket", func() {
	var bb *plant.BreedingBlanket

	BeforeEach(func() {
		bb = plant.NewBreedingBlanket("BB", 3600, 2, 1.1)
		bb.Lambda = 0
	})

	It("should breed N_burn × TBR", func() {
		Expect(bb.Source()).To(BeNumerically("~", 2.2, 1e-12))
		Expect(bb.Derivative()).To(BeNumerically("~", 2.2, 1e-12))
	})

	It("should only change production when recomputed", func() {
		bb.SetTBR(1.5)
		Expect(bb.TBR()).To(Equal(1.5))
		Expect(bb.Source()).To(BeNumerically("~", 2.2, 1e-12))

		Expect(bb.RecomputeSource()).To(BeNumerically("~", 3.0, 1e-12))
		Expect(bb.Source()).To(BeNumerically("~", 3.0, 1e-12))
	})

	It("should scale production by its duty cycle", func() {
		bb.Pulse = plant.NewPulsedSource(2, 0.5, 100)
		Expect(bb.RecomputeSource()).To(BeNumerically("~", 1.1, 1e-12))
	})
})

var _ = Describe("FuelingSystem and Plasma", func() {
	var (
		m  *plant.ComponentMap
		fs *plant.FuelingSystem
		pl *plant.Plasma
	)

	BeforeEach(func() {
		m = plant.NewComponentMap()
		fs = plant.NewFuelingSystem("Fueling System", 1, 0.25, 10)
		fs.Lambda = 0
		pl = plant.NewPlasma("Plasma", 1)
		fsOut := fs.AddOutputPort("to plasma")
		plIn := pl.AddInputPort("from fueling", 1)
		plOut := pl.AddOutputPort("exhaust")
		fsIn := fs.AddInputPort("from plasma", 1)
		Expect(m.AddComponent(fs)).To(Succeed())
		Expect(m.AddComponent(pl)).To(Succeed())
		Expect(m.ConnectPorts(fs, fsOut, pl, plIn)).To(Succeed())
		Expect(m.ConnectPorts(pl, plOut, fs, fsIn)).To(Succeed())
		Expect(m.Validate()).To(Succeed())
	})

	It("should inject N_burn / TBE", func() {
		Expect(fs.Outflow()).To(BeNumerically("~", 4, 1e-12))
	})

	It("should exhaust the unburnt fuel", func() {
		m.UpdateFlowRates()
		Expect(pl.Inflow()).To(BeNumerically("~", 4, 1e-12))
		Expect(pl.Outflow()).To(BeNumerically("~", 3, 1e-12))
		Expect(pl.Derivative()).To(BeNumerically("~", 0, 1e-12))
	})

	It("should lose exactly the burn rate around the loop", func() {
		m.UpdateFlowRates()
		m.UpdateFlowRates()
		dx := m.Derive(0)
		Expect(dx.Sum()).To(BeNumerically("~", -1, 1e-12))
	})

	It("should starve gracefully", func() {
		Expect(pl.Outflow()).To(BeZero())
		Expect(pl.Derivative()).To(BeZero())
	})

	It("should reject a burn efficiency outside (0, 1]", func() {
		fs.TBE = 0
		Expect(m.Validate()).To(MatchError(plant.ErrInvalidParameter))
	})
})
