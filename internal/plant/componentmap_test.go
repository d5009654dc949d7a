package plant_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/fuelcycle/internal/dynamo"
	"github.com/san-kum/fuelcycle/internal/plant"
)

var _ = Describe("ComponentMap", func() {
	var (
		m    *plant.ComponentMap
		a, b *plant.Component
		aOut *plant.Port
		bIn  *plant.Port
		bOut *plant.Port
		aIn  *plant.Port
	)

	BeforeEach(func() {
		m = plant.NewComponentMap()
		a = plant.NewComponent("A", 10, 100)
		b = plant.NewComponent("B", 20, 0)
		a.Lambda = 0
		b.Lambda = 0
		aOut = a.AddOutputPort("A to B")
		bIn = b.AddInputPort("B from A", 1)
		bOut = b.AddOutputPort("B to A")
		aIn = a.AddInputPort("A from B", 1)
		Expect(m.AddComponent(a)).To(Succeed())
		Expect(m.AddComponent(b)).To(Succeed())
	})

	It("should keep declaration order", func() {
		Expect(m.Names()).To(Equal([]string{"A", "B"}))
		i, ok := m.Index("B")
		Expect(ok).To(BeTrue())
		Expect(i).To(Equal(1))
		Expect(m.State()).To(Equal(dynamo.State{100, 0}))
	})

	It("should reject duplicate component names", func() {
		err := m.AddComponent(plant.NewComponent("A", 1, 0))
		Expect(err).To(MatchError(plant.ErrDuplicateComponent))
	})

	It("should reject components it does not own", func() {
		stray := plant.NewComponent("C", 1, 0)
		in := stray.AddInputPort("C in", 1)
		err := m.ConnectPorts(a, aOut, stray, in)
		Expect(err).To(MatchError(plant.ErrUnknownComponent))
	})

	It("should reject ports used in the wrong direction", func() {
		err := m.ConnectPorts(a, aIn, b, bIn)
		Expect(err).To(MatchError(plant.ErrPortOwnership))

		err = m.ConnectPorts(a, bOut, b, bIn)
		Expect(err).To(MatchError(plant.ErrPortOwnership))
	})

	It("should connect each port only once", func() {
		Expect(m.ConnectPorts(a, aOut, b, bIn)).To(Succeed())
		Expect(aOut.Peer()).To(BeIdenticalTo(bIn))
		Expect(bIn.Peer()).To(BeIdenticalTo(aOut))

		extra := b.AddInputPort("B second", 1)
		err := m.ConnectPorts(a, aOut, b, extra)
		Expect(err).To(MatchError(plant.ErrPortConnected))
	})

	It("should reject fractions outside [0, 1]", func() {
		in := b.AddInputPort("B bad", 1.5)
		err := m.ConnectPorts(a, aOut, b, in)
		Expect(err).To(MatchError(plant.ErrInvalidFraction))
	})

	It("should panic on duplicate port names", func() {
		Expect(func() { a.AddOutputPort("A to B") }).To(Panic())
	})

	Context("when wired as a loop", func() {
		BeforeEach(func() {
			Expect(m.ConnectPorts(a, aOut, b, bIn)).To(Succeed())
			Expect(m.ConnectPorts(b, bOut, a, aIn)).To(Succeed())
			Expect(m.Validate()).To(Succeed())
		})

		It("should start with zero flows", func() {
			Expect(aOut.FlowRate()).To(BeZero())
			Expect(bIn.FlowRate()).To(BeZero())
			Expect(b.Inflow()).To(BeZero())
		})

		It("should propagate outflow to the peer input", func() {
			m.UpdateFlowRates()

			Expect(aOut.FlowRate()).To(BeNumerically("~", 10, 1e-12))
			Expect(bIn.FlowRate()).To(BeNumerically("~", 10, 1e-12))
			Expect(b.Inflow()).To(BeNumerically("~", 10, 1e-12))
			Expect(a.Inflow()).To(BeZero())
		})

		It("should evaluate the inventory balance", func() {
			m.UpdateFlowRates()
			dx := m.Derive(0)

			Expect(dx[0]).To(BeNumerically("~", -10, 1e-12))
			Expect(dx[1]).To(BeNumerically("~", 10, 1e-12))
		})

		It("should store one flow sample per call", func() {
			m.UpdateFlowRates()
			m.StoreFlows()
			m.StoreFlows()

			Expect(a.OutflowHistory()).To(Equal([]float64{10, 10}))
			Expect(b.InflowHistory()).To(HaveLen(2))
		})

		It("should reset inventories, flows and histories", func() {
			m.UpdateFlowRates()
			m.StoreFlows()

			Expect(m.Reset(dynamo.State{50, 5})).To(Succeed())

			Expect(m.State()).To(Equal(dynamo.State{50, 5}))
			Expect(a.OutflowHistory()).To(BeEmpty())
			Expect(bIn.FlowRate()).To(BeZero())
		})

		It("should reject a reset of the wrong size", func() {
			Expect(m.Reset(dynamo.State{1})).To(MatchError(dynamo.ErrDimensionMismatch))
		})

		It("should reject a non-finite reset", func() {
			Expect(m.Reset(dynamo.State{math.NaN(), 0})).To(MatchError(dynamo.ErrInvalidState))
			Expect(m.State()).NotTo(ContainElement(Satisfy(math.IsNaN)))
		})
	})

	It("should scale inputs by their incoming fraction", func() {
		half := b.AddInputPort("B half", 0.5)
		c := plant.NewComponent("C", 5, 0)
		cIn := c.AddInputPort("C half", 0.5)
		Expect(m.AddComponent(c)).To(Succeed())
		Expect(m.ConnectPorts(a, aOut, b, half)).To(Succeed())

		Expect(m.ConnectPorts(b, bOut, c, cIn)).To(Succeed())
		m.UpdateFlowRates()

		Expect(half.FlowRate()).To(BeNumerically("~", 5, 1e-12))
		Expect(bIn.FlowRate()).To(BeZero())
	})

	It("should refuse a non-positive residence time", func() {
		m.Nodes()[0].Base().ResidenceTime = 0
		Expect(m.Validate()).To(MatchError(plant.ErrInvalidParameter))
	})
})
