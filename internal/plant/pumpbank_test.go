package plant_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/fuelcycle/internal/dynamo"
	"github.com/san-kum/fuelcycle/internal/plant"
)

func mustStep(b *plant.PumpBank, inflow, dt, t float64) plant.BankStep {
	GinkgoHelper()
	step, err := b.Step(inflow, dt, t)
	Expect(err).NotTo(HaveOccurred())
	return step
}

func unitSum(b *plant.PumpBank) float64 {
	total := 0.0
	for _, u := range b.Units() {
		total += u.Inventory
	}
	return total
}

var _ = Describe("PumpBank", func() {
	var bank *plant.PumpBank

	Context("with capacity 10 and throughput 5", func() {
		BeforeEach(func() {
			bank = plant.NewPumpBank(10, 5, 100, 1)
		})

		It("should add a unit once the first one is full", func() {
			mustStep(bank, 5, 1, 0)
			Expect(bank.Len()).To(Equal(1))
			Expect(bank.Inventory()).To(BeNumerically("~", 5, 1e-12))

			mustStep(bank, 5, 1, 1)
			Expect(bank.Len()).To(Equal(1))
			u, _ := bank.Unit(0)
			Expect(u.State).To(Equal(plant.PumpRegenerating))
			Expect(u.RegenRemaining).To(Equal(100.0))

			step := mustStep(bank, 5, 1, 2)
			Expect(bank.Len()).To(Equal(2))
			Expect(step.Created).To(Equal(1))
			Expect(bank.Count(plant.PumpActive)).To(Equal(1))
			Expect(bank.Count(plant.PumpRegenerating)).To(Equal(1))
		})

		It("should keep the aggregate equal to the unit sum", func() {
			for i := 0; i < 50; i++ {
				mustStep(bank, 20, 1, float64(i))
				Expect(bank.Inventory()).To(BeNumerically("~", unitSum(bank), 1e-9))
			}
		})

		It("should spawn enough units to absorb the whole step", func() {
			step := mustStep(bank, 20, 1, 0)

			Expect(bank.Len()).To(Equal(4))
			Expect(step.Created).To(Equal(3))
			Expect(step.Intake).To(BeNumerically("~", 20, 1e-12))
			for _, u := range bank.Units() {
				Expect(u.Inventory).To(BeNumerically("~", 5, 1e-12))
			}
		})

		It("should record creation events", func() {
			mustStep(bank, 20, 1, 3)

			created := 0
			for _, e := range bank.Events() {
				if e.Created {
					created++
					Expect(e.Time).To(Equal(3.0))
				}
			}
			Expect(created).To(Equal(3))
		})

		It("should never drop or duplicate tritium", func() {
			intake, released := 0.0, 0.0
			inflows := []float64{20, 0, 7, 3, 0, 0, 12, 5, 5, 0}
			for i := 0; i < 300; i++ {
				step := mustStep(bank, inflows[i%len(inflows)], 1, float64(i))
				intake += step.Intake
				released += step.Released
			}
			Expect(intake - released).To(BeNumerically("~", bank.Inventory(), 1e-9))
		})
	})

	Context("regeneration", func() {
		BeforeEach(func() {
			bank = plant.NewPumpBank(10, 10, 5, 1)
			mustStep(bank, 10, 1, 0)
		})

		It("should release exactly what it held and become active", func() {
			released := 0.0
			for i := 1; i <= 5; i++ {
				step := mustStep(bank, 0, 1, float64(i))
				released += step.Released
			}

			u, _ := bank.Unit(0)
			Expect(u.State).To(Equal(plant.PumpActive))
			Expect(u.Inventory).To(BeZero())
			Expect(u.Released).To(BeNumerically("~", 10, 1e-12))
			Expect(released).To(BeNumerically("~", 10, 1e-12))
		})

		It("should release gradually before the last step", func() {
			step := mustStep(bank, 0, 1, 1)
			Expect(step.Released).To(BeNumerically("~", 2, 1e-12))
			u, _ := bank.Unit(0)
			Expect(u.State).To(Equal(plant.PumpRegenerating))
			Expect(u.RegenRemaining).To(BeNumerically("~", 4, 1e-12))
		})

		It("should record both transitions", func() {
			for i := 1; i <= 5; i++ {
				mustStep(bank, 0, 1, float64(i))
			}
			events := bank.Events()
			Expect(events).To(HaveLen(2))
			Expect(events[0].To).To(Equal(plant.PumpRegenerating))
			Expect(events[1].From).To(Equal(plant.PumpRegenerating))
			Expect(events[1].To).To(Equal(plant.PumpActive))
		})
	})

	It("should not double count when regeneration is shorter than a step", func() {
		bank = plant.NewPumpBank(10, 10, 0.5, 1)
		mustStep(bank, 10, 1, 0)

		step := mustStep(bank, 0, 1, 1)

		Expect(step.Released).To(BeNumerically("~", 10, 1e-12))
		Expect(bank.Inventory()).To(BeZero())
		u, _ := bank.Unit(0)
		Expect(u.State).To(Equal(plant.PumpActive))
	})

	It("should keep units across a reset", func() {
		bank = plant.NewPumpBank(10, 5, 100, 1)
		mustStep(bank, 20, 1, 0)
		Expect(bank.Len()).To(Equal(4))

		bank.Reset(25)

		Expect(bank.Len()).To(Equal(4))
		Expect(bank.Count(plant.PumpActive)).To(Equal(4))
		Expect(bank.Inventory()).To(BeNumerically("~", 25, 1e-12))
		u, _ := bank.Unit(2)
		Expect(u.Inventory).To(BeNumerically("~", 5, 1e-12))
		Expect(bank.Events()).To(BeEmpty())
	})

	It("should reject a non-finite inflow", func() {
		bank = plant.NewPumpBank(10, 5, 100, 1)
		for _, in := range []float64{math.Inf(1), math.NaN()} {
			_, err := bank.Step(in, 1, 0)
			Expect(err).To(MatchError(plant.ErrNonFiniteFlow))
		}
		Expect(bank.Len()).To(Equal(1))
		Expect(bank.Inventory()).To(BeZero())
	})

	It("should track each unit's inventory per step", func() {
		bank = plant.NewPumpBank(10, 5, 100, 1)
		mustStep(bank, 5, 1, 0)
		mustStep(bank, 5, 1, 1)
		u, _ := bank.Unit(0)
		Expect(u.History).To(Equal([]float64{5, 10}))
	})
})

var _ = Describe("CryopumpSystem", func() {
	It("should report the bank as its inventory", func() {
		m := plant.NewComponentMap()
		src := plant.NewComponent("src", 1, 8)
		src.Lambda = 0
		cp := plant.NewCryopumpSystem("Cryopumps", 10, 5, 4, 1)
		out := src.AddOutputPort("out")
		in := cp.AddInputPort("in", 1)
		Expect(m.AddComponent(src)).To(Succeed())
		Expect(m.AddComponent(cp)).To(Succeed())
		Expect(m.ConnectPorts(src, out, cp, in)).To(Succeed())
		Expect(m.Validate()).To(Succeed())
		m.UpdateFlowRates()

		Expect(m.Prepare(0, 1)).To(Succeed())
		Expect(m.Derive(0)[1]).To(BeNumerically("~", 8, 1e-12))

		committed, err := m.Commit(m.State(), 0, 1)
		Expect(err).NotTo(HaveOccurred())

		Expect(committed[1]).To(BeNumerically("~", 8, 1e-12))
		Expect(cp.Inventory()).To(BeNumerically("~", 8, 1e-12))
		Expect(cp.Bank.Len()).To(Equal(2))
		Expect(cp.Outflow()).To(BeZero())
		Expect(cp.LastStep().Change()).To(BeNumerically("~", 8, 1e-12))
	})

	It("should deliver exactly what the bank releases whatever the step", func() {
		m := plant.NewComponentMap()
		dst := plant.NewComponent("dst", math.Inf(1), 0)
		dst.Lambda = 0
		cp := plant.NewCryopumpSystem("Cryopumps", 10, 10, 5, 1)
		out := cp.AddOutputPort("out")
		in := dst.AddInputPort("in", 1)
		Expect(m.AddComponent(cp)).To(Succeed())
		Expect(m.AddComponent(dst)).To(Succeed())
		Expect(m.ConnectPorts(cp, out, dst, in)).To(Succeed())

		// fill the unit so it regenerates, then vary the step size
		mustStep(cp.Bank, 10, 1, 0)
		Expect(cp.Bank.Count(plant.PumpRegenerating)).To(Equal(1))
		m.UpdateFlowRates()

		t := 1.0
		for _, dt := range []float64{0.5, 2, 0.25, 1, 3} {
			x := m.State()
			Expect(m.Prepare(t, dt)).To(Succeed())
			released := cp.LastStep().Released
			dx := m.Derive(t)
			_, err := m.Commit(dynamo.State{x[0] + dt*dx[0], x[1] + dt*dx[1]}, t, dt)
			Expect(err).NotTo(HaveOccurred())
			m.UpdateFlowRates()
			Expect(dst.Inventory()-x[1]).To(BeNumerically("~", released, 1e-9))
			Expect(cp.Inventory() + dst.Inventory()).To(BeNumerically("~", 10, 1e-9))
			t += dt
		}
		Expect(cp.Inventory()).To(BeZero())
	})

	It("should refuse an empty pump geometry", func() {
		m := plant.NewComponentMap()
		Expect(m.AddComponent(plant.NewCryopumpSystem("Cryopumps", 0, 5, 4, 1))).To(Succeed())
		Expect(m.Validate()).To(MatchError(plant.ErrInvalidParameter))
	})
})
