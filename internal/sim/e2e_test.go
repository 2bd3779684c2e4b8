package sim_test

import (
	"context"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/modiasim/tinymodia/internal/model"
	"github.com/modiasim/tinymodia/internal/models"
	"github.com/modiasim/tinymodia/internal/num"
	"github.com/modiasim/tinymodia/internal/sim"
)

var _ = Describe("gear train", func() {
	var m *model.SimulationModel[num.Real]
	var out *sim.Outcome

	BeforeEach(func() {
		def, x0 := models.GearTrain[num.Real]()
		var err error
		m, err = model.New(def, x0, nil)
		Expect(err).NotTo(HaveOccurred())

		out, err = sim.Run(context.Background(), m, sim.Options{
			StopTime: 4, Interval: 0.1, Tolerance: 1e-9, Method: "rk45",
		})
		Expect(err).NotTo(HaveOccurred())
	})

	It("reaches the closed-form end state", func() {
		// drive for 2s at 2.8 rad/s^2, brake for 2s at 0.4 rad/s^2
		w, err := m.Column("w")
		Expect(err).NotTo(HaveOccurred())
		Expect(w[len(w)-1]).To(BeNumerically("~", 4.8, 1e-5))

		phi, err := m.Column("phi")
		Expect(err).NotTo(HaveOccurred())
		Expect(phi[len(phi)-1]).To(BeNumerically("~", 16.0, 1e-4))
	})

	It("puts a communication point on the torque switch", func() {
		Expect(out.Events).To(HaveLen(1))
		Expect(out.Events[0].Label).To(Equal("brake"))
		Expect(out.Events[0].Time).To(BeNumerically("~", 2.0, 1e-8))
	})

	It("records strictly increasing times", func() {
		ts := m.Times()
		Expect(ts[0]).To(Equal(0.0))
		for i := 1; i < len(ts); i++ {
			Expect(ts[i]).To(BeNumerically(">", ts[i-1]))
		}
		Expect(ts[len(ts)-1]).To(BeNumerically("~", 4.0, 1e-9))
	})
})

var _ = Describe("bouncing mass", func() {
	It("localizes every touchdown and loses height each bounce", func() {
		def, x0 := models.Bouncer[num.Real]()
		m, err := model.New(def, x0, nil)
		Expect(err).NotTo(HaveOccurred())

		out, err := sim.Run(context.Background(), m, sim.Options{
			StopTime: 2, Interval: 0.01, Tolerance: 1e-8, Method: "rk45",
		})
		Expect(err).NotTo(HaveOccurred())

		Expect(len(out.Events)).To(BeNumerically(">=", 2))
		Expect(out.Events[0].Label).To(Equal("touchdown"))
		Expect(out.Events[0].Time).To(BeNumerically("~", math.Sqrt(2/9.81), 1e-6))
		for i := 1; i < len(out.Events); i++ {
			Expect(out.Events[i].Time).To(BeNumerically(">", out.Events[i-1].Time))
		}

		// the compliant floor dissipates energy, so the rebound
		// apex stays well below the drop height
		s, err := m.Column("s")
		Expect(err).NotTo(HaveOccurred())
		ts := m.Times()
		apex := 0.0
		for i, h := range s {
			if ts[i] > out.Events[0].Time && h > apex {
				apex = h
			}
		}
		Expect(apex).To(BeNumerically("<", 0.9))
		Expect(apex).To(BeNumerically(">", 0.3))
	})
})
